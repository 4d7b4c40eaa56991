package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/satindergrewal/smoothdj/internal/analysis"
	"github.com/satindergrewal/smoothdj/internal/audio"
	"github.com/satindergrewal/smoothdj/internal/config"
	"github.com/satindergrewal/smoothdj/internal/mix"
	"github.com/satindergrewal/smoothdj/internal/stream"
)

func main() {
	cfg := config.Load()
	showProgress, err := parseFlags(os.Args[1:], &cfg, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, showProgress); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// parseFlags applies command-line overrides on top of the environment config.
func parseFlags(args []string, cfg *config.Config, output io.Writer) (progress bool, err error) {
	fs := flag.NewFlagSet("smoothdj", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.SongsDir, "songs", cfg.SongsDir, "folder of tracks to mix")
	fs.StringVar(&cfg.Extension, "ext", cfg.Extension, "track file extension")
	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, `output file (default "Your playlist.<format>")`)
	fs.StringVar(&cfg.Format, "format", cfg.Format, "output format: mp3 | flac | wav | opus")
	fs.StringVar(&cfg.Bitrate, "bitrate", cfg.Bitrate, "output bitrate (mp3, opus)")
	fs.StringVar(&cfg.TracklistPath, "tracklist", cfg.TracklistPath, "write a JSON tracklist here")
	fs.DurationVar(&cfg.CrossfadeDuration, "crossfade", cfg.CrossfadeDuration, "transition length")
	fs.Float64Var(&cfg.CrossoverFreq, "crossover", cfg.CrossoverFreq, "bass/treble split frequency in Hz")
	fs.StringVar(&cfg.FadeCurve, "curve", cfg.FadeCurve, "fade shape: linear | smoothstep")
	fs.IntVar(&cfg.AnalysisWorkers, "workers", cfg.AnalysisWorkers, "concurrent analyses (0=auto)")
	fs.DurationVar(&cfg.AnalysisSeconds, "analyze", cfg.AnalysisSeconds, "analyze only the start of each track (0=whole track)")
	fs.StringVar(&cfg.CacheDir, "cache", cfg.CacheDir, "analysis cache directory")
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "after export, preview the mix on this address (e.g. :8080)")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level: error | warn | info | debug | trace")
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "ffmpeg binary")
	fs.BoolVar(&progress, "progress", true, "show an analysis progress bar")

	err = fs.Parse(args)
	return progress, err
}

func run(ctx context.Context, cfg config.Config, showProgress bool) error {
	lf := cfg.LoggerFactory(os.Stdout)
	if showProgress {
		// Per-track analysis lines would fight the progress bar.
		lf.ScopeLevels["analysis"] = min(lf.DefaultLogLevel, logging.LogLevelWarn)
	}

	log.Println("---smooth DJ---")

	curve, err := audio.ParseCurve(cfg.FadeCurve)
	if err != nil {
		return err
	}
	decoder := audio.NewDecoder(cfg.FFmpegPath)
	encoder, err := audio.NewEncoder(cfg.FFmpegPath, cfg.Format, cfg.Bitrate)
	if err != nil {
		return err
	}

	analyzer := analysis.NewAnalyzer(decoder, analysis.Options{
		Workers: cfg.AnalysisWorkers,
		Limit:   cfg.AnalysisSeconds,
	}, lf)
	if cfg.CacheDir != "" {
		cache, err := analysis.OpenCache(cfg.CacheDir, lf)
		if err != nil {
			log.Printf("Analysis cache disabled: %v", err)
		} else {
			defer cache.Close()
			analyzer.SetCache(cache)
		}
	}

	fader := audio.NewCrossfader(cfg.CrossfadeDuration, cfg.CrossoverFreq, curve, lf)
	pipeline := mix.New(mix.Config{
		SongsDir:   cfg.SongsDir,
		Extension:  cfg.Extension,
		OutputPath: cfg.Output(),
	}, analyzer, decoder, fader, encoder, lf)

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if showProgress {
		progress, bar = analysisBar(ctx, cfg)
		pipeline.SetProgress(func(analysis.Result) { bar.Increment() })
	}

	report, err := pipeline.Run(ctx)
	if progress != nil {
		if !bar.Completed() {
			bar.Abort(false)
		}
		progress.Wait()
	}
	printSkipped(report)
	if err != nil {
		return err
	}

	printTracklist(report)
	if cfg.TracklistPath != "" {
		if err := mix.WriteTracklist(cfg.TracklistPath, report); err != nil {
			log.Printf("Tracklist not written: %v", err)
		} else {
			log.Printf("Tracklist saved as %q", cfg.TracklistPath)
		}
	}

	log.Println("--- SUCCESS! ---")

	if cfg.ServeAddr != "" {
		return preview(ctx, cfg, report, lf)
	}
	return nil
}

// analysisBar sizes a progress bar from the files the pipeline will discover.
func analysisBar(ctx context.Context, cfg config.Config) (*mpb.Progress, *mpb.Bar) {
	paths, _ := mix.Discover(cfg.SongsDir, cfg.Extension)

	p := mpb.NewWithContext(ctx, mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	bar := p.AddBar(int64(len(paths)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
		),
	)
	return p, bar
}

func printSkipped(r *mix.Report) {
	if r == nil || len(r.Skipped) == 0 {
		return
	}
	fmt.Printf("\nSkipped %d track(s):\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Printf("  [%s] %s: %v\n", s.Phase, s.Path, s.Err)
	}
}

func printTracklist(r *mix.Report) {
	fmt.Printf("\n%s, %d tracks, %v\n", r.Output, len(r.Mixed), r.Duration().Round(time.Second))
	for i, e := range r.Mixed {
		start := e.Start.Round(time.Second)
		fmt.Printf("  %2d. %02d:%02d  %-4s %s\n", i+1, int(start.Minutes()), int(start.Seconds())%60, e.Track.Key, e.Track.Title)
	}
}

// preview plays the finished mix in real time over HTTP and WebRTC until
// it ends or the process is interrupted.
func preview(ctx context.Context, cfg config.Config, r *mix.Report, lf logging.LoggerFactory) error {
	player := audio.NewPlayer(r.TrackInfos())
	broadcaster := stream.NewBroadcaster(lf)
	webrtcHandler := stream.NewWebRTCHandler(broadcaster, 128000, lf)

	mux := http.NewServeMux()
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.FFmpegPath, "192k", lf))
	mux.Handle("/offer", webrtcHandler)
	mux.Handle("/api/status", stream.NewStatusHandler(player, broadcaster, webrtcHandler))

	server := &http.Server{Addr: cfg.ServeAddr, Handler: mux}

	go player.Run(ctx, r.Mix)
	go broadcaster.Run(ctx, player.Frames())

	go func() {
		select {
		case <-ctx.Done():
			log.Println("Shutting down...")
		case <-broadcaster.Ended():
			log.Println("Preview finished.")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Previewing on %s (/stream, /offer, /api/status)", cfg.ServeAddr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}
