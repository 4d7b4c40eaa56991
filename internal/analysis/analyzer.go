package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/satindergrewal/smoothdj/internal/autodj"
)

// DefaultSampleRate is the mono rate tracks are decoded to for analysis.
const DefaultSampleRate = 22050

// MonoLoader decodes a file to mono float samples in [-1, 1].
type MonoLoader interface {
	LoadMono(ctx context.Context, path string, sampleRate int, limit time.Duration) ([]float64, error)
}

// Options controls analysis.
type Options struct {
	Workers    int           // concurrent analyses, 0 = NumCPU
	SampleRate int           // analysis rate, 0 = DefaultSampleRate
	Limit      time.Duration // analyze only the first Limit of each track, 0 = all
}

// Result is the outcome for one input path. Err is set when the track could
// not be analyzed and must be left out of the mix.
type Result struct {
	Index  int
	Path   string
	Track  autodj.Track
	Err    error
	Cached bool
}

// Analyzer estimates key and tempo for audio files.
type Analyzer struct {
	loader MonoLoader
	opts   Options
	log    logging.LeveledLogger

	cache *Cache
	title func(path string) string
}

// NewAnalyzer creates an analyzer that decodes through loader.
func NewAnalyzer(loader MonoLoader, opts Options, lf logging.LoggerFactory) *Analyzer {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = DefaultSampleRate
	}
	return &Analyzer{
		loader: loader,
		opts:   opts,
		log:    lf.NewLogger("analysis"),
		title:  Title,
	}
}

// SetCache enables result caching. Pass nil to disable.
func (a *Analyzer) SetCache(c *Cache) {
	a.cache = c
}

// AnalyzeFile decodes one file and estimates its key and tempo.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (autodj.Track, error) {
	r := a.analyze(ctx, 0, path)
	return r.Track, r.Err
}

// Analyze runs AnalyzeFile over paths with a bounded worker pool. The
// returned slice has one Result per path, in the same order as paths.
// progress, if non-nil, is called once per finished path from the calling
// goroutine.
func (a *Analyzer) Analyze(ctx context.Context, paths []string, progress func(Result)) []Result {
	results := make([]Result, len(paths))
	if len(paths) == 0 {
		return results
	}

	jobs := make(chan int, len(paths))
	done := make(chan Result, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < min(a.opts.Workers, len(paths)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					done <- Result{Index: i, Path: paths[i], Err: err}
					continue
				}
				done <- a.analyze(ctx, i, paths[i])
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(done)
	}()

	for r := range done {
		results[r.Index] = r
		if r.Err != nil {
			a.log.Errorf("Skipping %s: %v", r.Path, r.Err)
		}
		if progress != nil {
			progress(r)
		}
	}
	return results
}

func (a *Analyzer) analyze(ctx context.Context, index int, path string) Result {
	res := Result{Index: index, Path: path}

	var fp string
	if a.cache != nil {
		var err error
		if fp, err = Fingerprint(path); err != nil {
			a.log.Warnf("Cache lookup for %s: %v", path, err)
		} else if t, ok, err := a.cache.Get(fp, a.opts); err != nil {
			a.log.Warnf("Cache lookup for %s: %v", path, err)
		} else if ok {
			t.Path = path
			res.Track, res.Cached = t, true
			a.log.Debugf("%s: cached %s", t.Title, t.Key)
			return res
		}
	}

	start := time.Now()
	samples, err := a.loader.LoadMono(ctx, path, a.opts.SampleRate, a.opts.Limit)
	if err != nil {
		res.Err = fmt.Errorf("decode: %w", err)
		return res
	}
	key, err := EstimateKey(samples, a.opts.SampleRate)
	if err != nil {
		res.Err = fmt.Errorf("key: %w", err)
		return res
	}

	res.Track = autodj.Track{
		Path:  path,
		Title: a.title(path),
		Key:   key.Camelot,
		Tonic: key.Tonic,
		Mode:  key.Mode,
		Tempo: Tempo(samples, a.opts.SampleRate),
	}
	a.log.Infof("%s: %v, %.1f BPM (%v)", res.Track.Title, key, res.Track.Tempo, time.Since(start).Round(time.Millisecond))

	if a.cache != nil && fp != "" {
		if err := a.cache.Put(fp, a.opts, res.Track); err != nil {
			a.log.Warnf("Cache store for %s: %v", path, err)
		}
	}
	return res
}
