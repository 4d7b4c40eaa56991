// Package mix builds one continuous mix out of a folder of tracks: analyze,
// order harmonically, crossfade in order, export.
package mix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/satindergrewal/smoothdj/internal/analysis"
	"github.com/satindergrewal/smoothdj/internal/audio"
	"github.com/satindergrewal/smoothdj/internal/autodj"
)

// Run-terminating outcomes. Returned errors wrap one of these.
var (
	ErrNoInputs           = errors.New("no input files")
	ErrInsufficientTracks = errors.New("could not find at least two valid songs to mix")
	ErrSeedLoad           = errors.New("could not load the first track of the playlist")
	ErrExport             = errors.New("could not export the final mix")
)

// Phase names where a track was dropped.
type Phase string

const (
	PhaseAnalyze Phase = "analyze"
	PhaseMix     Phase = "mix"
)

// Skip records a track left out of the mix.
type Skip struct {
	Path  string
	Phase Phase
	Err   error
}

// Analyzer estimates keys for a batch of files, one Result per path in order.
type Analyzer interface {
	Analyze(ctx context.Context, paths []string, progress func(analysis.Result)) []analysis.Result
}

// Loader decodes a file into the PCM format used for mixing.
type Loader interface {
	Load(ctx context.Context, path string) (*audio.Buffer, error)
}

// Crossfader blends an outgoing buffer into an incoming one.
type Crossfader interface {
	Mix(outgoing, incoming *audio.Buffer) (*audio.Buffer, audio.Transition, error)
}

// Exporter writes the finished mix.
type Exporter interface {
	Export(ctx context.Context, b *audio.Buffer, path string) error
}

// Config locates inputs and output.
type Config struct {
	SongsDir   string
	Extension  string
	OutputPath string
}

// Entry is a track placed in the finished mix.
type Entry struct {
	Track autodj.Track
	Start time.Duration // where the track begins sounding (its transition window opens)
}

// Report describes one run. It is returned alongside any error and is
// filled as far as the run got.
type Report struct {
	RunID      uuid.UUID
	CreatedAt  time.Time
	Output     string
	Discovered int
	Order      []autodj.Track // harmonic order of every analyzed track
	Mixed      []Entry        // tracks actually in the mix, in play order
	Skipped    []Skip
	Shrunk     int // transitions shortened by a short track
	Mix        *audio.Buffer
}

// Duration is the length of the finished mix.
func (r *Report) Duration() time.Duration {
	if r.Mix == nil {
		return 0
	}
	return r.Mix.Duration()
}

// TrackInfos converts the mixed tracks into the player's tracklist.
func (r *Report) TrackInfos() []audio.TrackInfo {
	out := make([]audio.TrackInfo, len(r.Mixed))
	for i, e := range r.Mixed {
		out[i] = audio.TrackInfo{Path: e.Track.Path, Name: e.Track.Title, Key: e.Track.Key.String(), Start: e.Start}
	}
	return out
}

// Pipeline runs Discover, Analyze, Order, LoadSeed, MixStep and Export in turn.
type Pipeline struct {
	cfg      Config
	analyzer Analyzer
	loader   Loader
	fader    Crossfader
	exporter Exporter
	log      logging.LeveledLogger

	progress func(analysis.Result)
}

// New creates a pipeline from its collaborators.
func New(cfg Config, a Analyzer, l Loader, f Crossfader, e Exporter, lf logging.LoggerFactory) *Pipeline {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Pipeline{
		cfg:      cfg,
		analyzer: a,
		loader:   l,
		fader:    f,
		exporter: e,
		log:      lf.NewLogger("mix"),
	}
}

// SetProgress sets a callback invoked as each track finishes analysis.
func (p *Pipeline) SetProgress(fn func(analysis.Result)) {
	p.progress = fn
}

// Discover lists files in dir ending in ext, sorted by path.
func Discover(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// Run builds and exports the mix.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	r := &Report{
		RunID:     uuid.New(),
		CreatedAt: time.Now().UTC(),
		Output:    p.cfg.OutputPath,
	}

	paths, err := Discover(p.cfg.SongsDir, p.cfg.Extension)
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrNoInputs, err)
	}
	if len(paths) == 0 {
		return r, fmt.Errorf("%w: no %s files in %q", ErrNoInputs, p.cfg.Extension, p.cfg.SongsDir)
	}
	r.Discovered = len(paths)
	p.log.Infof("Found %d %s files to process.", len(paths), p.cfg.Extension)

	tracks := p.analyze(ctx, r, paths)
	if len(tracks) < 2 {
		return r, fmt.Errorf("%w: %d of %d analyzed", ErrInsufficientTracks, len(tracks), len(paths))
	}
	p.log.Infof("Successfully analyzed %d tracks.", len(tracks))

	p.log.Info("[Phase 2: Finding harmonic path]")
	r.Order = autodj.HarmonicPath(tracks)
	p.log.Info("Mix order:")
	for i, t := range r.Order {
		p.log.Infof("  %d. %s (Key: %s)", i+1, t.Title, t.Key)
	}

	p.log.Info("[Phase 3: Building mix at original tempos]")
	if err := p.build(ctx, r); err != nil {
		return r, err
	}

	p.log.Info("[Phase 4: Final export]")
	if err := p.exporter.Export(ctx, r.Mix, p.cfg.OutputPath); err != nil {
		return r, fmt.Errorf("%w: %v", ErrExport, err)
	}
	p.log.Infof("Your mix has been saved as %q (%v, %d tracks).", p.cfg.OutputPath, r.Duration().Round(time.Second), len(r.Mixed))
	return r, nil
}

// analyze returns the analyzed tracks in discovery order and records the rest as skips.
func (p *Pipeline) analyze(ctx context.Context, r *Report, paths []string) []autodj.Track {
	p.log.Info("[Phase 1: Key analysis]")
	results := p.analyzer.Analyze(ctx, paths, p.progress)

	tracks := make([]autodj.Track, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			r.Skipped = append(r.Skipped, Skip{Path: res.Path, Phase: PhaseAnalyze, Err: res.Err})
			continue
		}
		tracks = append(tracks, res.Track)
	}
	return tracks
}

// build loads the seed then folds every following track into the accumulator.
func (p *Pipeline) build(ctx context.Context, r *Report) error {
	seed := r.Order[0]
	p.log.Infof("Loading first track: %s", seed.Title)
	acc, err := p.loader.Load(ctx, seed.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSeedLoad, seed.Path, err)
	}
	r.Mixed = append(r.Mixed, Entry{Track: seed})

	for _, t := range r.Order[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.log.Infof("Mixing in: %s", t.Title)

		incoming, err := p.loader.Load(ctx, t.Path)
		if err != nil {
			p.skip(r, t, err)
			continue
		}
		mixed, tr, err := p.fader.Mix(acc, incoming)
		if err != nil {
			p.skip(r, t, err)
			continue
		}
		if tr.Shrunk() {
			r.Shrunk++
		}

		start := acc.Len() - tr.Actual
		r.Mixed = append(r.Mixed, Entry{
			Track: t,
			Start: time.Duration(start) * time.Second / time.Duration(acc.SampleRate),
		})
		acc = mixed
	}
	r.Mix = acc
	return nil
}

func (p *Pipeline) skip(r *Report, t autodj.Track, err error) {
	p.log.Errorf("Could not load or mix %s. Skipping. Reason: %v", t.Title, err)
	r.Skipped = append(r.Skipped, Skip{Path: t.Path, Phase: PhaseMix, Err: err})
}
