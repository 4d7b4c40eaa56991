package config

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pion/logging"

	"github.com/satindergrewal/smoothdj/internal/audio"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Input
	SongsDir  string
	Extension string // e.g. ".mp3"

	// Output
	OutputPath    string // "" = "Your playlist.<Format>"
	Format        string // mp3, flac, wav, opus
	Bitrate       string // e.g. "320k"
	TracklistPath string // JSON tracklist, "" = none

	// Mixing
	CrossfadeDuration time.Duration
	CrossoverFreq     float64 // Hz
	FadeCurve         string  // linear, smoothstep

	// Analysis
	AnalysisWorkers int           // 0 = NumCPU
	AnalysisSeconds time.Duration // 0 = whole track
	CacheDir        string        // "" = no cache

	// Preview server
	ServeAddr string // "" = don't serve

	LogLevel   string
	FFmpegPath string
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		SongsDir:  envStr("SMOOTHDJ_SONGS_DIR", "songs_to_mix"),
		Extension: envStr("SMOOTHDJ_EXTENSION", ".mp3"),

		OutputPath:    envStr("SMOOTHDJ_OUTPUT", ""),
		Format:        envStr("SMOOTHDJ_FORMAT", "mp3"),
		Bitrate:       envStr("SMOOTHDJ_BITRATE", "320k"),
		TracklistPath: envStr("SMOOTHDJ_TRACKLIST", ""),

		CrossfadeDuration: envDuration("SMOOTHDJ_CROSSFADE_MS", 10000*time.Millisecond, time.Millisecond),
		CrossoverFreq:     envFloat("SMOOTHDJ_CROSSOVER_HZ", 800),
		FadeCurve:         envStr("SMOOTHDJ_FADE_CURVE", "linear"),

		AnalysisWorkers: envInt("SMOOTHDJ_WORKERS", 0),
		AnalysisSeconds: envDuration("SMOOTHDJ_ANALYSIS_SECONDS", 0, time.Second),
		CacheDir:        envStr("SMOOTHDJ_CACHE_DIR", ""),

		ServeAddr: envStr("SMOOTHDJ_SERVE", ""),

		LogLevel:   envStr("SMOOTHDJ_LOG_LEVEL", "info"),
		FFmpegPath: envStr("SMOOTHDJ_FFMPEG", "ffmpeg"),
	}
}

// Output returns the export path, defaulting to "Your playlist.<format>".
func (c Config) Output() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return "Your playlist." + c.Format
}

// Validate reports the first setting that cannot produce a mix.
func (c Config) Validate() error {
	switch {
	case c.SongsDir == "":
		return fmt.Errorf("songs directory is empty")
	case c.CrossfadeDuration <= 0:
		return fmt.Errorf("crossfade duration must be positive, got %v", c.CrossfadeDuration)
	case c.CrossoverFreq <= 0:
		return fmt.Errorf("crossover frequency must be positive, got %v", c.CrossoverFreq)
	case !slices.Contains(audio.Formats, c.Format):
		return fmt.Errorf("unknown format %q (want one of %s)", c.Format, strings.Join(audio.Formats, ", "))
	case c.AnalysisWorkers < 0:
		return fmt.Errorf("analysis workers must not be negative, got %d", c.AnalysisWorkers)
	}
	if _, err := audio.ParseCurve(c.FadeCurve); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

var logLevels = map[string]logging.LogLevel{
	"disabled": logging.LogLevelDisabled,
	"error":    logging.LogLevelError,
	"warn":     logging.LogLevelWarn,
	"info":     logging.LogLevelInfo,
	"debug":    logging.LogLevelDebug,
	"trace":    logging.LogLevelTrace,
}

// ParseLogLevel maps a level name (case-insensitive) to a pion log level.
func ParseLogLevel(s string) (logging.LogLevel, error) {
	if lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl, nil
	}
	return logging.LogLevelDisabled, fmt.Errorf("unknown log level %q", s)
}

// LoggerFactory returns a factory that writes every scope to w at the
// configured level. Unknown levels fall back to info.
func (c Config) LoggerFactory(w io.Writer) *logging.DefaultLoggerFactory {
	lvl, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		lvl = logging.LogLevelInfo
	}
	return &logging.DefaultLoggerFactory{
		Writer:          w,
		DefaultLogLevel: lvl,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration reads an integer count of unit.
func envDuration(key string, fallback, unit time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * unit
		}
	}
	return fallback
}
