package config

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pion/logging"
)

var envVars = []string{
	"SMOOTHDJ_SONGS_DIR", "SMOOTHDJ_EXTENSION", "SMOOTHDJ_OUTPUT",
	"SMOOTHDJ_FORMAT", "SMOOTHDJ_BITRATE", "SMOOTHDJ_TRACKLIST",
	"SMOOTHDJ_CROSSFADE_MS", "SMOOTHDJ_CROSSOVER_HZ", "SMOOTHDJ_FADE_CURVE",
	"SMOOTHDJ_WORKERS", "SMOOTHDJ_ANALYSIS_SECONDS", "SMOOTHDJ_CACHE_DIR",
	"SMOOTHDJ_SERVE", "SMOOTHDJ_LOG_LEVEL", "SMOOTHDJ_FFMPEG",
}

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might interfere
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.SongsDir != "songs_to_mix" {
		t.Errorf("SongsDir = %q, want 'songs_to_mix'", cfg.SongsDir)
	}
	if cfg.Extension != ".mp3" {
		t.Errorf("Extension = %q, want '.mp3'", cfg.Extension)
	}
	if got := cfg.Output(); got != "Your playlist.mp3" {
		t.Errorf("Output() = %q, want 'Your playlist.mp3'", got)
	}
	if cfg.Format != "mp3" {
		t.Errorf("Format = %q, want 'mp3'", cfg.Format)
	}
	if cfg.Bitrate != "320k" {
		t.Errorf("Bitrate = %q, want '320k'", cfg.Bitrate)
	}
	if cfg.TracklistPath != "" {
		t.Errorf("TracklistPath = %q, want empty default", cfg.TracklistPath)
	}
	if cfg.CrossfadeDuration != 10*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 10s", cfg.CrossfadeDuration)
	}
	if cfg.CrossoverFreq != 800 {
		t.Errorf("CrossoverFreq = %f, want 800", cfg.CrossoverFreq)
	}
	if cfg.FadeCurve != "linear" {
		t.Errorf("FadeCurve = %q, want 'linear'", cfg.FadeCurve)
	}
	if cfg.AnalysisWorkers != 0 {
		t.Errorf("AnalysisWorkers = %d, want 0", cfg.AnalysisWorkers)
	}
	if cfg.AnalysisSeconds != 0 {
		t.Errorf("AnalysisSeconds = %v, want 0", cfg.AnalysisSeconds)
	}
	if cfg.CacheDir != "" {
		t.Errorf("CacheDir = %q, want empty default", cfg.CacheDir)
	}
	if cfg.ServeAddr != "" {
		t.Errorf("ServeAddr = %q, want empty default", cfg.ServeAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want 'info'", cfg.LogLevel)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want 'ffmpeg'", cfg.FFmpegPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SMOOTHDJ_SONGS_DIR", "/music/in")
	t.Setenv("SMOOTHDJ_EXTENSION", ".flac")
	t.Setenv("SMOOTHDJ_OUTPUT", "/music/set.opus")
	t.Setenv("SMOOTHDJ_FORMAT", "opus")
	t.Setenv("SMOOTHDJ_BITRATE", "192k")
	t.Setenv("SMOOTHDJ_TRACKLIST", "/music/set.json")
	t.Setenv("SMOOTHDJ_CROSSFADE_MS", "6000")
	t.Setenv("SMOOTHDJ_CROSSOVER_HZ", "250.5")
	t.Setenv("SMOOTHDJ_FADE_CURVE", "smoothstep")
	t.Setenv("SMOOTHDJ_WORKERS", "3")
	t.Setenv("SMOOTHDJ_ANALYSIS_SECONDS", "90")
	t.Setenv("SMOOTHDJ_CACHE_DIR", "/tmp/cache")
	t.Setenv("SMOOTHDJ_SERVE", ":8080")
	t.Setenv("SMOOTHDJ_LOG_LEVEL", "debug")
	t.Setenv("SMOOTHDJ_FFMPEG", "/usr/local/bin/ffmpeg")

	cfg := Load()

	if cfg.SongsDir != "/music/in" {
		t.Errorf("SongsDir = %q, want env override", cfg.SongsDir)
	}
	if cfg.Extension != ".flac" {
		t.Errorf("Extension = %q, want env override", cfg.Extension)
	}
	if got := cfg.Output(); got != "/music/set.opus" {
		t.Errorf("Output() = %q, want env override", got)
	}
	if cfg.Format != "opus" {
		t.Errorf("Format = %q, want env override", cfg.Format)
	}
	if cfg.Bitrate != "192k" {
		t.Errorf("Bitrate = %q, want env override", cfg.Bitrate)
	}
	if cfg.TracklistPath != "/music/set.json" {
		t.Errorf("TracklistPath = %q, want env override", cfg.TracklistPath)
	}
	if cfg.CrossfadeDuration != 6*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 6s", cfg.CrossfadeDuration)
	}
	if cfg.CrossoverFreq != 250.5 {
		t.Errorf("CrossoverFreq = %f, want 250.5", cfg.CrossoverFreq)
	}
	if cfg.FadeCurve != "smoothstep" {
		t.Errorf("FadeCurve = %q, want env override", cfg.FadeCurve)
	}
	if cfg.AnalysisWorkers != 3 {
		t.Errorf("AnalysisWorkers = %d, want 3", cfg.AnalysisWorkers)
	}
	if cfg.AnalysisSeconds != 90*time.Second {
		t.Errorf("AnalysisSeconds = %v, want 90s", cfg.AnalysisSeconds)
	}
	if cfg.CacheDir != "/tmp/cache" {
		t.Errorf("CacheDir = %q, want env override", cfg.CacheDir)
	}
	if cfg.ServeAddr != ":8080" {
		t.Errorf("ServeAddr = %q, want env override", cfg.ServeAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q, want env override", cfg.FFmpegPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("env config should validate: %v", err)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("SMOOTHDJ_CROSSFADE_MS", "ten seconds")
	t.Setenv("SMOOTHDJ_WORKERS", "many")
	t.Setenv("SMOOTHDJ_CROSSOVER_HZ", "low")
	cfg := Load()
	if cfg.CrossfadeDuration != 10*time.Second {
		t.Errorf("Invalid duration env should fallback to default: got %v, want 10s", cfg.CrossfadeDuration)
	}
	if cfg.AnalysisWorkers != 0 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 0", cfg.AnalysisWorkers)
	}
	if cfg.CrossoverFreq != 800 {
		t.Errorf("Invalid float env should fallback to default: got %f, want 800", cfg.CrossoverFreq)
	}
}

func TestEnvStrEmpty(t *testing.T) {
	// Empty string should use fallback
	t.Setenv("SMOOTHDJ_SONGS_DIR", "")
	cfg := Load()
	if cfg.SongsDir != "songs_to_mix" {
		t.Errorf("Empty env should use fallback: got %q", cfg.SongsDir)
	}
}

func TestOutputFollowsFormat(t *testing.T) {
	cfg := Config{Format: "flac"}
	if got := cfg.Output(); got != "Your playlist.flac" {
		t.Errorf("Output() = %q, want 'Your playlist.flac'", got)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			SongsDir:          "songs",
			Format:            "mp3",
			CrossfadeDuration: time.Second,
			CrossoverFreq:     800,
			FadeCurve:         "linear",
			LogLevel:          "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero crossfade", func(c *Config) { c.CrossfadeDuration = 0 }, "crossfade"},
		{"negative crossover", func(c *Config) { c.CrossoverFreq = -1 }, "crossover"},
		{"unknown format", func(c *Config) { c.Format = "ogg" }, "format"},
		{"unknown curve", func(c *Config) { c.FadeCurve = "exponential" }, "curve"},
		{"negative workers", func(c *Config) { c.AnalysisWorkers = -2 }, "workers"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
		{"no songs dir", func(c *Config) { c.SongsDir = "" }, "songs"},
	}
	for _, tt := range tests {
		cfg := valid()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: error = %v, want it to mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.LogLevel
	}{
		{"error", logging.LogLevelError},
		{"WARN", logging.LogLevelWarn},
		{" info ", logging.LogLevelInfo},
		{"trace", logging.LogLevelTrace},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("ParseLogLevel(verbose) should fail")
	}
}

func TestLoggerFactoryLevel(t *testing.T) {
	var buf bytes.Buffer
	lf := Config{LogLevel: "warn"}.LoggerFactory(&buf)
	log := lf.NewLogger("mix")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}
