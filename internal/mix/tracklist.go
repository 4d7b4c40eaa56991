package mix

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Tracklist is the JSON sidecar written next to a finished mix.
type Tracklist struct {
	RunID     string           `json:"run_id"`
	CreatedAt time.Time        `json:"created_at"`
	Output    string           `json:"output"`
	Duration  float64          `json:"duration_seconds"`
	Tracks    []TracklistEntry `json:"tracks"`
	Skipped   []SkippedEntry   `json:"skipped"`
}

type TracklistEntry struct {
	Position int     `json:"position"`
	Title    string  `json:"title"`
	Path     string  `json:"path"`
	Key      string  `json:"key"`
	Tempo    float64 `json:"tempo"`
	Start    float64 `json:"start_seconds"`
}

type SkippedEntry struct {
	Path   string `json:"path"`
	Phase  Phase  `json:"phase"`
	Reason string `json:"reason"`
}

// Tracklist summarizes the report.
func (r *Report) Tracklist() Tracklist {
	tl := Tracklist{
		RunID:     r.RunID.String(),
		CreatedAt: r.CreatedAt,
		Output:    r.Output,
		Duration:  r.Duration().Seconds(),
		Tracks:    make([]TracklistEntry, len(r.Mixed)),
		Skipped:   make([]SkippedEntry, len(r.Skipped)),
	}
	for i, e := range r.Mixed {
		tl.Tracks[i] = TracklistEntry{
			Position: i + 1,
			Title:    e.Track.Title,
			Path:     e.Track.Path,
			Key:      e.Track.Key.String(),
			Tempo:    e.Track.Tempo,
			Start:    e.Start.Seconds(),
		}
	}
	for i, s := range r.Skipped {
		tl.Skipped[i] = SkippedEntry{Path: s.Path, Phase: s.Phase, Reason: s.Err.Error()}
	}
	return tl
}

// WriteTracklist writes the report's tracklist as indented JSON.
func WriteTracklist(path string, r *Report) error {
	data, err := json.MarshalIndent(r.Tracklist(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write tracklist: %w", err)
	}
	return nil
}
