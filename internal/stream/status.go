package stream

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/satindergrewal/smoothdj/internal/audio"
)

// StatusSource reports what the preview is playing.
type StatusSource interface {
	Status() (track audio.TrackInfo, position, duration time.Duration)
	Tracks() []audio.TrackInfo
}

// StatusHandler serves the current track, position and tracklist as JSON.
type StatusHandler struct {
	source StatusSource
	http   *Broadcaster
	webrtc *WebRTCHandler
}

func NewStatusHandler(src StatusSource, b *Broadcaster, rtc *WebRTCHandler) *StatusHandler {
	return &StatusHandler{source: src, http: b, webrtc: rtc}
}

type statusTrack struct {
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Key   string  `json:"key"`
	Start float64 `json:"start"`
}

func toStatusTrack(t audio.TrackInfo) statusTrack {
	return statusTrack{Title: t.Name, Path: t.Path, Key: t.Key, Start: t.Start.Seconds()}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	track, pos, dur := h.source.Status()

	tracks := h.source.Tracks()
	list := make([]statusTrack, len(tracks))
	for i, t := range tracks {
		list[i] = toStatusTrack(t)
	}

	finished := false
	select {
	case <-h.http.Ended():
		finished = true
	default:
	}

	peers := 0
	if h.webrtc != nil {
		peers = h.webrtc.PeerCount()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(map[string]any{
		"track":            toStatusTrack(track),
		"position":         pos.Seconds(),
		"duration":         dur.Seconds(),
		"finished":         finished,
		"tracks":           list,
		"http_listeners":   h.http.ListenerCount(),
		"webrtc_listeners": peers,
	})
}
