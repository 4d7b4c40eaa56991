package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/satindergrewal/smoothdj/internal/audio"
)

type fakeStatus struct {
	track    audio.TrackInfo
	pos, dur time.Duration
	tracks   []audio.TrackInfo
}

func (f fakeStatus) Status() (audio.TrackInfo, time.Duration, time.Duration) {
	return f.track, f.pos, f.dur
}

func (f fakeStatus) Tracks() []audio.TrackInfo { return f.tracks }

func TestStatusHandler(t *testing.T) {
	tracks := []audio.TrackInfo{
		{Path: "a.mp3", Name: "Artist - First", Key: "8B"},
		{Path: "b.mp3", Name: "Second", Key: "9B", Start: 170 * time.Second},
	}
	b := newTestBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	h := NewStatusHandler(fakeStatus{track: tracks[1], pos: 3 * time.Minute, dur: 6 * time.Minute, tracks: tracks}, b, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rr.Code)
	}
	var got struct {
		Track struct {
			Title string  `json:"title"`
			Key   string  `json:"key"`
			Start float64 `json:"start"`
		} `json:"track"`
		Position      float64 `json:"position"`
		Duration      float64 `json:"duration"`
		Finished      bool    `json:"finished"`
		Tracks        []any   `json:"tracks"`
		HTTPListeners int     `json:"http_listeners"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Track.Title != "Second" || got.Track.Key != "9B" || got.Track.Start != 170 {
		t.Errorf("track = %+v, want Second/9B at 170s", got.Track)
	}
	if got.Position != 180 || got.Duration != 360 {
		t.Errorf("position/duration = %v/%v, want 180/360", got.Position, got.Duration)
	}
	if got.Finished {
		t.Error("finished = true before the mix ended")
	}
	if len(got.Tracks) != 2 {
		t.Errorf("tracks = %d, want 2", len(got.Tracks))
	}
	if got.HTTPListeners != 1 {
		t.Errorf("http_listeners = %d, want 1", got.HTTPListeners)
	}
}

func TestStatusHandlerAfterMixEnds(t *testing.T) {
	b := newTestBroadcaster()
	source := make(chan []int16)
	close(source)
	b.Run(context.Background(), source)

	h := NewStatusHandler(fakeStatus{}, b, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if !strings.Contains(rr.Body.String(), `"finished":true`) {
		t.Errorf("body = %s, want finished:true", rr.Body.String())
	}
}

func TestHTTPHandlerGoneAfterMixEnds(t *testing.T) {
	b := newTestBroadcaster()
	source := make(chan []int16)
	close(source)
	b.Run(context.Background(), source)

	h := NewHTTPHandler(b, "ffmpeg", "192k", testLoggerFactory(&bytes.Buffer{}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if rr.Code != http.StatusGone {
		t.Errorf("status code = %d, want 410", rr.Code)
	}
}

func TestHTTPHandlerCommand(t *testing.T) {
	h := NewHTTPHandler(newTestBroadcaster(), "/opt/ffmpeg", "128k", testLoggerFactory(&bytes.Buffer{}))
	cmd := h.command(context.Background())

	if cmd.Path != "/opt/ffmpeg" {
		t.Errorf("ffmpeg path = %q, want /opt/ffmpeg", cmd.Path)
	}
	args := strings.Join(cmd.Args, " ")
	for _, want := range []string{"-ar 48000", "-ac 2", "-b:a 128k", "-f mp3"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestWebRTCHandlerMethods(t *testing.T) {
	h := NewWebRTCHandler(newTestBroadcaster(), 128000, testLoggerFactory(&bytes.Buffer{}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/offer", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("OPTIONS code = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Allow-Methods = %q, want POST", got)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/offer", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET code = %d, want 405", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader("not json")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad offer code = %d, want 400", rr.Code)
	}

	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d, want 0", h.PeerCount())
	}
}
