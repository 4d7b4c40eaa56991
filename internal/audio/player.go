package audio

import (
	"context"
	"sync"
	"time"
)

// Player outputs a rendered mix as 20ms PCM frames at real-time rate.
type Player struct {
	frameCh chan []int16
	tracks  []TrackInfo

	mu       sync.RWMutex
	position time.Duration
	duration time.Duration
}

// NewPlayer creates a player. tracks is the tracklist reported by Status.
func NewPlayer(tracks []TrackInfo) *Player {
	return &Player{
		frameCh: make(chan []int16, 100),
		tracks:  tracks,
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Player) Frames() <-chan []int16 {
	return p.frameCh
}

// Status returns the track under the playhead and the playback position.
func (p *Player) Status() (track TrackInfo, position, duration time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trackAt(p.position), p.position, p.duration
}

// Tracks returns the tracklist.
func (p *Player) Tracks() []TrackInfo {
	return p.tracks
}

func (p *Player) trackAt(pos time.Duration) TrackInfo {
	var cur TrackInfo
	for _, t := range p.tracks {
		if t.Start > pos {
			break
		}
		cur = t
	}
	return cur
}

// Run plays b once. Blocks until the mix ends or ctx is cancelled, then
// closes the frame channel.
func (p *Player) Run(ctx context.Context, b *Buffer) {
	defer close(p.frameCh)

	p.mu.Lock()
	p.duration = b.Duration()
	p.position = 0
	p.mu.Unlock()

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	frameSamples := FrameSize * b.Channels
	for i := 0; i*frameSamples < len(b.Samples); i++ {
		start := i * frameSamples
		frame := make([]int16, frameSamples)
		copy(frame, b.Samples[start:min(start+frameSamples, len(b.Samples))])

		if !p.sendFrame(ctx, ticker, frame) {
			return
		}
		p.mu.Lock()
		p.position = time.Duration(i+1) * FrameDuration
		p.mu.Unlock()
	}
}

// sendFrame waits for the ticker then sends a frame. Returns false on cancel.
func (p *Player) sendFrame(ctx context.Context, ticker *time.Ticker, frame []int16) bool {
	select {
	case <-ctx.Done():
		return false
	case <-ticker.C:
	}

	select {
	case p.frameCh <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}
