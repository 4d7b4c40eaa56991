package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
)

// listenerBuffer holds ~3 seconds of 20ms frames per listener.
const listenerBuffer = 150

// Broadcaster fans out PCM frames of the playing mix to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}

	ended     chan struct{}
	endOnce   sync.Once
	delivered atomic.Int64
	log       logging.LeveledLogger
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C       chan []int16 // buffered channel of 20ms PCM frames
	done    chan struct{}
	dropped atomic.Int64
}

// Dropped returns how many frames this listener missed by reading too slowly.
func (l *Listener) Dropped() int64 {
	return l.dropped.Load()
}

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster(lf logging.LoggerFactory) *Broadcaster {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
		ended:     make(chan struct{}),
		log:       lf.NewLogger("stream"),
	}
}

// Subscribe registers a new listener. Returns a Listener that receives frames.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
	if n := l.Dropped(); n > 0 {
		b.log.Debugf("listener dropped %d frames", n)
	}
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Frames returns how many frames have been read from the source.
func (b *Broadcaster) Frames() int64 {
	return b.delivered.Load()
}

// Ended is closed once Run returns: the mix finished or playback was stopped.
func (b *Broadcaster) Ended() <-chan struct{} {
	return b.ended
}

// Run reads frames from source and fans out to all listeners.
// Slow listeners get frames dropped rather than blocking the broadcast.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	defer b.endOnce.Do(func() { close(b.ended) })
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				b.log.Infof("mix finished after %d frames", b.delivered.Load())
				return
			}
			b.delivered.Add(1)
			b.mu.RLock()
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					l.dropped.Add(1)
				}
			}
			b.mu.RUnlock()
		}
	}
}
