package audio

import (
	"errors"
	"fmt"
	"time"
)

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// ErrFormatMismatch is returned when two buffers with different sample rates
// or channel counts are combined.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Buffer is interleaved signed 16-bit PCM. Lengths and offsets are counted
// in samples per channel; Samples holds Len()*Channels values.
//
// Operations never modify their inputs and always return a fresh Buffer.
type Buffer struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// NewBuffer wraps interleaved samples. A trailing partial sample group is dropped.
func NewBuffer(samples []int16, sampleRate, channels int) *Buffer {
	if channels < 1 {
		channels = 1
	}
	if extra := len(samples) % channels; extra != 0 {
		samples = samples[:len(samples)-extra]
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Silence returns a zeroed buffer lasting d.
func Silence(d time.Duration, sampleRate, channels int) *Buffer {
	b := &Buffer{SampleRate: sampleRate, Channels: channels}
	b.Samples = make([]int16, b.SamplesFor(d)*channels)
	return b
}

// Len returns the number of samples per channel.
func (b *Buffer) Len() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}

// SamplesFor converts a duration to a per-channel sample count at the buffer's rate.
func (b *Buffer) SamplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(b.SampleRate) / int64(time.Second))
}

// SameFormat reports whether o can be mixed or joined with b.
func (b *Buffer) SameFormat(o *Buffer) bool {
	return b.SampleRate == o.SampleRate && b.Channels == o.Channels
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%v @ %dHz x%d", b.Duration(), b.SampleRate, b.Channels)
}

// TrackInfo identifies a track handed to the player and preview server.
type TrackInfo struct {
	Path  string
	Name  string
	Key   string
	Start time.Duration // offset of the track's entry into the mix
}
