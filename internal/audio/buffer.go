package audio

import "fmt"

// Slice copies samples [start, end) per channel. Bounds are clamped.
func (b *Buffer) Slice(start, end int) *Buffer {
	n := b.Len()
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	out := make([]int16, (end-start)*b.Channels)
	copy(out, b.Samples[start*b.Channels:end*b.Channels])
	return &Buffer{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}
}

// Head returns the first n samples per channel.
func (b *Buffer) Head(n int) *Buffer {
	return b.Slice(0, n)
}

// Tail returns the last n samples per channel.
func (b *Buffer) Tail(n int) *Buffer {
	return b.Slice(b.Len()-n, b.Len())
}

// Concat joins buffers end to end. All parts must share one format.
func Concat(parts ...*Buffer) (*Buffer, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("concat: no buffers")
	}
	total := 0
	for _, p := range parts {
		if !p.SameFormat(parts[0]) {
			return nil, fmt.Errorf("concat %s with %s: %w", parts[0], p, ErrFormatMismatch)
		}
		total += len(p.Samples)
	}
	out := make([]int16, 0, total)
	for _, p := range parts {
		out = append(out, p.Samples...)
	}
	return &Buffer{Samples: out, SampleRate: parts[0].SampleRate, Channels: parts[0].Channels}, nil
}

// Overlay mixes over onto base starting at the first sample. The result keeps
// base's length; any part of over that runs past the end is dropped.
func Overlay(base, over *Buffer) (*Buffer, error) {
	if !base.SameFormat(over) {
		return nil, fmt.Errorf("overlay %s with %s: %w", base, over, ErrFormatMismatch)
	}
	out := make([]int16, len(base.Samples))
	copy(out, base.Samples)
	n := min(len(out), len(over.Samples))
	for i := 0; i < n; i++ {
		out[i] = clip(float64(out[i]) + float64(over.Samples[i]))
	}
	return &Buffer{Samples: out, SampleRate: base.SampleRate, Channels: base.Channels}, nil
}

// clip rounds to the nearest integer and saturates to the int16 range.
func clip(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	if v < 0 {
		return int16(v - 0.5)
	}
	return int16(v + 0.5)
}
