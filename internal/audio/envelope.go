package audio

import "fmt"

// Curve shapes a fade's gain ramp.
type Curve int

const (
	Linear Curve = iota
	SmoothCurve
)

// ParseCurve maps a config name to a Curve.
func ParseCurve(name string) (Curve, error) {
	switch name {
	case "", "linear":
		return Linear, nil
	case "smoothstep":
		return SmoothCurve, nil
	}
	return Linear, fmt.Errorf("unknown fade curve %q", name)
}

func (c Curve) String() string {
	if c == SmoothCurve {
		return "smoothstep"
	}
	return "linear"
}

// Gain maps progress t in [0,1] to an amplitude factor in [0,1].
func (c Curve) Gain(t float64) float64 {
	if c == SmoothCurve {
		return Smoothstep(t)
	}
	return max(0, min(1, t))
}

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// FadeIn ramps the first n samples per channel from silence to full level.
// Samples past n are copied unchanged.
func FadeIn(b *Buffer, n int, c Curve) *Buffer {
	out := b.Slice(0, b.Len())
	n = min(n, out.Len())
	for i := 0; i < n; i++ {
		scale(out, i, c.Gain(float64(i)/float64(n)))
	}
	return out
}

// FadeOut ramps the last n samples per channel from full level to silence.
// Samples before the ramp are copied unchanged.
func FadeOut(b *Buffer, n int, c Curve) *Buffer {
	out := b.Slice(0, b.Len())
	n = min(n, out.Len())
	start := out.Len() - n
	for i := 0; i < n; i++ {
		scale(out, start+i, c.Gain(1-float64(i)/float64(n)))
	}
	return out
}

func scale(b *Buffer, pos int, gain float64) {
	base := pos * b.Channels
	for ch := 0; ch < b.Channels; ch++ {
		b.Samples[base+ch] = clip(float64(b.Samples[base+ch]) * gain)
	}
}
