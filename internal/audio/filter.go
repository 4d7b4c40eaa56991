package audio

import "math"

// Butterworth Q for a second-order section.
const butterworthQ = 1 / math.Sqrt2

type filterKind int

const (
	lowPass filterKind = iota
	highPass
)

// biquad is one second-order IIR section using the RBJ audio EQ cookbook
// coefficients, normalized by a0. It keeps its own delay line, so one
// instance serves exactly one channel.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

func newBiquad(kind filterKind, sampleRate int, cutoff float64) *biquad {
	w0 := 2 * math.Pi * cutoff / float64(sampleRate)
	// Keep the pole away from DC and Nyquist.
	w0 = math.Max(1e-6, math.Min(w0, math.Pi*0.99))

	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * butterworthQ)
	a0 := 1 + alpha

	f := &biquad{
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
	switch kind {
	case lowPass:
		f.b0 = (1 - cosW0) / 2 / a0
		f.b1 = (1 - cosW0) / a0
		f.b2 = f.b0
	case highPass:
		f.b0 = (1 + cosW0) / 2 / a0
		f.b1 = -(1 + cosW0) / a0
		f.b2 = f.b0
	}
	return f
}

// process runs one sample through the direct form I difference equation:
// y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// LowPass returns b with content above cutoffHz attenuated (12 dB/octave).
func LowPass(b *Buffer, cutoffHz float64) *Buffer {
	return applyFilter(b, lowPass, cutoffHz)
}

// HighPass returns b with content below cutoffHz attenuated (12 dB/octave).
func HighPass(b *Buffer, cutoffHz float64) *Buffer {
	return applyFilter(b, highPass, cutoffHz)
}

func applyFilter(b *Buffer, kind filterKind, cutoff float64) *Buffer {
	sections := make([]*biquad, b.Channels)
	for ch := range sections {
		sections[ch] = newBiquad(kind, b.SampleRate, cutoff)
	}
	out := make([]int16, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = clip(sections[i%b.Channels].process(float64(s)))
	}
	return &Buffer{Samples: out, SampleRate: b.SampleRate, Channels: b.Channels}
}
