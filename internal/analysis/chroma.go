package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// STFT parameters for the chromagram.
const (
	ChromaWindow = 4096
	ChromaHop    = 2048

	minChromaHz = 65.0   // ~C2
	maxChromaHz = 2100.0 // ~C7
	tuningHz    = 440.0  // A4
)

// ErrNoSamples is returned when there is no audio to analyze.
var ErrNoSamples = errors.New("no samples")

// Chroma computes a 12 x T chromagram from mono samples. Row p holds the
// energy of pitch class p (C = 0) in each STFT frame, with every frame scaled
// so its loudest pitch class is 1. Input shorter than one window is
// zero-padded to a single frame.
func Chroma(samples []float64, sampleRate int) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	frames := 1
	if len(samples) > ChromaWindow {
		frames += (len(samples) - ChromaWindow) / ChromaHop
	}

	bins := pitchBins(ChromaWindow, sampleRate)
	win := window.Hann(ChromaWindow)

	chroma := make([][]float64, 12)
	for p := range chroma {
		chroma[p] = make([]float64, frames)
	}

	frame := make([]float64, ChromaWindow)
	var pcs [12]float64
	for t := 0; t < frames; t++ {
		start := t * ChromaHop
		n := copy(frame, samples[start:min(start+ChromaWindow, len(samples))])
		clear(frame[n:])
		floats.Mul(frame, win)

		spectrum := fft.FFTReal(frame)
		clear(pcs[:])
		for k, p := range bins {
			if p < 0 {
				continue
			}
			mag := cmplx.Abs(spectrum[k])
			pcs[p] += mag * mag
		}

		peak := floats.Max(pcs[:])
		if peak < 1e-10 {
			continue
		}
		for p := range pcs {
			chroma[p][t] = pcs[p] / peak
		}
	}
	return chroma, nil
}

// pitchBins maps each FFT bin below Nyquist to its pitch class, or -1 when
// the bin lies outside the analyzed range.
func pitchBins(size, sampleRate int) []int {
	bins := make([]int, size/2+1)
	res := float64(sampleRate) / float64(size)
	for k := range bins {
		f := float64(k) * res
		if f < minChromaHz || f > maxChromaHz {
			bins[k] = -1
			continue
		}
		midi := 69 + 12*math.Log2(f/tuningHz)
		bins[k] = int(math.Round(midi)) % 12
	}
	return bins
}
