package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	envelopeRate = 100 // RMS envelope frames per second
	minBPM        = 60.0
	maxBPM        = 180.0
)

// Tempo estimates beats per minute from the autocorrelation of an onset
// envelope (positive changes in frame RMS). It returns 0 when the signal is
// too short or has no rhythmic content.
func Tempo(samples []float64, sampleRate int) float64 {
	hop := sampleRate / envelopeRate
	if hop <= 0 || len(samples) < hop*4 {
		return 0
	}

	env := make([]float64, len(samples)/hop)
	for i := range env {
		frame := samples[i*hop : (i+1)*hop]
		env[i] = math.Sqrt(floats.Dot(frame, frame) / float64(hop))
	}

	onset := make([]float64, len(env))
	for i := 1; i < len(env); i++ {
		onset[i] = max(0, env[i]-env[i-1])
	}
	mean, std := stat.MeanStdDev(onset, nil)
	if std < 1e-9 || math.IsNaN(std) {
		return 0
	}
	floats.AddConst(-mean, onset)

	fps := float64(sampleRate) / float64(hop)
	minLag := int(math.Floor(fps * 60 / maxBPM))
	maxLag := int(math.Ceil(fps * 60 / minBPM))
	if maxLag >= len(onset) {
		maxLag = len(onset) - 1
	}

	bestLag, best := 0, math.Inf(-1)
	for lag := max(minLag, 1); lag <= maxLag; lag++ {
		if r := floats.Dot(onset[:len(onset)-lag], onset[lag:]); r > best {
			bestLag, best = lag, r
		}
	}
	if bestLag == 0 || best <= 0 {
		return 0
	}
	return 60 * fps / float64(bestLag)
}
