package audio

import (
	"fmt"
	"time"

	"github.com/pion/logging"
)

// Crossfader blends an outgoing buffer into an incoming one with a two-band
// transition: treble crossfades across the whole window while bass is handed
// off at the midpoint, so the low end of both tracks never plays at once.
type Crossfader struct {
	duration    time.Duration
	crossoverHz float64
	curve       Curve
	log         logging.LeveledLogger
}

// Transition describes the window a Mix call actually used.
type Transition struct {
	Requested int // samples per channel asked for
	Actual    int // samples per channel used
}

// Shrunk reports whether a short track forced a shorter window.
func (t Transition) Shrunk() bool {
	return t.Actual < t.Requested
}

// NewCrossfader creates a crossfader with the given window and crossover frequency.
func NewCrossfader(duration time.Duration, crossoverHz float64, curve Curve, lf logging.LoggerFactory) *Crossfader {
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Crossfader{
		duration:    duration,
		crossoverHz: crossoverHz,
		curve:       curve,
		log:         lf.NewLogger("crossfade"),
	}
}

// Duration returns the requested transition window.
func (c *Crossfader) Duration() time.Duration {
	return c.duration
}

// Mix returns outgoing followed by incoming with the transition window overlapped.
// The result is len(outgoing) + len(incoming) - Transition.Actual samples long.
func (c *Crossfader) Mix(outgoing, incoming *Buffer) (*Buffer, Transition, error) {
	if !outgoing.SameFormat(incoming) {
		return nil, Transition{}, fmt.Errorf("crossfade %s into %s: %w", outgoing, incoming, ErrFormatMismatch)
	}

	requested := outgoing.SamplesFor(c.duration)
	actual := min(requested, outgoing.Len(), incoming.Len())
	tr := Transition{Requested: requested, Actual: actual}
	if tr.Shrunk() {
		c.log.Warnf("A track is shorter than the desired transition. Using %v instead of %v.",
			time.Duration(actual)*time.Second/time.Duration(outgoing.SampleRate), c.duration)
	}

	transitionOut := outgoing.Tail(actual)
	transitionIn := incoming.Head(actual)

	outLow := LowPass(transitionOut, c.crossoverHz)
	outHigh := HighPass(transitionOut, c.crossoverHz)
	inLow := LowPass(transitionIn, c.crossoverHz)
	inHigh := HighPass(transitionIn, c.crossoverHz)

	// Treble: both tracks audible, amplitudes crossing over the full window.
	high, err := Overlay(FadeOut(outHigh, actual, c.curve), FadeIn(inHigh, actual, c.curve))
	if err != nil {
		return nil, tr, err
	}

	// Bass: sequential handoff at the midpoint, never overlapped.
	half := actual / 2
	low, err := Concat(
		FadeOut(outLow.Head(half), half, c.curve),
		FadeIn(inLow.Slice(half, actual), half, c.curve),
	)
	if err != nil {
		return nil, tr, err
	}

	transition, err := Overlay(high, low)
	if err != nil {
		return nil, tr, err
	}

	mixed, err := Concat(
		outgoing.Head(outgoing.Len()-actual),
		transition,
		incoming.Slice(actual, incoming.Len()),
	)
	if err != nil {
		return nil, tr, err
	}
	return mixed, tr, nil
}
