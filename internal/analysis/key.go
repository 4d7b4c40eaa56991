package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/satindergrewal/smoothdj/internal/autodj"
)

// Key is an estimated musical key.
type Key struct {
	Tonic   autodj.PitchClass
	Mode    autodj.Mode
	Camelot autodj.Camelot
}

func (k Key) String() string {
	return fmt.Sprintf("%v %v (%v)", k.Tonic, k.Mode, k.Camelot)
}

// PitchEnergy sums each row of a 12 x T chromagram over time.
func PitchEnergy(chroma [][]float64) ([12]float64, error) {
	var energy [12]float64
	if len(chroma) != 12 {
		return energy, fmt.Errorf("chromagram has %d rows, want 12", len(chroma))
	}
	for p, row := range chroma {
		energy[p] = floats.Sum(row)
	}
	return energy, nil
}

// KeyFromEnergy picks the strongest pitch class as tonic (lowest index on a
// tie) and calls the key major when the major third outweighs the minor
// third. Equal thirds read as minor.
func KeyFromEnergy(energy [12]float64) Key {
	tonic := autodj.PitchClass(floats.MaxIdx(energy[:]))
	mode := autodj.Minor
	if energy[tonic.Transpose(4)] > energy[tonic.Transpose(3)] {
		mode = autodj.Major
	}
	return Key{Tonic: tonic, Mode: mode, Camelot: autodj.CamelotFor(tonic, mode)}
}

// EstimateKey runs the chromagram and key decision over mono samples.
func EstimateKey(samples []float64, sampleRate int) (Key, error) {
	chroma, err := Chroma(samples, sampleRate)
	if err != nil {
		return Key{}, fmt.Errorf("chroma: %w", err)
	}
	energy, err := PitchEnergy(chroma)
	if err != nil {
		return Key{}, err
	}
	return KeyFromEnergy(energy), nil
}
