package autodj

import (
	"fmt"
	"strconv"
	"strings"
)

// PitchClass is a position on the chromatic circle, C = 0 through B = 11.
type PitchClass int

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (p PitchClass) String() string {
	if !p.Valid() {
		return "?"
	}
	return pitchNames[p]
}

// Valid reports whether p is in 0..11.
func (p PitchClass) Valid() bool {
	return p >= C && p <= B
}

// Transpose moves p by semitones around the circle.
func (p PitchClass) Transpose(semitones int) PitchClass {
	return PitchClass(((int(p)+semitones)%12 + 12) % 12)
}

// Mode is the major/minor quality of a key.
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	switch m {
	case Major:
		return "maj"
	case Minor:
		return "min"
	}
	return "?"
}

// Camelot is a position on the Camelot wheel: Number 1-12 and Letter 'A'
// (minor) or 'B' (major). The zero value is Unknown.
type Camelot struct {
	Number int
	Letter byte
}

// Unknown marks a key that could not be determined.
var Unknown = Camelot{}

// camelotWheel is indexed [mode][tonic].
var camelotWheel = [2][12]Camelot{
	Major: {
		C: {8, 'B'}, CSharp: {3, 'B'}, D: {10, 'B'}, DSharp: {5, 'B'},
		E: {12, 'B'}, F: {7, 'B'}, FSharp: {2, 'B'}, G: {9, 'B'},
		GSharp: {4, 'B'}, A: {11, 'B'}, ASharp: {6, 'B'}, B: {1, 'B'},
	},
	Minor: {
		C: {5, 'A'}, CSharp: {12, 'A'}, D: {7, 'A'}, DSharp: {2, 'A'},
		E: {9, 'A'}, F: {4, 'A'}, FSharp: {11, 'A'}, G: {6, 'A'},
		GSharp: {1, 'A'}, A: {8, 'A'}, ASharp: {3, 'A'}, B: {10, 'A'},
	},
}

// CamelotFor returns the wheel position of a key, or Unknown for
// out-of-range input.
func CamelotFor(tonic PitchClass, mode Mode) Camelot {
	if !tonic.Valid() || (mode != Major && mode != Minor) {
		return Unknown
	}
	return camelotWheel[mode][tonic]
}

// Valid reports whether c is one of the 24 wheel positions.
func (c Camelot) Valid() bool {
	return c.Number >= 1 && c.Number <= 12 && (c.Letter == 'A' || c.Letter == 'B')
}

func (c Camelot) String() string {
	if !c.Valid() {
		return "Unknown"
	}
	return strconv.Itoa(c.Number) + string(c.Letter)
}

// ParseCamelot parses codes like "8B" or "12a". "Unknown" parses to Unknown.
func ParseCamelot(s string) (Camelot, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "UNKNOWN" || s == "" {
		return Unknown, nil
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	c := Camelot{Number: n, Letter: s[len(s)-1]}
	if err != nil || !c.Valid() {
		return Unknown, fmt.Errorf("invalid camelot code %q", s)
	}
	return c, nil
}

func (c Camelot) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Camelot) UnmarshalText(b []byte) error {
	parsed, err := ParseCamelot(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Compatible reports whether two keys mix harmonically: the same wheel
// number (relative major/minor), or the same letter one step apart on the
// wheel, with 12 and 1 adjacent. Unknown is never compatible.
func Compatible(a, b Camelot) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	if a.Number == b.Number {
		return true
	}
	if a.Letter != b.Letter {
		return false
	}
	d := (a.Number - b.Number + 12) % 12
	return d == 1 || d == 11
}

// Neighbors returns the other wheel positions compatible with c.
func (c Camelot) Neighbors() []Camelot {
	if !c.Valid() {
		return nil
	}
	other := byte('A')
	if c.Letter == 'A' {
		other = 'B'
	}
	return []Camelot{
		{c.Number, other},
		{c.Number%12 + 1, c.Letter},
		{(c.Number+10)%12 + 1, c.Letter},
	}
}

// Codes returns all 24 wheel positions, 1A..12A then 1B..12B.
func Codes() []Camelot {
	codes := make([]Camelot, 0, 24)
	for _, l := range []byte{'A', 'B'} {
		for n := 1; n <= 12; n++ {
			codes = append(codes, Camelot{n, l})
		}
	}
	return codes
}
