package acrn

import "math"

type (
	// Frequency is a tone frequency in Hz. The base frequency entered by the
	// user and all the derived companion tones are whole Hz.
	Frequency int

	// FrequencySet holds the four companion tones derived from a base
	// frequency, in ascending order.
	FrequencySet [4]Frequency
)

const (
	MinFrequency Frequency = 1
	MaxFrequency Frequency = 15000
)

// DeriveFrequencies returns the four companion tones that the pattern cycles
// through for the given base frequency. The coefficients are fixed protocol
// constants.
func DeriveFrequencies(base Frequency) FrequencySet {
	b := float64(base)
	return FrequencySet{
		Frequency(math.Floor(b*0.773 - 44.5)),
		Frequency(math.Floor(b*0.903 - 21.5)),
		Frequency(math.Floor(b*1.09 + 52)),
		Frequency(math.Floor(b*1.395 + 26.5)),
	}
}

// Hz returns the frequency as float64, for feeding oscillators.
func (f Frequency) Hz() float64 { return float64(f) }

// Slice returns a fresh copy of the set as a slice.
func (s FrequencySet) Slice() []Frequency {
	ret := make([]Frequency, len(s))
	copy(ret, s[:])
	return ret
}
