package acrn

import (
	"errors"
	"fmt"
)

type (
	// Slot is a placeholder in a BeatGrid. Its value carries no pitch; the
	// clock walks the grid one slot per beat and only the slot count matters.
	Slot int

	// BeatGrid is the timing grid of one pattern cycle.
	BeatGrid []Slot

	// PatternParams describes the shape of a pattern cycle: LoopRepeat groups
	// of four tones followed by RestLength silent beats and one restart beat.
	PatternParams struct {
		LoopRepeat int `yaml:"loopRepeat"`
		RestLength int `yaml:"restLength"`
	}
)

// TonesPerGroup is the number of tones in one group of the pattern, i.e. the
// size of a FrequencySet.
const TonesPerGroup = len(FrequencySet{})

var DefaultPatternParams = PatternParams{LoopRepeat: 4, RestLength: 4}

var ErrInvalidPattern = errors.New("invalid pattern parameters")

// GenerateBeatGrid returns loopRepeat groups of four slots followed by
// restLength+1 single slots. All slots are zero.
func GenerateBeatGrid(loopRepeat, restLength int) BeatGrid {
	n := max(loopRepeat, 0)*TonesPerGroup + max(restLength, 0) + 1
	return make(BeatGrid, n)
}

// Grid generates the beat grid for the parameters.
func (p PatternParams) Grid() BeatGrid {
	return GenerateBeatGrid(p.LoopRepeat, p.RestLength)
}

// MaxPatternLength is the number of beats in a cycle that play a tone.
func (p PatternParams) MaxPatternLength() int {
	return p.LoopRepeat * TonesPerGroup
}

// RestartThreshold is the beat count at which the cycle starts over.
func (p PatternParams) RestartThreshold() int {
	return p.MaxPatternLength() + p.RestLength
}

// GridLength is the number of slots in one cycle, including the restart beat.
func (p PatternParams) GridLength() int {
	return p.RestartThreshold() + 1
}

func (p PatternParams) Validate() error {
	if p.LoopRepeat < 1 {
		return fmt.Errorf("%w: loop repeat %d, must be at least 1", ErrInvalidPattern, p.LoopRepeat)
	}
	if p.RestLength < 0 {
		return fmt.Errorf("%w: rest length %d, must not be negative", ErrInvalidPattern, p.RestLength)
	}
	return nil
}
