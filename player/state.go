package player

import (
	"fmt"
	"math"

	"github.com/generalfuzz/acrn"
)

type (
	// Mode selects between the continuous tone and the pattern. The numeric
	// values are what gets persisted.
	Mode int

	Status int

	// State is a snapshot of the player. It is a value; the Player replaces
	// it as a whole on every transition and bumps Version.
	State struct {
		Version       uint64
		Mode          Mode
		Status        Status
		SliderEnabled bool
		ButtonLabel   string
		Frequency     acrn.Frequency
		Derived       acrn.FrequencySet
		Volume        float64 // dB, offset already applied
	}

	// Transition names the event that produced a State.
	Transition int
)

const (
	ToneMode Mode = iota
	SequenceMode
)

const (
	Stopped Status = iota
	Playing
)

const (
	Init Transition = iota
	Start
	Stop
	SwitchMode
	FrequencyChanged
	VolumeChanged
)

const (
	PlayToneText    = "Play Tone"
	StopToneText    = "Stop Tone"
	PlayPatternText = "Play Pattern"
	StopPatternText = "Stop Pattern"
)

func (m Mode) Valid() bool { return m == ToneMode || m == SequenceMode }

func (m Mode) String() string {
	switch m {
	case ToneMode:
		return "tone"
	case SequenceMode:
		return "sequence"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (s Status) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

func (t Transition) String() string {
	switch t {
	case Init:
		return "init"
	case Start:
		return "start"
	case Stop:
		return "stop"
	case SwitchMode:
		return "switch-mode"
	case FrequencyChanged:
		return "frequency-changed"
	case VolumeChanged:
		return "volume-changed"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

func (s State) IsPlaying() bool { return s.Status == Playing }

// withPlayback returns the state with mode and status replaced and the
// derived UI fields recomputed.
func (s State) withPlayback(mode Mode, status Status) State {
	s.Mode = mode
	s.Status = status
	s.SliderEnabled = !(mode == SequenceMode && status == Playing)
	s.ButtonLabel = buttonLabel(mode, status)
	return s
}

func (s State) withFrequency(f acrn.Frequency) State {
	s.Frequency = f
	s.Derived = acrn.DeriveFrequencies(f)
	return s
}

func buttonLabel(mode Mode, status Status) string {
	switch {
	case mode == SequenceMode && status == Playing:
		return StopPatternText
	case mode == SequenceMode:
		return PlayPatternText
	case status == Playing:
		return StopToneText
	}
	return PlayToneText
}

// volume is persisted in hundredths of a decibel.
func volumeToStored(v float64) int   { return int(math.Round(v * 100)) }
func volumeFromStored(v int) float64 { return float64(v) / 100 }
