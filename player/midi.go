package player

import (
	"errors"
	"math"
)

// MIDIMapping tells how MIDI input controls the player.
type MIDIMapping struct {
	// Channel is the 0-based channel to listen to; -1 accepts every channel.
	Channel int `yaml:"channel"`
	// Pressing the pedal on this controller toggles playback.
	PlayToggleController int `yaml:"playToggleController"`
	// This controller sweeps the volume slider over its range.
	VolumeController int `yaml:"volumeController"`
	ToneProgram      int `yaml:"toneProgram"`
	PatternProgram   int `yaml:"patternProgram"`
	// NoteFrequency moves the frequency slider to the pitch of a played
	// note.
	NoteFrequency bool `yaml:"noteFrequency"`
}

// Accepts tells if messages on the 0-based channel ch are listened to.
func (m MIDIMapping) Accepts(ch uint8) bool {
	return m.Channel < 0 || int(ch) == m.Channel
}

// Mode returns the player mode selected by a program change.
func (m MIDIMapping) Mode(program uint8) (Mode, bool) {
	switch int(program) {
	case m.ToneProgram:
		return ToneMode, true
	case m.PatternProgram:
		return SequenceMode, true
	}
	return 0, false
}

// NoteFrequency is the equal-tempered pitch of a MIDI note with A4 (note 69)
// at 440 Hz, rounded to whole hertz.
func NoteFrequency(note uint8) int {
	return int(math.Round(440 * math.Pow(2, (float64(note)-69)/12)))
}

// ControllerVolume maps a 7-bit controller value linearly onto the volume
// range, in whole decibels.
func ControllerVolume(value uint8, minVolume, maxVolume float64) int {
	return int(math.Round(minVolume + float64(min(value, 127))/127*(maxVolume-minVolume)))
}

type (
	// MIDIContext is an input that turns MIDI messages into player events.
	MIDIContext interface {
		Inputs() ([]string, error)
		// Open listens to the first input whose name starts with prefix,
		// closing the one currently open. An empty prefix takes the first
		// input.
		Open(prefix string) error
		Close()
	}

	NullMIDIContext struct{}
)

var ErrNoMIDI = errors.New("MIDI input is not available")

func (NullMIDIContext) Inputs() ([]string, error) { return nil, nil }
func (NullMIDIContext) Open(string) error         { return ErrNoMIDI }
func (NullMIDIContext) Close()                    {}
