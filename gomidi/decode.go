// Package gomidi connects MIDI controllers to the player.
package gomidi

import (
	"github.com/generalfuzz/acrn/player"
	"gitlab.com/gomidi/midi/v2"
)

type (
	// Decoder turns MIDI messages into player events according to a
	// mapping.
	Decoder struct {
		Mapping              player.MIDIMapping
		MinVolume, MaxVolume float64
	}

	// Listener decodes incoming messages and hands the events to a channel
	// without blocking; events are dropped while the channel is full.
	Listener struct {
		Decoder
		Events chan<- player.Event
	}
)

// pedal values at or above this are "down"
const pedalDown = 64

func NewDecoder(cfg player.Config) Decoder {
	return Decoder{Mapping: cfg.MIDI, MinVolume: cfg.MinVolume, MaxVolume: cfg.MaxVolume}
}

// Decode returns the event for msg, or false if the message is not mapped.
func (d Decoder) Decode(msg midi.Message) (player.Event, bool) {
	var channel, key, velocity, controller, value, program uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if !d.Mapping.Accepts(channel) || !d.Mapping.NoteFrequency || velocity == 0 {
			return nil, false
		}
		return player.SlideFrequency{Value: player.NoteFrequency(key)}, true
	case msg.GetControlChange(&channel, &controller, &value):
		if !d.Mapping.Accepts(channel) {
			return nil, false
		}
		switch int(controller) {
		case d.Mapping.PlayToggleController:
			if value >= pedalDown {
				return player.TogglePlay{}, true
			}
		case d.Mapping.VolumeController:
			return player.SlideVolume{Value: player.ControllerVolume(value, d.MinVolume, d.MaxVolume)}, true
		}
	case msg.GetProgramChange(&channel, &program):
		if !d.Mapping.Accepts(channel) {
			return nil, false
		}
		if mode, ok := d.Mapping.Mode(program); ok {
			return player.SelectMode{Mode: mode}, true
		}
	}
	return nil, false
}

// HandleMessage has the signature of a midi.ListenTo callback.
func (l Listener) HandleMessage(msg midi.Message, timestampms int32) {
	if e, ok := l.Decode(msg); ok {
		player.TrySend(l.Events, e)
	}
}
