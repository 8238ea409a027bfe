//go:build !cgo

package cmd

import "github.com/generalfuzz/acrn/player"

func NewMidiContext(broker *player.Broker, cfg player.Config) player.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return player.NullMIDIContext{}
}
