//go:build cgo

package cmd

import (
	"github.com/generalfuzz/acrn/gomidi"
	"github.com/generalfuzz/acrn/player"
)

func NewMidiContext(broker *player.Broker, cfg player.Config) player.MIDIContext {
	return gomidi.NewContext(gomidi.Listener{Decoder: gomidi.NewDecoder(cfg), Events: broker.Events})
}
