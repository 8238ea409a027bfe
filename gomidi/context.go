//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// RTMIDIContext listens to one MIDI input at a time through rtmidi.
type RTMIDIContext struct {
	listener  Listener
	driver    *rtmididrv.Driver
	currentIn drivers.In
	stop      func()
}

// NewContext opens the rtmidi driver. If that fails, the context has no
// inputs and Open returns an error.
func NewContext(listener Listener) *RTMIDIContext {
	c := &RTMIDIContext{listener: listener}
	// there's not much we can do if this fails, so just use c.driver = nil to
	// indicate no driver available
	c.driver, _ = rtmididrv.New()
	return c
}

func (c *RTMIDIContext) Inputs() ([]string, error) {
	if c.driver == nil {
		return nil, errors.New("no driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

func (c *RTMIDIContext) Open(prefix string) error {
	if c.driver == nil {
		return errors.New("no driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("cannot list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if strings.HasPrefix(in.String(), prefix) {
			return c.open(in)
		}
	}
	return fmt.Errorf("could not find a MIDI input starting with %q", prefix)
}

func (c *RTMIDIContext) open(in drivers.In) error {
	c.closeInput()
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(in, c.listener.HandleMessage)
	if err != nil {
		in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn, c.stop = in, stop
	return nil
}

func (c *RTMIDIContext) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeInput()
	c.driver.Close()
}
