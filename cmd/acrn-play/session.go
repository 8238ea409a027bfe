package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/generalfuzz/acrn/engine"
	"github.com/generalfuzz/acrn/player"
)

// session is the loop state of acrn-play. Its methods run on the goroutine
// owning the player.
type session struct {
	player *player.Player
	engine *engine.Engine
	status *statusPrinter
	midi   player.MIDIContext
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
}

// event applies a player event and prints the new status if it succeeded.
// Engine errors end the playback session but not the program.
func (s *session) event(e player.Event) bool {
	if err := s.player.Handle(e); err != nil {
		s.logger.Error("player event failed", "event", fmt.Sprintf("%T", e), "err", err)
		return false
	}
	s.printStatus()
	return true
}

// command runs one line of input. It returns false when the user quits.
func (s *session) command(line string) bool {
	c, err := parseCommand(line)
	if err != nil {
		fmt.Fprintln(s.errOut, err)
		return true
	}
	switch c.kind {
	case cmdEvent:
		s.event(c.event)
	case cmdStatus:
		s.printStatus()
	case cmdInputs:
		s.listInputs()
	case cmdHelp:
		fmt.Fprintln(s.out, helpText)
	case cmdQuit:
		return false
	}
	return true
}

func (s *session) printStatus() {
	if err := s.status.Print(s.player.State(), s.engine.Peak()); err != nil {
		s.logger.Error("could not print status", "err", err)
	}
}

func (s *session) listInputs() {
	inputs, err := s.midi.Inputs()
	if err != nil {
		fmt.Fprintln(s.errOut, err)
		return
	}
	if len(inputs) == 0 {
		fmt.Fprintln(s.out, "no MIDI inputs")
	}
	for _, name := range inputs {
		fmt.Fprintln(s.out, name)
	}
}

func (s *session) quit() {
	if err := s.player.Close(); err != nil {
		s.logger.Error("could not stop playback", "err", err)
	}
}
