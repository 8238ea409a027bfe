package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/generalfuzz/acrn/player"
)

type (
	commandKind int

	command struct {
		kind  commandKind
		event player.Event
	}
)

const (
	cmdNone commandKind = iota
	cmdEvent
	cmdStatus
	cmdInputs
	cmdHelp
	cmdQuit
)

const helpText = `commands:
  p          play or stop
  tone       select the continuous tone
  pattern    select the ACRN pattern
  f <hz>     set the base frequency
  v <db>     set the volume slider, e.g. v -20
  status     show the player state
  inputs     list MIDI inputs
  help       show this help
  q          quit`

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "p", "play", "stop":
		return event(player.TogglePlay{}), nil
	case "tone":
		return event(player.SelectMode{Mode: player.ToneMode}), nil
	case "pattern":
		return event(player.SelectMode{Mode: player.SequenceMode}), nil
	case "f", "freq":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: f <hz>")
		}
		return event(player.ChangeFrequencyText{Text: args[0]}), nil
	case "v", "volume":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: v <db>")
		}
		db, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return command{}, fmt.Errorf("invalid volume %q", args[0])
		}
		return event(player.ChangeVolume{Volume: db}), nil
	case "status", "s":
		return command{kind: cmdStatus}, nil
	case "inputs":
		return command{kind: cmdInputs}, nil
	case "help", "h", "?":
		return command{kind: cmdHelp}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q, type help for a list", fields[0])
}

func event(e player.Event) command {
	return command{kind: cmdEvent, event: e}
}
