// Package cmd holds the pieces shared by the acrn binaries.
package cmd

import (
	"io"
	"log/slog"

	"github.com/generalfuzz/acrn/engine"
	"github.com/generalfuzz/acrn/player"
)

// NewLogger returns a text logger writing to w, at Debug level if debug is
// set and Info otherwise.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewEngine creates an engine running at the tempo of the player config.
func NewEngine(cfg player.Config) (*engine.Engine, error) {
	ec := engine.DefaultConfig
	ec.BPM = cfg.BPM
	return engine.New(ec)
}
