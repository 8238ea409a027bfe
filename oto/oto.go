// Package oto plays an acrn.AudioSource on the default output device.
package oto

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/generalfuzz/acrn"
)

type (
	// Context is an open output device. Only one Context may exist per
	// process.
	Context struct {
		ctx *oto.Context
	}

	// Output streams an AudioSource to the device until closed or until the
	// source fails.
	Output struct {
		player *oto.Player
		reader *sourceReader
		once   sync.Once
	}

	sourceReader struct {
		source acrn.AudioSource
		buffer acrn.AudioBuffer
		done   chan struct{}
		once   sync.Once
		err    error
	}
)

const bufferFrames = 1024

// NewContext opens the default output device as stereo float32 at the given
// sample rate and waits until it is ready.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx}, nil
}

// Play starts pulling audio from source on the device's goroutine.
func (c *Context) Play(source acrn.AudioSource) acrn.CloserWaiter {
	r := &sourceReader{source: source, done: make(chan struct{})}
	o := &Output{player: c.ctx.NewPlayer(r), reader: r}
	o.player.Play()
	return o
}

// Close suspends the device. oto keeps the underlying device open until the
// process exits.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Close stops the output and returns the error that ended it, if any.
func (o *Output) Close() error {
	var err error
	o.once.Do(func() {
		err = o.player.Close()
		o.reader.finish(nil)
	})
	if err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return o.reader.err
}

// Wait blocks until the output is closed or the source has failed.
func (o *Output) Wait() {
	<-o.reader.done
}

func (r *sourceReader) Read(p []byte) (int, error) {
	frames := min(len(p)/frameBytes, bufferFrames)
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	if cap(r.buffer) < frames {
		r.buffer = make(acrn.AudioBuffer, frames)
	}
	buf := r.buffer[:frames]
	if err := r.source.ReadAudio(buf); err != nil {
		err = fmt.Errorf("audio source failed: %w", err)
		r.finish(err)
		return 0, err
	}
	return len(EncodeFloat32LE(p[:0], buf)), nil
}

func (r *sourceReader) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}
