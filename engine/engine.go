// Package engine is a software audio engine: a beat clock with looping
// sequences, a continuous oscillator, a polyphonic synth voice and a master
// gain with ramps, mixed into stereo buffers.
package engine

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/effects/dynamics"
	"github.com/generalfuzz/acrn"
	"github.com/viterin/vek/vek32"
)

type (
	Config struct {
		SampleRate int      `yaml:"sampleRate"`
		BPM        float64  `yaml:"bpm"`
		Voices     int      `yaml:"voices"`
		Envelope   Envelope `yaml:"envelope"`
		// LimiterThreshold is the output ceiling in dBFS.
		LimiterThreshold float64 `yaml:"limiterThreshold"`
	}

	// Engine renders the mix of its oscillator and synth through the master
	// gain and a safety limiter. The control methods are safe to call from
	// any goroutine; ReadAudio must be called from one goroutine only.
	Engine struct {
		cfg       Config
		transport *Transport
		osc       *Oscillator
		synth     *Synth
		master    *Master
		meter     *Meter
		limiter   *dynamics.Compressor

		mix, voice, curve []float32
		limited           []float64
	}
)

// maxRenderRuns bounds how many times ReadAudio loops trying to fill a
// buffer; more than this means the beat length has collapsed.
const maxRenderRuns = 10000

var DefaultConfig = Config{
	SampleRate:       44100,
	BPM:              360,
	Voices:           6,
	Envelope:         Envelope{Attack: 0.1, Decay: 0, Sustain: 0.07, Release: 0.08},
	LimiterThreshold: -0.3,
}

func New(cfg Config) (*Engine, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	limiter, err := newLimiter(float64(cfg.SampleRate), cfg.LimiterThreshold)
	if err != nil {
		return nil, fmt.Errorf("cannot create limiter: %w", err)
	}
	return &Engine{
		cfg:       cfg,
		transport: newTransport(cfg.SampleRate, cfg.BPM),
		osc:       newOscillator(cfg.SampleRate),
		synth:     newSynth(cfg.SampleRate, cfg.Voices, cfg.Envelope),
		master:    newMaster(cfg.SampleRate),
		meter:     newMeter(cfg.SampleRate),
		limiter:   limiter,
	}, nil
}

// newLimiter configures a compressor as a brickwall-style peak limiter.
func newLimiter(sampleRate, threshold float64) (*dynamics.Compressor, error) {
	c, err := dynamics.NewCompressor(sampleRate)
	if err != nil {
		return nil, err
	}
	for _, set := range []func() error{
		func() error { return c.SetRatio(100) },
		func() error { return c.SetAttack(0.1) },
		func() error { return c.SetKnee(0) },
		func() error { return c.SetAutoMakeup(false) },
		func() error { return c.SetMakeupGain(0) },
		func() error { return c.SetThreshold(threshold) },
	} {
		if err := set(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

func (e *Engine) Transport() acrn.Transport   { return e.transport }
func (e *Engine) Oscillator() acrn.Oscillator { return e.osc }
func (e *Engine) Voice() acrn.Voice           { return e.synth }
func (e *Engine) Master() acrn.MasterGain     { return e.master }
func (e *Engine) Clock() acrn.Clock           { return e.transport }

// The concrete components, for inspection.
func (e *Engine) Beats() *Transport   { return e.transport }
func (e *Engine) Tone() *Oscillator   { return e.osc }
func (e *Engine) Synth() *Synth       { return e.synth }
func (e *Engine) MasterGain() *Master { return e.master }

// Level returns the metered output level.
func (e *Engine) Level() Volume { return e.meter.Level() }

// Peak returns the peak level of the last rendered buffer.
func (e *Engine) Peak() Volume { return e.meter.Peak() }

// ReadAudio fills the buffer. Sequence ticks that fall inside the buffer are
// delivered exactly at their frame, before that frame is rendered.
func (e *Engine) ReadAudio(buffer acrn.AudioBuffer) error {
	out := buffer
	for i := 0; i < maxRenderRuns && len(buffer) > 0; i++ {
		n := e.transport.advance(len(buffer))
		e.render(buffer[:n])
		buffer = buffer[n:]
	}
	if len(buffer) > 0 {
		return fmt.Errorf("%w after %d runs (%d frames left)", errTooManyRenderRuns, maxRenderRuns, len(buffer))
	}
	if err := e.meter.Update(out); err != nil {
		return fmt.Errorf("engine output: %w", err)
	}
	return nil
}

func (e *Engine) render(buffer acrn.AudioBuffer) {
	n := len(buffer)
	if n == 0 {
		return
	}
	e.grow(n)
	mix, voice, curve, limited := e.mix[:n], e.voice[:n], e.curve[:n], e.limited[:n]
	e.osc.render(mix)
	e.synth.render(voice)
	vek32.Add_Inplace(mix, voice)
	e.master.render(curve)
	vek32.Mul_Inplace(mix, curve)
	for i, v := range mix {
		limited[i] = float64(v)
	}
	e.limiter.ProcessInPlace(limited)
	for i, v := range limited {
		buffer[i] = [2]float32{float32(v), float32(v)}
	}
}

func (e *Engine) grow(n int) {
	if cap(e.mix) < n {
		e.mix = make([]float32, n)
		e.voice = make([]float32, n)
		e.curve = make([]float32, n)
		e.limited = make([]float64, n)
	}
	e.mix, e.voice, e.curve, e.limited = e.mix[:n], e.voice[:n], e.curve[:n], e.limited[:n]
}
