// Package player implements the ACRN player: the state machine that turns
// user events into transport, oscillator and pattern actions on an audio
// engine and persists the user's settings.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/generalfuzz/acrn"
	"github.com/generalfuzz/acrn/store"
)

type (
	// Player owns the PlayerState. It is not safe for concurrent use: a
	// single goroutine should own it and receive events from others through
	// a Broker.
	Player struct {
		cfg   Config
		eng   acrn.Engine
		store store.Store
		rnd   acrn.Rand

		state State

		// non-nil while the pattern is playing
		sequence  acrn.Sequence
		scheduler *acrn.Scheduler

		log       *slog.Logger
		observers []Observer
	}

	// Observer is called after every committed transition with the new
	// state.
	Observer func(t Transition, s State)

	Option func(p *Player)
)

var ErrInvalidMode = errors.New("invalid player mode")

func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.log = l }
}

func WithObserver(o Observer) Option {
	return func(p *Player) { p.observers = append(p.observers, o) }
}

// New reads the persisted settings from st, falling back to the defaults in
// cfg, and prepares the engine: tempo, oscillator frequency and a silent
// master. The player starts stopped.
func New(cfg Config, eng acrn.Engine, st store.Store, rnd acrn.Rand, opts ...Option) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Player{cfg: cfg, eng: eng, store: st, rnd: rnd, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}
	mode := Mode(st.Get(cfg.Keys.Mode).Or(int(cfg.DefaultMode)))
	if !mode.Valid() {
		mode = cfg.DefaultMode
	}
	volume := cfg.DefaultVolume
	if v, ok := st.Get(cfg.Keys.Volume).Unpack(); ok {
		volume = volumeFromStored(v)
	}
	freq := acrn.Frequency(st.Get(cfg.Keys.Frequency).Or(int(cfg.DefaultFrequency)))
	s := State{Volume: volume}.withFrequency(freq).withPlayback(mode, Stopped)
	eng.Transport().SetBPM(cfg.BPM)
	eng.Oscillator().SetFrequency(freq.Hz())
	eng.Master().RampTo(math.Inf(-1), cfg.RampTime)
	p.commit(Init, s)
	return p, nil
}

func (p *Player) State() State   { return p.state }
func (p *Player) Config() Config { return p.cfg }

// TogglePlay starts playback in the current mode, or stops it.
func (p *Player) TogglePlay() error {
	if p.state.IsPlaying() {
		err := p.stop(p.state.Mode)
		p.commit(Stop, p.state.withPlayback(p.state.Mode, Stopped))
		if err != nil {
			return fmt.Errorf("stop %v failed: %w", p.state.Mode, err)
		}
		return nil
	}
	if err := p.start(p.state.Mode); err != nil {
		return fmt.Errorf("start %v failed: %w", p.state.Mode, err)
	}
	p.commit(Start, p.state.withPlayback(p.state.Mode, Playing))
	return nil
}

// SetMode selects the tone or the pattern. While playing, the old mode is
// stopped before the new one starts and only the final state is committed.
// If the engine fails during the switch, the session is over: the new mode
// is committed as stopped and the error returned.
func (p *Player) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, mode)
	}
	if mode == p.state.Mode {
		return nil
	}
	status := p.state.Status
	var err error
	if status == Playing {
		if err = p.stop(p.state.Mode); err != nil {
			err = fmt.Errorf("stop %v failed: %w", p.state.Mode, err)
		} else if err = p.start(mode); err != nil {
			err = fmt.Errorf("start %v failed: %w", mode, err)
		}
		if err != nil {
			status = Stopped
		}
	}
	p.commit(SwitchMode, p.state.withPlayback(mode, status))
	return errors.Join(err, p.persist(p.cfg.Keys.Mode, int(mode)))
}

// SetFrequency changes the base frequency. The values are not checked
// against the slider range. In tone mode the oscillator follows
// immediately; a playing pattern picks up the new tones at its next
// shuffle.
func (p *Player) SetFrequency(hz int) error {
	s := p.state.withFrequency(acrn.Frequency(hz))
	if s.Mode == ToneMode {
		p.eng.Oscillator().SetFrequency(s.Frequency.Hz())
	}
	if p.scheduler != nil {
		p.scheduler.Pool().SetFrequencies(s.Derived)
	}
	p.commit(FrequencyChanged, s)
	return p.persist(p.cfg.Keys.Frequency, hz)
}

// SetFrequencyText parses the leading integer of text, like a numeric text
// field would, and sets it as the frequency. Text without a leading integer
// is ignored.
func (p *Player) SetFrequencyText(text string) error {
	hz, ok := leadingInt(text)
	if !ok {
		return nil
	}
	return p.SetFrequency(hz)
}

// SetVolume takes the raw slider value in dB. The configured offset is
// subtracted before the value is applied and persisted.
func (p *Player) SetVolume(db float64) error {
	s := p.state
	s.Volume = db - p.cfg.VolumeOffset
	// while stopped the master stays silent; the next start ramps to s.Volume
	if s.IsPlaying() {
		p.eng.Master().RampTo(s.Volume, p.cfg.RampTime)
	}
	p.commit(VolumeChanged, s)
	return p.persist(p.cfg.Keys.Volume, volumeToStored(s.Volume))
}

// Close stops playback if needed.
func (p *Player) Close() error {
	if !p.state.IsPlaying() {
		return nil
	}
	return p.TogglePlay()
}

func (p *Player) start(mode Mode) error {
	p.eng.Master().RampTo(p.state.Volume, p.cfg.RampTime)
	if err := p.eng.Transport().Start(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	var err error
	switch mode {
	case ToneMode:
		osc := p.eng.Oscillator()
		osc.SetFrequency(p.state.Frequency.Hz())
		if err = osc.Start(); err != nil {
			err = fmt.Errorf("oscillator: %w", err)
		}
	case SequenceMode:
		err = p.startSequence()
	}
	if err != nil {
		p.eng.Master().RampTo(math.Inf(-1), p.cfg.RampTime)
		return errors.Join(err, p.eng.Transport().Stop())
	}
	return nil
}

func (p *Player) startSequence() error {
	pool := acrn.NewShufflePool(p.state.Derived, p.rnd)
	scheduler, err := acrn.NewScheduler(p.cfg.Pattern, pool, p.eng.Voice(), p.cfg.NoteDuration())
	if err != nil {
		return err
	}
	seq, err := p.eng.Clock().NewSequence(scheduler.OnTick, p.cfg.Pattern.Grid())
	if err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	if err := seq.Start(0); err != nil {
		seq.Dispose()
		return fmt.Errorf("sequence: %w", err)
	}
	p.sequence, p.scheduler = seq, scheduler
	return nil
}

func (p *Player) stop(mode Mode) error {
	p.eng.Master().RampTo(math.Inf(-1), p.cfg.RampTime)
	var errs []error
	if err := p.eng.Transport().Stop(); err != nil {
		errs = append(errs, fmt.Errorf("transport: %w", err))
	}
	switch mode {
	case ToneMode:
		if err := p.eng.Oscillator().Stop(); err != nil {
			errs = append(errs, fmt.Errorf("oscillator: %w", err))
		}
	case SequenceMode:
		// the sequence is released even when the transport failed to stop,
		// so that a later start never runs two schedulers on the voice
		if p.sequence != nil {
			p.sequence.Cancel()
			p.sequence.Dispose()
			p.sequence, p.scheduler = nil, nil
		}
	}
	return errors.Join(errs...)
}

func (p *Player) commit(t Transition, s State) {
	s.Version = p.state.Version + 1
	p.state = s
	p.log.Debug("transition",
		"transition", t,
		"mode", s.Mode,
		"status", s.Status,
		"frequency", int(s.Frequency),
		"volume", s.Volume,
		"version", s.Version)
	for _, o := range p.observers {
		o(t, s)
	}
}

func (p *Player) persist(key string, value int) error {
	if err := p.store.Set(key, value); err != nil {
		return fmt.Errorf("cannot persist %v: %w", key, err)
	}
	return nil
}

// leadingInt returns the optionally signed decimal integer at the start of
// text, after leading white space.
func leadingInt(text string) (int, bool) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	end := 0
	if end < len(text) && (text[end] == '+' || text[end] == '-') {
		end++
	}
	digits := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	v, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}
