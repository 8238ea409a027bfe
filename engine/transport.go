package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/generalfuzz/acrn"
)

type (
	// Transport is the beat clock of the engine. It counts rendered frames
	// and, while running, delivers one tick per beat to every started
	// Sequence. Ticks are delivered from the audio goroutine with the
	// transport lock held, so a Sequence that has been cancelled never
	// receives another tick after Cancel returns.
	Transport struct {
		mu         sync.Mutex
		sampleRate int
		bpm        float64
		running    bool
		untilBeat  int // frames until the next beat; 0 = beat is due
		frame      int // frames rendered since Start
		beats      int
		sequences  []*Sequence
	}

	// Sequence loops over a BeatGrid, calling its callback once per beat.
	Sequence struct {
		transport *Transport
		callback  acrn.TickFunc
		grid      acrn.BeatGrid
		pos       int
		index     int
		delay     int
		started   bool
		disposed  bool
	}
)

var (
	ErrInvalidTempo      = errors.New("tempo must be positive")
	ErrEmptyGrid         = errors.New("sequence grid is empty")
	ErrSequenceDisposed  = errors.New("sequence has been disposed")
	ErrNegativeOffset    = errors.New("sequence offset must not be negative")
	errTooManyRenderRuns = errors.New("engine did not fill the audio buffer")
)

func newTransport(sampleRate int, bpm float64) *Transport {
	return &Transport{sampleRate: sampleRate, bpm: bpm}
}

// Start resets the transport position and starts delivering beats; the
// first beat is delivered with the next rendered frame.
func (t *Transport) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bpm <= 0 || math.IsNaN(t.bpm) || math.IsInf(t.bpm, 0) {
		return fmt.Errorf("cannot start transport at %v BPM: %w", t.bpm, ErrInvalidTempo)
	}
	t.running = true
	t.untilBeat = 0
	t.frame = 0
	t.beats = 0
	for _, s := range t.sequences {
		s.pos = 0
	}
	return nil
}

func (t *Transport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	return nil
}

func (t *Transport) SetBPM(bpm float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bpm = bpm
}

func (t *Transport) BPM() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpm
}

func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Position is the transport time since Start.
func (t *Transport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameTime(t.frame)
}

// Beats is the number of beats delivered since Start.
func (t *Transport) Beats() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.beats
}

func (t *Transport) NewSequence(callback acrn.TickFunc, grid acrn.BeatGrid) (acrn.Sequence, error) {
	if len(grid) == 0 {
		return nil, ErrEmptyGrid
	}
	s := &Sequence{transport: t, callback: callback, grid: slices.Clone(grid)}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sequences = append(t.sequences, s)
	return s, nil
}

// advance moves the transport forward by at most maxFrames and returns how
// many frames can be rendered before the next beat. Due beats are delivered
// before returning.
func (t *Transport) advance(maxFrames int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return maxFrames
	}
	if t.untilBeat <= 0 {
		t.deliverBeat()
		t.untilBeat = t.samplesPerBeat()
	}
	n := min(maxFrames, t.untilBeat)
	t.untilBeat -= n
	t.frame += n
	return n
}

func (t *Transport) deliverBeat() {
	now := t.frameTime(t.frame)
	t.beats++
	for _, s := range t.sequences {
		s.tick(now)
	}
}

func (t *Transport) samplesPerBeat() int {
	return max(int(math.Round(float64(t.sampleRate)*60/t.bpm)), 1)
}

func (t *Transport) frameTime(frame int) time.Duration {
	return time.Duration(frame) * time.Second / time.Duration(t.sampleRate)
}

func (s *Sequence) tick(now time.Duration) {
	if !s.started || s.disposed {
		return
	}
	if s.delay > 0 {
		s.delay--
		return
	}
	slot := s.grid[s.pos]
	s.pos = (s.pos + 1) % len(s.grid)
	tick := acrn.Tick{Index: s.index, Slot: slot, Time: now}
	s.index++
	s.callback(tick)
}

// Start starts delivering ticks after offset beats have passed.
func (s *Sequence) Start(offset int) error {
	s.transport.mu.Lock()
	defer s.transport.mu.Unlock()
	if s.disposed {
		return ErrSequenceDisposed
	}
	if offset < 0 {
		return ErrNegativeOffset
	}
	s.started = true
	s.delay = offset
	return nil
}

// Cancel stops tick delivery. If a tick is being delivered on the audio
// goroutine, Cancel waits for it to finish.
func (s *Sequence) Cancel() {
	s.transport.mu.Lock()
	defer s.transport.mu.Unlock()
	s.started = false
}

// Dispose cancels the sequence and detaches it from the transport.
func (s *Sequence) Dispose() {
	t := s.transport
	t.mu.Lock()
	defer t.mu.Unlock()
	s.started = false
	s.disposed = true
	t.sequences = slices.DeleteFunc(t.sequences, func(x *Sequence) bool { return x == s })
}
