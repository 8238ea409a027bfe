package engine

import (
	"math"
	"sync"
)

// Oscillator is a sine oscillator whose frequency can be changed while it
// plays.
type Oscillator struct {
	mu         sync.Mutex
	sampleRate float64
	hz         float64
	phase      float64
	running    bool
}

func newOscillator(sampleRate int) *Oscillator {
	return &Oscillator{sampleRate: float64(sampleRate)}
}

func (o *Oscillator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		o.running = true
		o.phase = 0
	}
	return nil
}

func (o *Oscillator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	return nil
}

func (o *Oscillator) SetFrequency(hz float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hz = hz
}

func (o *Oscillator) Frequency() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hz
}

func (o *Oscillator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// render overwrites dst with the oscillator output, or silence when stopped.
func (o *Oscillator) render(dst []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		clear(dst)
		return
	}
	inc := 2 * math.Pi * o.hz / o.sampleRate
	for i := range dst {
		dst[i] = float32(math.Sin(o.phase))
		o.phase = math.Mod(o.phase+inc, 2*math.Pi)
	}
}
