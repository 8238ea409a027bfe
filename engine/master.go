package engine

import (
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// Master is the master gain of the engine. Level changes are linear ramps
// in amplitude.
type Master struct {
	mu         sync.Mutex
	sampleRate float64
	gain       float64
	target     float64
	step       float64
	remaining  int
}

func newMaster(sampleRate int) *Master {
	return &Master{sampleRate: float64(sampleRate)}
}

// RampTo ramps the gain to db decibels over duration, starting from the
// current gain. -Inf dB is silence.
func (m *Master) RampTo(db float64, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = 0
	if !math.IsInf(db, -1) {
		m.target = core.DBToLinear(db)
	}
	m.remaining = int(duration.Seconds() * m.sampleRate)
	if m.remaining <= 0 {
		m.gain = m.target
		m.remaining = 0
		return
	}
	m.step = (m.target - m.gain) / float64(m.remaining)
}

// Level returns the current gain in decibels.
func (m *Master) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return core.LinearToDB(m.gain)
}

// Ramping reports whether a ramp is in progress.
func (m *Master) Ramping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining > 0
}

// render writes the per-frame gain into curve.
func (m *Master) render(curve []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range curve {
		if m.remaining > 0 {
			m.remaining--
			m.gain += m.step
			if m.remaining == 0 {
				m.gain = m.target
			}
		}
		curve[i] = float32(m.gain)
	}
}
