package engine

import (
	"errors"
	"math"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/generalfuzz/acrn"
	"github.com/viterin/vek/vek32"
)

type (
	// Volume is a level per stereo channel, in decibels relative to full
	// scale.
	Volume [2]float64

	// Meter follows the output level. Levels are smoothed with an
	// exponentially decaying average in the decibel domain, using the Attack
	// time constant (seconds) when the signal rises and Release when it falls.
	// Min and Max clamp the decibel values so silence reads Min instead of
	// -Inf.
	Meter struct {
		mu         sync.Mutex
		level      Volume
		peak       Volume
		scratch    []float32
		sampleRate float64
		Attack     float64
		Release    float64
		Min        float64
		Max        float64
	}
)

var ErrNaN = errors.New("NaN detected in master output")

func newMeter(sampleRate int) *Meter {
	return &Meter{
		sampleRate: float64(sampleRate),
		level:      Volume{-60, -60},
		peak:       Volume{-60, -60},
		Attack:     0.3,
		Release:    0.3,
		Min:        -60,
		Max:        40,
	}
}

func (m *Meter) Level() Volume {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Update analyzes the buffer. It returns ErrNaN if any sample was NaN; the
// NaN samples are skipped.
func (m *Meter) Update(buffer acrn.AudioBuffer) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	alphaAttack := 1 - math.Exp(-1.0/(m.Attack*m.sampleRate))
	alphaRelease := 1 - math.Exp(-1.0/(m.Release*m.sampleRate))
	for c := 0; c < 2; c++ {
		for _, frame := range buffer {
			s2 := float64(frame[c]) * float64(frame[c])
			if math.IsNaN(s2) {
				err = ErrNaN
				continue
			}
			dB := 10 * math.Log10(s2)
			if dB < m.Min || math.IsNaN(dB) {
				dB = m.Min
			}
			dB = min(dB, m.Max)
			a := alphaAttack
			if dB < m.level[c] {
				a = alphaRelease
			}
			m.level[c] += (dB - m.level[c]) * a
		}
	}
	m.updatePeak(buffer)
	return err
}

// Peak returns the absolute peak of the last analyzed buffer, clamped to
// [Min, Max] decibels.
func (m *Meter) Peak() Volume {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func (m *Meter) updatePeak(buffer acrn.AudioBuffer) {
	if len(buffer) == 0 {
		return
	}
	if cap(m.scratch) < len(buffer) {
		m.scratch = make([]float32, len(buffer))
	}
	ch := m.scratch[:len(buffer)]
	for c := range m.peak {
		for i, frame := range buffer {
			ch[i] = frame[c]
		}
		vek32.Abs_Inplace(ch)
		dB := core.LinearToDB(float64(vek32.Max(ch)))
		if math.IsNaN(dB) {
			dB = m.Min
		}
		m.peak[c] = min(max(dB, m.Min), m.Max)
	}
}
