package engine

import (
	"math"
	"sync"
	"time"
)

type (
	// Envelope is an ADSR envelope. Times are in seconds and Sustain is a
	// level between 0 and 1.
	Envelope struct {
		Attack  float64 `yaml:"attack"`
		Decay   float64 `yaml:"decay"`
		Sustain float64 `yaml:"sustain"`
		Release float64 `yaml:"release"`
	}

	// Synth is a polyphonic sine synth. Notes are fire-and-forget: each
	// trigger holds for its duration and then releases. When all voices are
	// busy the oldest one is stolen.
	Synth struct {
		mu         sync.Mutex
		sampleRate float64
		env        Envelope
		voices     []synthVoice
	}

	synthVoice struct {
		hz          float64
		phase       float64
		level       float64
		stage       envStage
		hold        int // frames until release
		age         int
		releaseStep float64
	}

	envStage int
)

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

func newSynth(sampleRate, polyphony int, env Envelope) *Synth {
	return &Synth{
		sampleRate: float64(sampleRate),
		env:        env,
		voices:     make([]synthVoice, max(polyphony, 1)),
	}
}

func (s *Synth) TriggerAttackRelease(hz float64, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &s.voices[s.freeVoice()]
	*v = synthVoice{
		hz:    hz,
		stage: stageAttack,
		hold:  max(int(duration.Seconds()*s.sampleRate), 1),
	}
}

// Active returns the number of voices currently sounding.
func (s *Synth) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.voices {
		if v.stage != stageIdle {
			n++
		}
	}
	return n
}

func (s *Synth) freeVoice() int {
	oldest := 0
	for i, v := range s.voices {
		if v.stage == stageIdle {
			return i
		}
		if v.age > s.voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

// render overwrites dst with the sum of all voices.
func (s *Synth) render(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(dst)
	attack := s.frames(s.env.Attack)
	decay := s.frames(s.env.Decay)
	release := s.frames(s.env.Release)
	for i := range s.voices {
		v := &s.voices[i]
		if v.stage == stageIdle {
			continue
		}
		inc := 2 * math.Pi * v.hz / s.sampleRate
		for j := range dst {
			if v.stage == stageIdle {
				break
			}
			v.step(s.env.Sustain, attack, decay, release)
			dst[j] += float32(math.Sin(v.phase) * v.level)
			v.phase = math.Mod(v.phase+inc, 2*math.Pi)
		}
	}
}

func (s *Synth) frames(seconds float64) float64 {
	return max(seconds*s.sampleRate, 0)
}

// step advances the envelope of the voice by one frame.
func (v *synthVoice) step(sustain, attack, decay, release float64) {
	v.age++
	if v.hold > 0 {
		v.hold--
		if v.hold == 0 {
			v.stage = stageRelease
			v.releaseStep = v.level / max(release, 1)
		}
	}
	switch v.stage {
	case stageAttack:
		v.level += 1 / max(attack, 1)
		if v.level >= 1 {
			v.level = 1
			v.stage = stageDecay
			if decay < 1 {
				v.level = sustain
				v.stage = stageSustain
			}
		}
	case stageDecay:
		v.level -= (1 - sustain) / decay
		if v.level <= sustain {
			v.level = sustain
			v.stage = stageSustain
		}
	case stageRelease:
		v.level -= v.releaseStep
		if v.level <= 0 {
			v.level = 0
			v.stage = stageIdle
		}
	}
}
