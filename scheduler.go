package acrn

import (
	"fmt"
	"time"
)

type (
	// Phase tells what the Scheduler did on a tick.
	Phase int

	// Scheduler is the per-tick state machine of the pattern. Each cycle plays
	// MaxPatternLength tones drawn from a ShufflePool, rests for RestLength
	// beats and spends one silent beat restarting.
	//
	// The Scheduler is not safe for concurrent use; the clock delivering its
	// ticks must not call Tick again before the previous call returns.
	Scheduler struct {
		params   PatternParams
		pool     *ShufflePool
		voice    Voice
		duration time.Duration
		count    int
		triggers int
	}
)

const (
	Looping Phase = iota
	Resting
	Restarting
)

func (p Phase) String() string {
	switch p {
	case Looping:
		return "looping"
	case Resting:
		return "resting"
	case Restarting:
		return "restarting"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// NewScheduler returns a Scheduler in the Looping phase with a zero tick
// count. Every tone is triggered on voice with the given note duration.
func NewScheduler(params PatternParams, pool *ShufflePool, voice Voice, noteDuration time.Duration) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{params: params, pool: pool, voice: voice, duration: noteDuration}, nil
}

// Phase returns the phase that the next tick will run in.
func (s *Scheduler) Phase() Phase {
	switch {
	case s.count < s.params.MaxPatternLength():
		return Looping
	case s.count < s.params.RestartThreshold():
		return Resting
	}
	return Restarting
}

// Tick advances the state machine by one beat and returns the phase the beat
// ran in.
func (s *Scheduler) Tick() Phase {
	phase := s.Phase()
	switch phase {
	case Looping:
		s.count++
		s.triggers++
		s.voice.TriggerAttackRelease(s.pool.Next().Hz(), s.duration)
	case Resting:
		s.count++
	case Restarting:
		s.count = 0
	}
	return phase
}

// OnTick adapts the Scheduler to a clock callback.
func (s *Scheduler) OnTick(Tick) { s.Tick() }

// Count is the number of beats since the start of the current cycle.
func (s *Scheduler) Count() int { return s.count }

// Triggers is the total number of tones triggered.
func (s *Scheduler) Triggers() int { return s.triggers }

func (s *Scheduler) Pool() *ShufflePool { return s.pool }
