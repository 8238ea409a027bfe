package acrn

import "time"

type (
	// AudioBuffer is a buffer of stereo audio frames.
	AudioBuffer [][2]float32

	// AudioSource renders audio into the given buffer, filling it completely.
	AudioSource interface {
		ReadAudio(buffer AudioBuffer) error
	}

	AudioSourceFunc func(buffer AudioBuffer) error

	// AudioContext plays an AudioSource on an output device until the
	// returned CloserWaiter is closed.
	AudioContext interface {
		Play(source AudioSource) CloserWaiter
		Close() error
	}

	CloserWaiter interface {
		Close() error
		Wait()
	}
)

type (
	// Tick is delivered to a TickFunc once per beat, in grid order.
	Tick struct {
		Index int           // running count of ticks delivered to the sequence
		Slot  Slot          // the grid slot of this beat
		Time  time.Duration // transport time of the beat
	}

	TickFunc func(tick Tick)

	// Transport is the periodic clock that drives sequences.
	Transport interface {
		Start() error
		Stop() error
		SetBPM(bpm float64)
	}

	// Oscillator is a continuous tone with a live frequency.
	Oscillator interface {
		Start() error
		Stop() error
		SetFrequency(hz float64)
	}

	// Voice plays fire-and-forget notes of bounded duration.
	Voice interface {
		TriggerAttackRelease(hz float64, duration time.Duration)
	}

	// MasterGain ramps the output level, in decibels. A level of -Inf is
	// silence.
	MasterGain interface {
		RampTo(db float64, duration time.Duration)
	}

	// Sequence walks a BeatGrid in a loop, calling its TickFunc once per
	// transport beat while started. After Cancel returns, no further ticks
	// are delivered.
	Sequence interface {
		Start(offset int) error
		Cancel()
		Dispose()
	}

	// Clock creates Sequences bound to the transport.
	Clock interface {
		NewSequence(callback TickFunc, grid BeatGrid) (Sequence, error)
	}

	// Engine is the capability set the player needs from an audio engine.
	Engine interface {
		Transport() Transport
		Oscillator() Oscillator
		Voice() Voice
		Master() MasterGain
		Clock() Clock
	}
)

func (f AudioSourceFunc) ReadAudio(buffer AudioBuffer) error {
	return f(buffer)
}

// Interleave returns the buffer as interleaved left/right float32 samples.
func (b AudioBuffer) Interleave() []float32 {
	ret := make([]float32, 0, len(b)*2)
	for _, frame := range b {
		ret = append(ret, frame[0], frame[1])
	}
	return ret
}

// Fill fills the whole buffer from the source in chunks of at most chunk
// frames.
func (b AudioBuffer) Fill(source AudioSource, chunk int) error {
	for len(b) > 0 {
		n := min(chunk, len(b))
		if err := source.ReadAudio(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
