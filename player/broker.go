package player

import "errors"

type (
	// Event is a user action for the Player. Events are produced by the
	// command line, MIDI input and tests, and applied with Player.Handle by
	// the goroutine owning the Player.
	Event interface {
		apply(p *Player) error
	}

	TogglePlay          struct{}
	SelectMode          struct{ Mode Mode }
	ChangeFrequency     struct{ Frequency int }
	ChangeFrequencyText struct{ Text string }
	ChangeVolume        struct{ Volume float64 }

	// SlideFrequency and SlideVolume move the sliders: the value is clamped
	// to the slider range and ignored while the slider is disabled.
	SlideFrequency struct{ Value int }
	SlideVolume    struct{ Value int }

	// Broker carries events from producer goroutines to the goroutine that
	// owns the Player. Producers should never block on it; use TrySend.
	Broker struct {
		Events chan Event
	}
)

const brokerCapacity = 64

func NewBroker() *Broker {
	return &Broker{Events: make(chan Event, brokerCapacity)}
}

// TrySend is a helper function to send a value to a channel if it is not
// full. It is guaranteed to be non-blocking. Return true if the value was
// sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// Handle applies an event to the Player.
func (p *Player) Handle(e Event) error {
	if e == nil {
		return errors.New("nil event")
	}
	return e.apply(p)
}

func (TogglePlay) apply(p *Player) error            { return p.TogglePlay() }
func (e SelectMode) apply(p *Player) error          { return p.SetMode(e.Mode) }
func (e ChangeFrequency) apply(p *Player) error     { return p.SetFrequency(e.Frequency) }
func (e ChangeFrequencyText) apply(p *Player) error { return p.SetFrequencyText(e.Text) }
func (e ChangeVolume) apply(p *Player) error        { return p.SetVolume(e.Volume) }

func (e SlideFrequency) apply(p *Player) error {
	_, err := p.FrequencySlider().Int().Set(e.Value)
	return err
}

func (e SlideVolume) apply(p *Player) error {
	_, err := p.VolumeSlider().Int().Set(e.Value)
	return err
}
