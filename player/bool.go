package player

type (
	Bool struct {
		BoolData
	}

	BoolData interface {
		Value() bool
		Enabled() bool
		setValue(bool) error
	}

	PlayingToggle Player
	PatternToggle Player
)

func (v Bool) Toggle() error {
	return v.Set(!v.Value())
}

// Set changes the value if it differs and the control is enabled.
func (v Bool) Set(value bool) error {
	if v.Enabled() && v.Value() != value {
		return v.setValue(value)
	}
	return nil
}

// Player methods

func (p *Player) Playing() *PlayingToggle { return (*PlayingToggle)(p) }
func (p *Player) Pattern() *PatternToggle { return (*PatternToggle)(p) }

// PlayingToggle methods

func (v *PlayingToggle) Bool() Bool         { return Bool{v} }
func (v *PlayingToggle) Value() bool        { return v.state.IsPlaying() }
func (v *PlayingToggle) Enabled() bool      { return true }
func (v *PlayingToggle) setValue(bool) error { return (*Player)(v).TogglePlay() }

// PatternToggle methods

func (v *PatternToggle) Bool() Bool    { return Bool{v} }
func (v *PatternToggle) Value() bool   { return v.state.Mode == SequenceMode }
func (v *PatternToggle) Enabled() bool { return true }
func (v *PatternToggle) setValue(val bool) error {
	if val {
		return (*Player)(v).SetMode(SequenceMode)
	}
	return (*Player)(v).SetMode(ToneMode)
}
