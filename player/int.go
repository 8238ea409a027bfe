package player

import "math"

type (
	Int struct {
		IntData
	}

	IntData interface {
		Value() int
		Range() IntRange
		Enabled() bool

		setValue(int) error
	}

	IntRange struct {
		Min, Max int
	}

	FrequencySlider Player
	VolumeSlider    Player
)

// Add moves the value by delta within the range. ok is false when the
// control is disabled or the value did not change.
func (v Int) Add(delta int) (ok bool, err error) {
	return v.Set(v.Value() + delta)
}

// Set clamps value to the range and applies it. ok is false when the
// control is disabled or the value did not change.
func (v Int) Set(value int) (ok bool, err error) {
	value = v.Range().Clamp(value)
	if !v.Enabled() || value == v.Value() {
		return false, nil
	}
	if err := v.setValue(value); err != nil {
		return false, err
	}
	return true, nil
}

func (r IntRange) Clamp(value int) int {
	return max(min(value, r.Max), r.Min)
}

// Player methods

func (p *Player) FrequencySlider() *FrequencySlider { return (*FrequencySlider)(p) }
func (p *Player) VolumeSlider() *VolumeSlider       { return (*VolumeSlider)(p) }

// FrequencySlider methods

func (v *FrequencySlider) Int() Int      { return Int{v} }
func (v *FrequencySlider) Value() int    { return int(v.state.Frequency) }
func (v *FrequencySlider) Enabled() bool { return v.state.SliderEnabled }
func (v *FrequencySlider) Range() IntRange {
	return IntRange{int(v.cfg.MinFrequency), int(v.cfg.MaxFrequency)}
}
func (v *FrequencySlider) setValue(value int) error {
	return (*Player)(v).SetFrequency(value)
}

// VolumeSlider methods. The slider shows the raw value, before the volume
// offset is subtracted.

func (v *VolumeSlider) Int() Int      { return Int{v} }
func (v *VolumeSlider) Enabled() bool { return true }
func (v *VolumeSlider) Value() int {
	return int(math.Round(v.state.Volume + v.cfg.VolumeOffset))
}
func (v *VolumeSlider) Range() IntRange {
	return IntRange{int(math.Ceil(v.cfg.MinVolume)), int(math.Floor(v.cfg.MaxVolume))}
}
func (v *VolumeSlider) setValue(value int) error {
	return (*Player)(v).SetVolume(float64(value))
}
