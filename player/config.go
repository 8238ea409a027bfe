package player

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/generalfuzz/acrn"
	"gopkg.in/yaml.v3"
)

type (
	// Config holds the defaults and tuning constants of the player. The zero
	// value is not usable; start from DefaultConfig or LoadConfig.
	Config struct {
		DefaultFrequency acrn.Frequency `yaml:"defaultFrequency"`
		DefaultVolume    float64        `yaml:"defaultVolume"`
		DefaultMode      Mode           `yaml:"defaultMode"`

		// Slider ranges. Values set directly on the Player are not checked
		// against these.
		MinFrequency acrn.Frequency `yaml:"minFrequency"`
		MaxFrequency acrn.Frequency `yaml:"maxFrequency"`
		MinVolume    float64        `yaml:"minVolume"`
		MaxVolume    float64        `yaml:"maxVolume"`

		Pattern acrn.PatternParams `yaml:"pattern"`
		BPM     float64            `yaml:"bpm"`
		// NoteLength is the duration of a pattern tone in beats.
		NoteLength float64 `yaml:"noteLength"`
		// VolumeOffset is subtracted from every volume slider value, so the
		// master never reaches full gain.
		VolumeOffset float64       `yaml:"volumeOffset"`
		RampTime     time.Duration `yaml:"rampTime"`

		Keys Keys        `yaml:"keys"`
		MIDI MIDIMapping `yaml:"midi"`
	}

	// Keys are the store keys of the persisted settings.
	Keys struct {
		Frequency string `yaml:"frequency"`
		Volume    string `yaml:"volume"`
		Mode      string `yaml:"mode"`
	}
)

//go:embed config.yml
var defaultConfigYaml []byte

var ErrInvalidConfig = errors.New("invalid player config")

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	var cfg Config
	if err := decodeStrict(defaultConfigYaml, &cfg); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return cfg
}

// LoadConfig returns the built-in configuration overridden by the YAML file
// at path. An empty path or a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("cannot read config: %w", err)
	}
	if err := decodeStrict(b, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config %v: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// DefaultConfigPath is config.yml in the user config directory.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "acrn", "config.yml"), nil
}

func decodeStrict(b []byte, target any) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(target)
}

func (c Config) Validate() error {
	if err := c.Pattern.Validate(); err != nil {
		return err
	}
	switch {
	case c.BPM <= 0:
		return fmt.Errorf("%w: bpm %v", ErrInvalidConfig, c.BPM)
	case c.NoteLength <= 0:
		return fmt.Errorf("%w: note length %v", ErrInvalidConfig, c.NoteLength)
	case c.RampTime < 0:
		return fmt.Errorf("%w: ramp time %v", ErrInvalidConfig, c.RampTime)
	case c.MinFrequency > c.MaxFrequency || c.MinVolume > c.MaxVolume:
		return fmt.Errorf("%w: empty slider range", ErrInvalidConfig)
	case !c.DefaultMode.Valid():
		return fmt.Errorf("%w: default mode %d", ErrInvalidConfig, c.DefaultMode)
	}
	return nil
}

// NoteDuration is the length of a pattern tone at the configured tempo.
func (c Config) NoteDuration() time.Duration {
	return time.Duration(c.NoteLength * 60 / c.BPM * float64(time.Second))
}
