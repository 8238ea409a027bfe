// Package store persists the player settings as plain integers under
// caller-defined keys.
package store

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type (
	// Store is a persistent key-value store of integers.
	Store interface {
		Get(key string) OptionalInteger
		Set(key string, value int) error
	}

	// Memory is a Store that forgets everything when the process exits.
	Memory struct {
		mu     sync.Mutex
		values map[string]int
	}

	// File is a Store backed by a YAML map on disk. Every Set rewrites the
	// file.
	File struct {
		mu     sync.Mutex
		path   string
		values map[string]int
	}
)

const settingsFile = "settings.yml"

func NewMemory() *Memory {
	return &Memory{values: map[string]int{}}
}

func (m *Memory) Get(key string) OptionalInteger {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return NewOptionalInteger(v, ok)
}

func (m *Memory) Set(key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// DefaultPath returns the settings file location in the user config
// directory.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot find user config directory: %w", err)
	}
	return filepath.Join(configDir, "acrn", settingsFile), nil
}

// OpenFile reads the settings at path. A missing file is not an error; it
// is created on the first Set.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: map[string]int{}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, &f.values); err != nil {
		return nil, fmt.Errorf("cannot parse settings %v: %w", path, err)
	}
	if f.values == nil {
		f.values = map[string]int{}
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Get(key string) OptionalInteger {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return NewOptionalInteger(v, ok)
}

func (f *File) Set(key string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.values[key]; ok && v == value {
		return nil
	}
	values := maps.Clone(f.values)
	values[key] = value
	if err := f.write(values); err != nil {
		return err
	}
	f.values = values
	return nil
}

func (f *File) write(values map[string]int) error {
	b, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("cannot marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("cannot create settings directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("cannot write settings: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("cannot replace settings: %w", err)
	}
	return nil
}
