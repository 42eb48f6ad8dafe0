// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config persists the daemon's small amount of mutable state
// (active profile level, per-app overrides) across restarts and watches
// the theme directory for hot reload. Shaped after the teacher's
// config.Manager/ConfigHolder split — a YAML-on-disk Manager plus an
// fsnotify-driven watcher notifying listeners — generalized from a large
// streaming-server config to feedbackd's handful of settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/PhoshMobi/feedbackd/internal/model"
)

// Settings is the persisted, user-editable subset of daemon state (§3
// "Profile").
type Settings struct {
	ActiveLevel model.ProfileLevel            `yaml:"active_level"`
	PerApp      map[string]model.ProfileLevel `yaml:"per_app,omitempty"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{ActiveLevel: model.ProfileFull, PerApp: map[string]model.ProfileLevel{}}
}

// Manager handles settings persistence at a fixed path, atomically
// (temp file + rename), matching the teacher's config.Manager.Save.
type Manager struct {
	path string
}

// NewManager constructs a Manager writing to path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads settings from disk, returning DefaultSettings if the file
// does not exist.
func (m *Manager) Load() (Settings, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if !s.ActiveLevel.Valid() {
		s.ActiveLevel = model.ProfileFull
	}
	if s.PerApp == nil {
		s.PerApp = map[string]model.ProfileLevel{}
	}
	return s, nil
}

// Save writes s to disk atomically.
func (m *Manager) Save(s Settings) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return fmt.Errorf("mkdir settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), "settings-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return fmt.Errorf("rename settings file: %w", err)
	}
	return nil
}

// DefaultSettingsPath returns $XDG_CONFIG_HOME/feedbackd/settings.yaml,
// falling back to ~/.config.
func DefaultSettingsPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "feedbackd", "settings.yaml")
}
