// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional per-user TOML config file that
// supplies fallback values for the P4 port, editor, and Swarm review
// service — every field is optional, and a missing file is not an error.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config mirrors ~/.config/p4-stack/config.toml. An absent file, or any
// absent field within it, falls back to the environment or a `p4
// property` lookup at the call site; this package never fails a lookup
// that finds nothing.
type Config struct {
	P4    P4Config    `toml:"p4"`
	Swarm SwarmConfig `toml:"swarm"`
}

type P4Config struct {
	// Port overrides $P4PORT when set.
	Port string `toml:"port"`
	// Editor overrides $EDITOR when set.
	Editor string `toml:"editor"`
}

type SwarmConfig struct {
	// URL overrides the `p4 property -n P4.Swarm.URL` lookup when set.
	URL string `toml:"url"`
	// ServiceAccountJWTSecret, when set, enables headless review posting
	// via a minted JWT instead of the interactive P4 ticket.
	ServiceAccountJWTSecret string `toml:"service_account_jwt_secret"`
}

// DefaultPath returns ~/.config/p4-stack/config.toml, honoring
// $XDG_CONFIG_HOME the way the rest of the XDG-aware ecosystem does.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "p4-stack", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "p4-stack", "config.toml"), nil
}

// Load reads path, returning a zero-value Config (all fields empty,
// not an error) when the file does not exist.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault loads the config from DefaultPath, treating a missing home
// directory the same as a missing file.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return &Config{}, nil
	}
	return Load(path)
}
