// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.P4.Port)
	assert.Empty(t, cfg.Swarm.URL)
}

func TestLoadParsesPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[p4]
port = "ssl:p4.example.com:1666"
editor = "vim"

[swarm]
url = "https://swarm.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ssl:p4.example.com:1666", cfg.P4.Port)
	assert.Equal(t, "vim", cfg.P4.Editor)
	assert.Equal(t, "https://swarm.example.com", cfg.Swarm.URL)
	assert.Empty(t, cfg.Swarm.ServiceAccountJWTSecret)
}

func TestDefaultPathHonorsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-home")
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-home", "p4-stack", "config.toml"), path)
}

func TestLoadDefaultSurvivesMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := LoadDefault()
	require.NoError(t, err)
	assert.Empty(t, cfg.P4.Port)
}
