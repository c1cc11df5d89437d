package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewManagerWritesDefaultWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtad.yaml")

	m, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, "mtad", m.Get().Device.Name)
	require.FileExists(t, path)
}

func TestManagerUpdateAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtad.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	cfg.Device.Name = "Living Room PC"
	require.NoError(t, m.Update(cfg))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, "Living Room PC", reloaded.Get().Device.Name)
}

func TestUpdateRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mtad.yaml")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	cfg.Crypto.Mode = "rot13"
	require.Error(t, m.Update(cfg))
}

func TestValidatePortRange(t *testing.T) {
	cfg := Default()
	cfg.Transport.HTTPPortRange = [2]int{0, 70000}
	require.Error(t, cfg.Validate())
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	require.Contains(t, string(data), "scan_timeout: 30s")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	require.Equal(t, cfg.Discovery, back.Discovery)
}
