package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager owns the on-disk config file and serializes reads/writes to
// the in-memory copy, saving via a temp-file-then-rename so a crash
// mid-write never leaves a truncated config behind.
type Manager struct {
	mu         sync.RWMutex
	configPath string
	config     Config
}

// NewManager loads configPath, or writes out config.Default() if the
// file doesn't exist yet.
func NewManager(configPath string) (*Manager, error) {
	m := &Manager{configPath: configPath}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		m.config = Default()
		if err := m.save(); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", m.configPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", m.configPath, err)
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) save() error {
	m.mu.RLock()
	data, err := m.config.Marshal()
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmp := m.configPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.configPath); err != nil {
		return fmt.Errorf("config: rename %s to %s: %w", tmp, m.configPath, err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Update replaces the configuration and saves it atomically.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	return m.save()
}

// Reload re-reads the config file from disk.
func (m *Manager) Reload() error {
	return m.load()
}
