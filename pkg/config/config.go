// Package config defines mtad's on-disk YAML configuration and the
// atomic load/save routines around it, in the shape the teacher uses
// for its own nested typed config plus temp-file-then-rename saves.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written in config as
// "30s" instead of a raw nanosecond integer.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Config is the complete mtad configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Crypto    CryptoConfig    `yaml:"crypto"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Transport TransportConfig `yaml:"transport"`
	Storage   StorageConfig   `yaml:"storage"`
	Health    HealthConfig    `yaml:"health"`
}

// DeviceConfig identifies this peer to others during discovery.
type DeviceConfig struct {
	Name     string `yaml:"name"`
	CatShare bool   `yaml:"catshare"`
}

// CryptoConfig selects the session-cipher key mode.
type CryptoConfig struct {
	// Mode is "aes128" (canonical, 16-byte truncated key) or "aes256"
	// (32-byte compatibility switch), per Open Question 1.
	Mode string `yaml:"mode"`
}

// DiscoveryConfig tunes BLE scan/handshake timeouts.
type DiscoveryConfig struct {
	ScanTimeout Duration `yaml:"scan_timeout"`
	GATTTimeout Duration `yaml:"gatt_timeout"`
}

// TransportConfig describes the WebSocket/HTTP control and bundle
// surface. cmd/mtad listens on HTTPPortRange[0]; the upper bound is only
// validated. WebSocketPath and DownloadPath are not read: the transport
// package always serves and dials /websocket and /download.
type TransportConfig struct {
	WebSocketPath string `yaml:"websocket_path"`
	DownloadPath  string `yaml:"download_path"`
	HTTPPortRange [2]int `yaml:"http_port_range"`
}

// StorageConfig groups on-disk output locations.
type StorageConfig struct {
	DownloadDir string    `yaml:"download_dir"`
	Logs        LogConfig `yaml:"logs"`
}

// LogConfig mirrors internal/logger.Config, re-keyed for YAML.
type LogConfig struct {
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// HealthConfig controls the liveness/metrics HTTP surface.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration NewManager writes out when no
// config file is present yet.
func Default() Config {
	return Config{
		Device: DeviceConfig{Name: "mtad", CatShare: false},
		Crypto: CryptoConfig{Mode: "aes128"},
		Discovery: DiscoveryConfig{
			ScanTimeout: Duration{30 * time.Second},
			GATTTimeout: Duration{10 * time.Second},
		},
		Transport: TransportConfig{
			WebSocketPath: "/websocket",
			DownloadPath:  "/download",
			HTTPPortRange: [2]int{17000, 17999},
		},
		Storage: StorageConfig{
			DownloadDir: "./downloads",
			Logs: LogConfig{
				Path: "./logs/mtad.log", Level: "info", Format: "json",
				MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 14, Compress: true,
			},
		},
		Health: HealthConfig{Enabled: true, Addr: ":8787"},
	}
}

// Validate checks the fields Validate actually enforces elsewhere in
// this codebase: device identity, a usable crypto mode, and a sane
// port range, mirroring the teacher's field-by-field Validate.
func (c Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("config: device.name is required")
	}
	if c.Crypto.Mode != "aes128" && c.Crypto.Mode != "aes256" {
		return fmt.Errorf("config: crypto.mode must be aes128 or aes256, got %q", c.Crypto.Mode)
	}
	lo, hi := c.Transport.HTTPPortRange[0], c.Transport.HTTPPortRange[1]
	if lo < 1 || hi > 65535 || lo > hi {
		return fmt.Errorf("config: invalid transport.http_port_range [%d, %d]", lo, hi)
	}
	if c.Health.Enabled && c.Health.Addr == "" {
		return fmt.Errorf("config: health.addr is required when health.enabled is true")
	}
	return nil
}

// Marshal renders c as YAML, for Manager.Save and for printing a
// starter config file.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
