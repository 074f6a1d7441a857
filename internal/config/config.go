// Package config loads client settings from TOML files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that unmarshals from TOML strings such
// as "15s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// ClientConfig describes how to reach a compute server and how
// patient the transport should be with it.
type ClientConfig struct {
	Host            string   `toml:"host"`
	Port            int      `toml:"port"`
	SendTimeout     Duration `toml:"send_timeout"`
	RecvTimeout     Duration `toml:"recv_timeout"`
	PollInterval    Duration `toml:"poll_interval"`
	MaxPayloadBytes uint32   `toml:"max_payload_bytes"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:         "localhost",
		Port:         11111,
		SendTimeout:  Duration(15 * time.Second),
		RecvTimeout:  Duration(15 * time.Second),
		PollInterval: Duration(500 * time.Millisecond),
	}
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("client config missing host")
	}
	if cfg.Port <= 1023 || cfg.Port > 65535 {
		return fmt.Errorf("client config port %d outside (1023, 65535]", cfg.Port)
	}
	if cfg.SendTimeout < 0 || cfg.RecvTimeout < 0 {
		return fmt.Errorf("client config timeouts must not be negative")
	}
	if cfg.PollInterval < 0 {
		return fmt.Errorf("client config poll_interval must not be negative")
	}
	return nil
}
