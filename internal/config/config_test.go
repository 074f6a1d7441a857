package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadClientConfig(t *testing.T) {
	path := writeConfig(t, `
host = "terachem01"
port = 12345
send_timeout = "30s"
recv_timeout = "1m"
poll_interval = "250ms"
max_payload_bytes = 1048576
`)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "terachem01" || cfg.Port != 12345 {
		t.Fatalf("address = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.SendTimeout.Std() != 30*time.Second {
		t.Fatalf("send_timeout = %v", cfg.SendTimeout.Std())
	}
	if cfg.RecvTimeout.Std() != time.Minute {
		t.Fatalf("recv_timeout = %v", cfg.RecvTimeout.Std())
	}
	if cfg.PollInterval.Std() != 250*time.Millisecond {
		t.Fatalf("poll_interval = %v", cfg.PollInterval.Std())
	}
	if cfg.MaxPayloadBytes != 1048576 {
		t.Fatalf("max_payload_bytes = %d", cfg.MaxPayloadBytes)
	}
}

func TestLoadClientConfigDefaults(t *testing.T) {
	path := writeConfig(t, `host = "localhost"`)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultClientConfig()
	if cfg.Port != def.Port {
		t.Fatalf("port = %d, want default %d", cfg.Port, def.Port)
	}
	if cfg.SendTimeout != def.SendTimeout || cfg.RecvTimeout != def.RecvTimeout {
		t.Fatalf("timeouts = %v/%v, want defaults", cfg.SendTimeout.Std(), cfg.RecvTimeout.Std())
	}
}

func TestLoadClientConfigRejectsReservedPort(t *testing.T) {
	path := writeConfig(t, "host = \"localhost\"\nport = 80\n")
	if _, err := LoadClientConfig(path); err == nil {
		t.Fatal("expected error for reserved port")
	}
}

func TestLoadClientConfigMissingFile(t *testing.T) {
	if _, err := LoadClientConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if err := ValidateClientConfig(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cfg.Host = "   "
	if err := ValidateClientConfig(cfg); err == nil {
		t.Fatal("expected error for blank host")
	}
	cfg = DefaultClientConfig()
	cfg.SendTimeout = Duration(-time.Second)
	if err := ValidateClientConfig(cfg); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}
