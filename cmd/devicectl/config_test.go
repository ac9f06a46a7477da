package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/bringauto/internal-client-go/internal/testutil/testlog"
)

func writeAgentConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devicectl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAgentConfigDefaults(t *testing.T) {
	testlog.Start(t)
	path := writeAgentConfig(t, "")
	cfg, err := loadAgentConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := defaultAgentConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("empty file must keep defaults:\n got %+v\nwant %+v", cfg, want)
	}
}

func TestLoadAgentConfigOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeAgentConfig(t, `
profile = "left-button.toml"
status_interval = "250ms"
exchange_timeout = "2s"
connect_timeout = "1s"
handshake_timeout = "3s"
admin_listen_addr = "0.0.0.0:7301"
cors_origins = ["http://fleet.local", " ", "http://ops.local"]
max_recreate_attempts = 5
`)
	cfg, err := loadAgentConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProfilePath != "left-button.toml" {
		t.Fatalf("unexpected profile path: %s", cfg.ProfilePath)
	}
	if cfg.StatusInterval != 250*time.Millisecond || cfg.ExchangeTimeout != 2*time.Second {
		t.Fatalf("unexpected intervals: %+v", cfg)
	}
	if cfg.ConnectTimeout != time.Second || cfg.HandshakeTimeout != 3*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg)
	}
	if cfg.AdminListenAddr != "0.0.0.0:7301" {
		t.Fatalf("unexpected admin addr: %s", cfg.AdminListenAddr)
	}
	if !reflect.DeepEqual(cfg.CorsOrigins, []string{"http://fleet.local", "http://ops.local"}) {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}
	if cfg.MaxRecreateAttempts != 5 {
		t.Fatalf("unexpected recreate attempts: %d", cfg.MaxRecreateAttempts)
	}
}

func TestLoadAgentConfigPartialOverride(t *testing.T) {
	testlog.Start(t)
	path := writeAgentConfig(t, `status_interval = "100ms"`)
	cfg, err := loadAgentConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StatusInterval != 100*time.Millisecond {
		t.Fatalf("override not applied: %v", cfg.StatusInterval)
	}
	if cfg.ConnectTimeout != defaultAgentConfig().ConnectTimeout {
		t.Fatalf("untouched key must keep its default: %v", cfg.ConnectTimeout)
	}
}

func TestLoadAgentConfigBadDuration(t *testing.T) {
	testlog.Start(t)
	path := writeAgentConfig(t, `exchange_timeout = "soon"`)
	if _, err := loadAgentConfig(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestNormalizeOrigins(t *testing.T) {
	testlog.Start(t)
	if got := normalizeOrigins(nil); !reflect.DeepEqual(got, []string{"http://localhost"}) {
		t.Fatalf("empty input must fall back to localhost, got %v", got)
	}
	got := normalizeOrigins([]string{"  http://a  ", "", "http://b"})
	if !reflect.DeepEqual(got, []string{"http://a", "http://b"}) {
		t.Fatalf("unexpected origins: %v", got)
	}
}
