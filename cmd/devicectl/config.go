package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type agentConfig struct {
	ProfilePath         string
	StatusInterval      time.Duration
	ExchangeTimeout     time.Duration
	ConnectTimeout      time.Duration
	HandshakeTimeout    time.Duration
	AdminListenAddr     string
	CorsOrigins         []string
	MaxRecreateAttempts int
}

func defaultAgentConfig() agentConfig {
	return agentConfig{
		ProfilePath:         "device.toml",
		StatusInterval:      time.Second,
		ExchangeTimeout:     10 * time.Second,
		ConnectTimeout:      5 * time.Second,
		HandshakeTimeout:    5 * time.Second,
		AdminListenAddr:     "127.0.0.1:7300",
		MaxRecreateAttempts: 0,
	}
}

type fileConfig struct {
	Profile             string   `toml:"profile"`
	StatusInterval      string   `toml:"status_interval"`
	ExchangeTimeout     string   `toml:"exchange_timeout"`
	ConnectTimeout      string   `toml:"connect_timeout"`
	HandshakeTimeout    string   `toml:"handshake_timeout"`
	AdminListenAddr     string   `toml:"admin_listen_addr"`
	CorsOrigins         []string `toml:"cors_origins"`
	MaxRecreateAttempts int      `toml:"max_recreate_attempts"`
}

func loadAgentConfig(path string) (agentConfig, error) {
	cfg := defaultAgentConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return agentConfig{}, fmt.Errorf("load agent config: %w", err)
	}

	if meta.IsDefined("profile") {
		p := strings.TrimSpace(raw.Profile)
		if p != "" {
			cfg.ProfilePath = p
		}
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"status_interval", raw.StatusInterval, &cfg.StatusInterval},
		{"exchange_timeout", raw.ExchangeTimeout, &cfg.ExchangeTimeout},
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.HandshakeTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return agentConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if meta.IsDefined("admin_listen_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListenAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("max_recreate_attempts") {
		cfg.MaxRecreateAttempts = raw.MaxRecreateAttempts
	}

	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return []string{"http://localhost"}
	}
	return out
}
