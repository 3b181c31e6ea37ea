// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config selects and sizes the workloads pipedemo runs.
type Config struct {
	LogLevel      zerolog.Level
	SpinCount     int
	Producers     int
	Messages      int
	Exchanges     int
	SessionRounds int
	Timeout       time.Duration
	Workloads     []string

	// MetricsAddr, if set, serves /metrics while the workloads run.
	MetricsAddr string
}

// DefaultConfig runs every workload at a small size.
func DefaultConfig() Config {
	return Config{
		LogLevel:      zerolog.InfoLevel,
		SpinCount:     0,
		Producers:     4,
		Messages:      10000,
		Exchanges:     100,
		SessionRounds: 100,
		Timeout:       30 * time.Second,
		Workloads:     workloadNames(),
	}
}

type fileConfig struct {
	LogLevel      string   `toml:"log_level"`
	SpinCount     int      `toml:"spin_count"`
	Producers     int      `toml:"producers"`
	Messages      int      `toml:"messages"`
	Exchanges     int      `toml:"exchanges"`
	SessionRounds int      `toml:"session_rounds"`
	Timeout       string   `toml:"timeout"`
	Workloads     []string `toml:"workloads"`
	MetricsAddr   string   `toml:"metrics_addr"`
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load pipedemo config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		level, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return Config{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("spin_count") {
		cfg.SpinCount = raw.SpinCount
	}
	if meta.IsDefined("producers") {
		cfg.Producers = raw.Producers
	}
	if meta.IsDefined("messages") {
		cfg.Messages = raw.Messages
	}
	if meta.IsDefined("exchanges") {
		cfg.Exchanges = raw.Exchanges
	}
	if meta.IsDefined("session_rounds") {
		cfg.SessionRounds = raw.SessionRounds
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("workloads") {
		cfg.Workloads = normalizeWorkloads(raw.Workloads)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func normalizeWorkloads(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (c Config) validate() error {
	var errs []error
	if c.SpinCount < 0 {
		errs = append(errs, errors.New("spin_count must not be negative"))
	}
	if c.Producers <= 0 {
		errs = append(errs, errors.New("producers must be positive"))
	}
	if c.Messages <= 0 {
		errs = append(errs, errors.New("messages must be positive"))
	}
	if c.Exchanges <= 0 {
		errs = append(errs, errors.New("exchanges must be positive"))
	}
	if c.SessionRounds <= 0 {
		errs = append(errs, errors.New("session_rounds must be positive"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if len(c.Workloads) == 0 {
		errs = append(errs, errors.New("no workloads selected"))
	}
	for _, name := range c.Workloads {
		if _, ok := workloads[name]; !ok {
			errs = append(errs, fmt.Errorf("unknown workload %q", name))
		}
	}
	return errors.Join(errs...)
}
