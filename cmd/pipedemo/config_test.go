// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipedemo.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if !slices.Equal(cfg.Workloads, workloadNames()) {
		t.Fatalf("workloads: got %v, want %v", cfg.Workloads, workloadNames())
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadConfigExample(t *testing.T) {
	cfg, err := loadConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("log level: got %v", cfg.LogLevel)
	}
	if cfg.SpinCount != 16 || cfg.Producers != 3 || cfg.Messages != 500 {
		t.Fatalf("sizes: got %+v", cfg)
	}
	if cfg.Exchanges != 20 || cfg.SessionRounds != 10 {
		t.Fatalf("rounds: got %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout: got %v", cfg.Timeout)
	}
	want := []string{"sharedchan", "portset", "pingpong"}
	if diff := cmp.Diff(want, cfg.Workloads); diff != "" {
		t.Fatalf("workloads mismatch (-want +got):\n%s", diff)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("metrics_addr: got %q", cfg.MetricsAddr)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "producers = 7\n"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Producers != 7 {
		t.Fatalf("producers: got %d", cfg.Producers)
	}
	if cfg.Messages != DefaultConfig().Messages {
		t.Fatalf("messages changed to %d", cfg.Messages)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []struct {
		name, body, want string
	}{
		{"unknown key", "prodcers = 2\n", "unknown config key"},
		{"bad level", "log_level = \"loud\"\n", "log_level"},
		{"bad timeout", "timeout = \"soon\"\n", "timeout"},
		{"zero timeout", "timeout = \"0s\"\n", "timeout must be positive"},
		{"negative spin", "spin_count = -1\n", "spin_count"},
		{"no producers", "producers = 0\n", "producers must be positive"},
		{"unknown workload", "workloads = [\"sharedchan\", \"bogus\"]\n", "bogus"},
		{"empty workloads", "workloads = [\" \"]\n", "no workloads"},
		{"syntax", "producers = \n", "load pipedemo config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tc.body))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
