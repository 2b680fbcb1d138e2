package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meshview/meshview/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshview.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_EmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider.Window != "24h" {
		t.Errorf("default window = %q", cfg.Provider.Window)
	}
	if cfg.Refresh.Interval.Std() != 60*time.Second {
		t.Errorf("default interval = %v", cfg.Refresh.Interval.Std())
	}
	if cfg.Refresh.MaxHops != 5 {
		t.Errorf("default max_hops = %d", cfg.Refresh.MaxHops)
	}
	if !cfg.Filter.IncludeBridge {
		t.Error("bridge should be included by default")
	}
	if cfg.Filter.ZeroSignal != "keep" {
		t.Errorf("default zero_signal = %q", cfg.Filter.ZeroSignal)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("default cache backend = %q", cfg.Cache.Backend)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[provider]
url = "https://mesh.example.org/api"
window = "48h"
timeout = "5s"

[refresh]
interval = "30s"
max_hops = 2

[filter]
force_bidirectional = true
link_window = "12h"
zero_signal = "suppress"

[cache]
backend = "none"

[api]
listen = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider.URL != "https://mesh.example.org/api" {
		t.Errorf("url = %q", cfg.Provider.URL)
	}
	if cfg.Provider.Timeout.Std() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Provider.Timeout.Std())
	}
	if cfg.Refresh.MaxHops != 2 {
		t.Errorf("max_hops = %d", cfg.Refresh.MaxHops)
	}
	if !cfg.Filter.ForceBidirectional {
		t.Error("force_bidirectional not applied")
	}
	if cfg.Filter.LinkWindow.Std() != 12*time.Hour {
		t.Errorf("link_window = %v", cfg.Filter.LinkWindow.Std())
	}
	if cfg.API.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.API.Listen)
	}

	opts := cfg.BuildOptions()
	if !opts.ForceBidirectional || opts.LinkWindow != 12*time.Hour || opts.ZeroSignal != "suppress" {
		t.Errorf("BuildOptions mapping wrong: %+v", opts)
	}
}

func TestLoad_EnvOverridesToken(t *testing.T) {
	t.Setenv("MESHVIEW_TOKEN", "env-secret")
	path := writeConfig(t, `
[provider]
token = "file-secret"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Provider.Token != "env-secret" {
		t.Errorf("token = %q, env must win", cfg.Provider.Token)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"BadBackend", "[cache]\nbackend = \"memcached\"\n"},
		{"RedisWithoutAddr", "[cache]\nbackend = \"redis\"\n"},
		{"BadZeroSignal", "[filter]\nzero_signal = \"maybe\"\n"},
		{"NegativeHops", "[refresh]\nmax_hops = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("got %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("got %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "provider = [broken")
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("got %v, want INVALID_CONFIG", err)
	}
}
