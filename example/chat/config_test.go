package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeConfig drops a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestLoadConfig_SampleFile(t *testing.T) {
	// The sample shipped next to this test must stay loadable.
	cfg, err := LoadConfig("config.toml")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Addr != "127.0.0.1:8474" {
		t.Errorf("Addr = %q, want 127.0.0.1:8474", cfg.Addr)
	}
	if cfg.MaxFrameBytes != 1048576 {
		t.Errorf("MaxFrameBytes = %d, want 1048576", cfg.MaxFrameBytes)
	}
	if !cfg.Compress {
		t.Error("Compress = false, want true")
	}
	if cfg.IdleTimeout != 30*time.Second {
		t.Errorf("IdleTimeout = %v, want 30s", cfg.IdleTimeout)
	}
	if cfg.BufferSize != 16 {
		t.Errorf("BufferSize = %d, want 16", cfg.BufferSize)
	}
	if cfg.ShutdownTimeout != 2*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 2s", cfg.ShutdownTimeout)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "addr = \"10.0.0.1:9000\"\ncompress = true\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Addr != "10.0.0.1:9000" {
		t.Errorf("Addr = %q, want 10.0.0.1:9000", cfg.Addr)
	}
	if !cfg.Compress {
		t.Error("Compress = false, want true")
	}

	defaults := DefaultConfig()
	if cfg.MaxFrameBytes != defaults.MaxFrameBytes {
		t.Errorf("MaxFrameBytes = %d, want default %d", cfg.MaxFrameBytes, defaults.MaxFrameBytes)
	}
	if cfg.IdleTimeout != defaults.IdleTimeout {
		t.Errorf("IdleTimeout = %v, want default %v", cfg.IdleTimeout, defaults.IdleTimeout)
	}
	if cfg.BufferSize != defaults.BufferSize {
		t.Errorf("BufferSize = %d, want default %d", cfg.BufferSize, defaults.BufferSize)
	}
}

func TestLoadConfig_ZeroValueOverridesRejected(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty addr", "addr = \"\"\n"},
		{"zero max frame", "max_frame_bytes = 0\n"},
		{"zero idle timeout", "idle_timeout_seconds = 0\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, c.body)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}
