package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tessro/earshot/internal/filesystem"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadFrom(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)

	path := filepath.Join("/cfg", "config.toml")
	data := `
[api]
base_url = "https://audio.example.com"
timeout = "5s"

[playback]
skip = "10s"
clock_fps = 60

[search]
debounce = "250ms"
`
	if err := filesystem.API().WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.API.BaseURL != "https://audio.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout.Duration != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Playback.Skip.Duration != 10*time.Second {
		t.Errorf("Skip = %v", cfg.Playback.Skip)
	}
	if got := cfg.Playback.ClockInterval(); got != time.Second/60 {
		t.Errorf("ClockInterval() = %v", got)
	}
	if cfg.Search.Debounce.Duration != 250*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Search.Debounce)
	}
	// untouched fields fall back to defaults
	if cfg.Playback.SeekTolerance.Duration != time.Second {
		t.Errorf("SeekTolerance = %v, want 1s", cfg.Playback.SeekTolerance)
	}
	if cfg.Search.MinQueryLength != 3 {
		t.Errorf("MinQueryLength = %d, want 3", cfg.Search.MinQueryLength)
	}
}

func TestLoadFromRejectsBadDuration(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)

	path := "/cfg/bad.toml"
	_ = filesystem.API().WriteFile(path, []byte("[playback]\nskip = \"soon\"\n"), 0o600)

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() expected error for invalid duration")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EARSHOT_API_URL", "http://10.0.0.2:9000")
	t.Setenv("EARSHOT_MPV_PATH", "/opt/mpv/bin/mpv")
	t.Setenv("EARSHOT_LOG_LEVEL", "debug")

	cfg := &Config{}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	if cfg.API.BaseURL != "http://10.0.0.2:9000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Player.MPVPath != "/opt/mpv/bin/mpv" {
		t.Errorf("MPVPath = %q", cfg.Player.MPVPath)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	filesystem.SetMemMapFs()
	t.Cleanup(filesystem.SetOsFs)

	path := "/home/u/.config/earshot/config.toml"
	if err := Write(path, Default()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Playback.Skip.Duration != 15*time.Second {
		t.Errorf("Skip = %v", cfg.Playback.Skip)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://x" }, "api: invalid base_url scheme"},
		{"volume", func(c *Config) { c.Player.Volume = 120 }, "player: volume"},
		{"rate", func(c *Config) { c.Playback.Rate = 3 }, "playback: invalid rate"},
		{"theme", func(c *Config) { c.TUI.Theme = "neon" }, "tui: invalid theme"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log: invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
