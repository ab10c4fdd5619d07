package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	API      APIConfig      `toml:"api"`
	Player   PlayerConfig   `toml:"player"`
	Playback PlaybackConfig `toml:"playback"`
	Search   SearchConfig   `toml:"search"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL   string   `toml:"base_url"`
	Timeout   Duration `toml:"timeout"`
	TokenFile string   `toml:"token_file"`
	// CacheTTL is how long the recording list is served from cache.
	CacheTTL Duration `toml:"cache_ttl"`
}

// PlayerConfig holds mpv settings.
type PlayerConfig struct {
	MPVPath   string   `toml:"mpv_path"`
	SocketDir string   `toml:"socket_dir"`
	ExtraArgs []string `toml:"extra_args"`
	Volume    int      `toml:"volume"`
}

// PlaybackConfig holds engine tuning.
type PlaybackConfig struct {
	Skip          Duration `toml:"skip"`
	SeekTolerance Duration `toml:"seek_tolerance"`
	ClockFPS      int      `toml:"clock_fps"`
	Rate          float64  `toml:"rate"`
}

// SearchConfig holds search-as-you-type settings.
type SearchConfig struct {
	Debounce       Duration `toml:"debounce"`
	MinQueryLength int      `toml:"min_query_length"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme          string `toml:"theme"`
	ShowTranscript *bool  `toml:"show_transcript"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
	JSON  bool   `toml:"json"`
}

// Duration is a time.Duration written as a string ("500ms", "15s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
