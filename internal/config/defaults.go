package config

import "time"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	showTranscript := true
	return &Config{
		API: APIConfig{
			BaseURL:  "http://localhost:8000",
			Timeout:  Duration{30 * time.Second},
			CacheTTL: Duration{5 * time.Minute},
		},
		Player: PlayerConfig{
			MPVPath: "mpv",
			Volume:  100,
		},
		Playback: PlaybackConfig{
			Skip:          Duration{15 * time.Second},
			SeekTolerance: Duration{time.Second},
			ClockFPS:      30,
			Rate:          1,
		},
		Search: SearchConfig{
			Debounce:       Duration{500 * time.Millisecond},
			MinQueryLength: 3,
		},
		TUI: TUIConfig{
			Theme:          "auto",
			ShowTranscript: &showTranscript,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// API
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout = d.API.Timeout
	}
	if c.API.CacheTTL.Duration == 0 {
		c.API.CacheTTL = d.API.CacheTTL
	}

	// Player
	if c.Player.MPVPath == "" {
		c.Player.MPVPath = d.Player.MPVPath
	}
	if c.Player.Volume == 0 {
		c.Player.Volume = d.Player.Volume
	}

	// Playback
	if c.Playback.Skip.Duration == 0 {
		c.Playback.Skip = d.Playback.Skip
	}
	if c.Playback.SeekTolerance.Duration == 0 {
		c.Playback.SeekTolerance = d.Playback.SeekTolerance
	}
	if c.Playback.ClockFPS == 0 {
		c.Playback.ClockFPS = d.Playback.ClockFPS
	}
	if c.Playback.Rate == 0 {
		c.Playback.Rate = d.Playback.Rate
	}

	// Search
	if c.Search.Debounce.Duration == 0 {
		c.Search.Debounce = d.Search.Debounce
	}
	if c.Search.MinQueryLength == 0 {
		c.Search.MinQueryLength = d.Search.MinQueryLength
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.ShowTranscript == nil {
		c.TUI.ShowTranscript = d.TUI.ShowTranscript
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// ClockInterval returns the sampling period implied by ClockFPS.
func (c PlaybackConfig) ClockInterval() time.Duration {
	if c.ClockFPS <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.ClockFPS)
}
