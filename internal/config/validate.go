package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/tessro/earshot/internal/core"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("api: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Search.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("search: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks APIConfig for errors.
func (c *APIConfig) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base_url scheme: %q (must be http or https)", u.Scheme)
		}
	}
	if c.Timeout.Duration < 0 {
		return errors.New("timeout must be non-negative")
	}
	if c.CacheTTL.Duration < 0 {
		return errors.New("cache_ttl must be non-negative")
	}
	return nil
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	var errs []error
	if c.Skip.Duration < 0 {
		errs = append(errs, errors.New("skip must be non-negative"))
	}
	if c.SeekTolerance.Duration < 0 {
		errs = append(errs, errors.New("seek_tolerance must be non-negative"))
	}
	if c.ClockFPS < 0 || c.ClockFPS > 240 {
		errs = append(errs, errors.New("clock_fps must be between 0 and 240 (0 uses the default)"))
	}
	if c.Rate != 0 && !slices.Contains(core.PlaybackRates, c.Rate) {
		errs = append(errs, fmt.Errorf("invalid rate: %v (must be one of %v)", c.Rate, core.PlaybackRates))
	}
	return errors.Join(errs...)
}

// Validate checks SearchConfig for errors.
func (c *SearchConfig) Validate() error {
	if c.Debounce.Duration < 0 {
		return errors.New("debounce must be non-negative")
	}
	if c.MinQueryLength < 0 {
		return errors.New("min_query_length must be non-negative")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "off", "trace", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be off, trace, debug, info, warn, or error)", c.Level)
	}
	return nil
}
