package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/tessro/earshot/internal/filesystem"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.earshotrc, $XDG_CONFIG_HOME/earshot/config.toml
func Load() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		cfg := &Config{}
		cfg.ApplyDefaults()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Write encodes cfg as TOML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return fs.WriteFile(path, buf.Bytes(), 0o600)
}

// Dir returns the earshot configuration directory.
func Dir() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "earshot")
}

// DefaultPath returns the path `config init` writes to.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".earshotrc"))
	}
	if p := DefaultPath(); p != "" {
		paths = append(paths, p)
	}

	fs := filesystem.API()
	for _, p := range paths {
		if ok, _ := fs.Exists(p); ok {
			return p
		}
	}

	return ""
}

// loadDotEnv reads variables from ./.env and the config directory's
// .env file. Variables already set in the environment win.
func loadDotEnv() {
	paths := []string{".env"}
	if dir := Dir(); dir != "" {
		paths = append(paths, filepath.Join(dir, ".env"))
	}
	for _, p := range paths {
		if ok, _ := filesystem.API().Exists(p); ok {
			_ = godotenv.Load(p)
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	loadDotEnv()
	if v := os.Getenv("EARSHOT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("EARSHOT_TOKEN_FILE"); v != "" {
		cfg.API.TokenFile = v
	}
	if v := os.Getenv("EARSHOT_MPV_PATH"); v != "" {
		cfg.Player.MPVPath = v
	}
	if v := os.Getenv("EARSHOT_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("EARSHOT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("EARSHOT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
