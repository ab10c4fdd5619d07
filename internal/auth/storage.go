package auth

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/tessro/earshot/internal/config"
	"github.com/tessro/earshot/internal/filesystem"
)

// TokenFileName is the token file's name inside the config directory.
const TokenFileName = "token.json"

// TokenStorage keeps the bearer token in a single owner-only JSON file.
type TokenStorage struct {
	path string
}

// NewTokenStorage stores the token at path, or at token.json in the
// earshot config directory when path is empty.
func NewTokenStorage(path string) (*TokenStorage, error) {
	if path == "" {
		dir := config.Dir()
		if dir == "" {
			return nil, fmt.Errorf("no config directory for %s", TokenFileName)
		}
		path = filepath.Join(dir, TokenFileName)
	}
	return &TokenStorage{path: path}, nil
}

// Save replaces the stored token. The file is written beside the target
// and renamed over it so a crash never leaves half a token behind.
func (s *TokenStorage) Save(token *Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	fs := filesystem.API()
	if err := fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := fs.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := fs.Rename(tmp, s.path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load returns the stored token, or nil when there is none.
func (s *TokenStorage) Load() (*Token, error) {
	if !s.Exists() {
		return nil, nil
	}
	data, err := filesystem.API().ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	token := new(Token)
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return token, nil
}

// Delete removes the stored token. Deleting nothing is not an error.
func (s *TokenStorage) Delete() error {
	if !s.Exists() {
		return nil
	}
	if err := filesystem.API().Remove(s.path); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present.
func (s *TokenStorage) Exists() bool {
	ok, err := filesystem.API().Exists(s.path)
	return err == nil && ok
}

// Path returns the token file location.
func (s *TokenStorage) Path() string {
	return s.path
}
