// Package filesystem routes file access through afero so tests can run
// against an in-memory backend.
package filesystem

import (
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

var (
	mu      sync.RWMutex
	backend = afero.Afero{Fs: afero.NewOsFs()}
)

// API returns the active backend.
func API() afero.Afero {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetOsFs restores the operating system backend.
func SetOsFs() {
	mu.Lock()
	backend = afero.Afero{Fs: afero.NewOsFs()}
	mu.Unlock()
}

// SetMemMapFs swaps in a fresh in-memory backend.
func SetMemMapFs() {
	mu.Lock()
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
	mu.Unlock()
}

// GacheFs routes gache's file access through the active backend.
type GacheFs struct{}

// OpenFile opens a file on the active backend.
func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

// MkdirAll creates a directory on the active backend.
func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
