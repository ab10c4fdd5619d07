// Package catalog keeps the recording list in an on-disk cache so that
// resolving a recording by name does not hit the backend every time.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/filesystem"
	"github.com/tessro/earshot/internal/log"
)

// ListFunc fetches the recording list from the backend.
type ListFunc func(ctx context.Context) ([]core.Resource, error)

// Catalog serves the recording list from cache until it expires.
type Catalog struct {
	mu    sync.Mutex
	cache *gache.Cache[[]core.Resource]
	list  ListFunc
	log   *logrus.Entry
}

// New creates a Catalog stored at path. A zero lifetime never expires.
func New(path string, lifetime time.Duration, list ListFunc) *Catalog {
	return &Catalog{
		cache: gache.New[[]core.Resource](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: &filesystem.GacheFs{},
		}),
		list: list,
		log:  log.For("catalog"),
	}
}

// Resources returns the cached list, fetching it when missing or expired.
func (c *Catalog) Resources(ctx context.Context) ([]core.Resource, error) {
	c.mu.Lock()
	cached, expired, err := c.cache.Get()
	c.mu.Unlock()
	if err == nil && !expired && cached != nil {
		return cached, nil
	}
	return c.Refresh(ctx)
}

// Refresh fetches the list and replaces the cached copy.
func (c *Catalog) Refresh(ctx context.Context) ([]core.Resource, error) {
	resources, err := c.list(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.cache.Set(resources); err != nil {
		c.log.WithError(err).Debug("recording list not cached")
	}
	return resources, nil
}

// DefaultPath returns the cache file location.
func DefaultPath() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserCacheDir(); err != nil {
			return filepath.Join(os.TempDir(), "earshot", "resources.json")
		}
	}
	return filepath.Join(dir, "earshot", "resources.json")
}
