package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/tessro/earshot/internal/api"
	"github.com/tessro/earshot/internal/auth"
	"github.com/tessro/earshot/internal/catalog"
	"github.com/tessro/earshot/internal/clock"
	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/engine"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/media/mpv"
	"github.com/tessro/earshot/internal/search"
	"github.com/tessro/earshot/internal/wizard"
)

// newClient builds a backend client with the stored token loaded.
func newClient() (*api.Client, error) {
	storage, err := auth.NewTokenStorage(cfg.API.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}
	client := api.New(cfg.API.BaseURL, cfg.API.Timeout.Duration, storage)
	if err := client.LoadToken(); err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	return client, nil
}

// authedClient is newClient for commands that need a login.
func authedClient() (*api.Client, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if !client.IsAuthenticated() {
		return nil, fmt.Errorf("%w. Run 'earshot auth login' first", errors.ErrNotAuthenticated)
	}
	return client, nil
}

// newEngine wires the engine to the backend and to one mpv process per
// selected resource.
func newEngine(client *api.Client) *engine.Engine {
	interval := cfg.Playback.ClockInterval()
	return engine.New(engine.Options{
		Store: client,
		NewHandle: func(ctx context.Context) (core.Handle, error) {
			headers, err := client.AuthHeaders()
			if err != nil {
				return nil, err
			}
			h, err := mpv.Start(ctx, mpv.Options{
				Path:      cfg.Player.MPVPath,
				SocketDir: cfg.Player.SocketDir,
				ExtraArgs: cfg.Player.ExtraArgs,
				Volume:    cfg.Player.Volume,
				Headers:   headers,
				Log:       log.For("mpv"),
			})
			if err != nil {
				return nil, err
			}
			return h, nil
		},
		NewScheduler: func() clock.Scheduler { return clock.NewTicker(interval) },
		Volume:       cfg.Player.Volume,
		Rate:         cfg.Playback.Rate,
		Skip:         cfg.Playback.Skip.Duration,
		Tolerance:    cfg.Playback.SeekTolerance.Duration,
		Search: search.Options{
			Window:         cfg.Search.Debounce.Duration,
			MinQueryLength: cfg.Search.MinQueryLength,
		},
	})
}

// newCatalog serves the recording list through the on-disk cache.
func newCatalog(client *api.Client) *catalog.Catalog {
	return catalog.New(catalog.DefaultPath(), cfg.API.CacheTTL.Duration, client.ListResources)
}

// resolveResource turns an id or name fragment into a resource id. With
// no argument the picker runs when stdout is a terminal.
func resolveResource(ctx context.Context, client *api.Client, args []string) (string, error) {
	cat := newCatalog(client)
	if wizard.NeedsResource(args) {
		picked, err := wizard.NewInteractive(cat.Refresh).PromptResource(ctx)
		if err != nil {
			return "", err
		}
		if picked == nil {
			return "", fmt.Errorf("no recording selected")
		}
		return picked.ID, nil
	}

	query := strings.Join(args, " ")
	resources, err := cat.Resources(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list recordings: %w", err)
	}
	if id, ok := matchResource(resources, query); ok {
		return id, nil
	}

	// the cached list may predate an upload
	if resources, err = cat.Refresh(ctx); err != nil {
		return "", fmt.Errorf("failed to list recordings: %w", err)
	}
	if id, ok := matchResource(resources, query); ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", errors.ErrResourceNotFound, query)
}

func matchResource(resources []core.Resource, query string) (string, bool) {
	for _, r := range resources {
		if r.ID == query {
			return r.ID, true
		}
	}
	if matches := wizard.Filter(resources, query); len(matches) > 0 {
		return matches[0].ID, true
	}
	return "", false
}
