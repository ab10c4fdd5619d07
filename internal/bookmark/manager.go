// Package bookmark keeps a session's named timestamps in step with the
// remote store. Local state changes first; the remote call follows.
package bookmark

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/session"
)

// Store is the remote bookmark collection.
type Store interface {
	ListBookmarks(ctx context.Context, resourceID string) ([]core.Bookmark, error)
	CreateBookmark(ctx context.Context, resourceID, label string, timestamp time.Duration) (core.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) error
}

// Transport moves the playhead and starts playback for jumps.
type Transport interface {
	Seek(ctx context.Context, t time.Duration) (time.Duration, error)
	Play(ctx context.Context) error
}

const tempPrefix = "tmp-"

// Manager performs bookmark operations for one session.
type Manager struct {
	session    *session.Session
	store      Store
	transport  Transport
	resourceID string
	loads      atomic.Uint64
	log        *logrus.Entry
}

// New creates a Manager for resourceID.
func New(s *session.Session, store Store, transport Transport, resourceID string) *Manager {
	return &Manager{
		session:    s,
		store:      store,
		transport:  transport,
		resourceID: resourceID,
		log:        log.For("bookmark").WithField("resource", resourceID),
	}
}

// Load fetches the marks and replaces the list. If loads overlap, only
// the latest one is applied.
func (m *Manager) Load(ctx context.Context) error {
	gen := m.loads.Add(1)

	marks, err := m.store.ListBookmarks(ctx, m.resourceID)
	if gen != m.loads.Load() {
		m.log.Debug("discarding superseded bookmark load")
		return nil
	}
	if err != nil {
		m.session.Notify(errors.NoticeFor("load bookmarks", err))
		return err
	}

	m.session.SetMarks(marks)
	m.log.WithField("count", len(marks)).Debug("bookmarks loaded")
	return nil
}

// Add creates a bookmark at timestamp, clamped to the session duration.
// A pending placeholder shows immediately and is swapped for the
// confirmed bookmark when the store answers. On failure the placeholder
// is withdrawn.
func (m *Manager) Add(ctx context.Context, label string, timestamp time.Duration) (core.Bookmark, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.Bookmark{}, errors.ErrEmptyLabel
	}

	ts := core.ClampTime(timestamp, m.session.State().Duration)
	placeholder := core.Bookmark{
		ID:        tempPrefix + uuid.NewString(),
		Label:     label,
		Timestamp: ts,
		Pending:   true,
	}
	m.session.AddMark(placeholder)

	created, err := m.store.CreateBookmark(ctx, m.resourceID, label, ts)
	if err != nil {
		m.session.RemoveMark(placeholder.ID)
		m.session.Notify(errors.NoticeFor("add bookmark", err))
		return core.Bookmark{}, fmt.Errorf("create bookmark: %w", err)
	}

	if m.session.Closed() {
		return created, nil
	}
	if !m.session.ReplaceMark(placeholder.ID, created) {
		// removed while the create was in flight
		if err := m.store.DeleteBookmark(ctx, created.ID); err != nil {
			m.log.WithError(err).WithField("id", created.ID).Warn("orphaned bookmark not deleted")
		}
		return created, nil
	}

	m.log.WithFields(logrus.Fields{"id": created.ID, "at": ts}).Info("bookmark added")
	return created, nil
}

// Remove drops the bookmark locally, then deletes it remotely. A remote
// failure is reported but the local removal stands. Removing an unknown
// id does nothing.
func (m *Manager) Remove(ctx context.Context, id string) error {
	removed, ok := m.session.RemoveMark(id)
	if !ok || removed.Pending {
		return nil
	}

	if err := m.store.DeleteBookmark(ctx, id); err != nil {
		m.session.Notify(errors.NoticeFor("remove bookmark", err))
		return fmt.Errorf("delete bookmark: %w", err)
	}

	m.log.WithField("id", id).Info("bookmark removed")
	return nil
}

// Jump seeks to the bookmark and starts playback.
func (m *Manager) Jump(ctx context.Context, id string) error {
	mark, ok := m.session.State().Mark(id)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrBookmarkNotFound, id)
	}
	return m.JumpTo(ctx, mark.Timestamp)
}

// JumpTo seeks to t and starts playback.
func (m *Manager) JumpTo(ctx context.Context, t time.Duration) error {
	if _, err := m.transport.Seek(ctx, t); err != nil {
		return err
	}
	return m.transport.Play(ctx)
}
