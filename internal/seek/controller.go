// Package seek routes user-requested playhead changes to the handle.
//
// Clock samples are written straight into the session by the clock
// package and never pass through here, so the handle is only ever
// written on behalf of a user action. Even then the write is skipped
// when the handle is already within Tolerance of the target, which keeps
// user seeks from fighting the sampler's small corrections.
package seek

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/session"
)

const (
	// DefaultTolerance is the largest handle/session drift left uncorrected.
	DefaultTolerance = time.Second
	// DefaultSkip is the step for SkipForward and SkipBackward.
	DefaultSkip = 15 * time.Second
)

// Controller reconciles requested positions with the handle.
type Controller struct {
	session   *session.Session
	handle    core.Handle
	tolerance time.Duration
	log       *logrus.Entry
}

// New creates a Controller. A non-positive tolerance means DefaultTolerance.
func New(s *session.Session, h core.Handle, tolerance time.Duration) *Controller {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Controller{
		session:   s,
		handle:    h,
		tolerance: tolerance,
		log:       log.For("seek"),
	}
}

// Seek sets the playhead to t, clamped to [0, duration], and returns the
// stored time.
func (c *Controller) Seek(ctx context.Context, t time.Duration) (time.Duration, error) {
	target := c.session.SetCurrentTime(t)
	return target, c.sync(ctx, target)
}

// SkipForward moves the playhead d later.
func (c *Controller) SkipForward(ctx context.Context, d time.Duration) (time.Duration, error) {
	target := c.session.Skip(d)
	return target, c.sync(ctx, target)
}

// SkipBackward moves the playhead d earlier.
func (c *Controller) SkipBackward(ctx context.Context, d time.Duration) (time.Duration, error) {
	target := c.session.Skip(-d)
	return target, c.sync(ctx, target)
}

// Scrubber starts a two-phase scrub gesture.
func (c *Controller) Scrubber() *Scrubber {
	return &Scrubber{ctrl: c}
}

// sync writes target to the handle when the handle has drifted past the
// tolerance. Nothing is written before the duration is known.
func (c *Controller) sync(ctx context.Context, target time.Duration) error {
	if c.session.State().Duration <= 0 {
		return nil
	}

	pos, err := c.handle.Position(ctx)
	if err == nil && absDiff(pos, target) <= c.tolerance {
		c.log.WithFields(logrus.Fields{"target": target, "handle": pos}).Trace("seek suppressed")
		return nil
	}

	if err := c.handle.Seek(ctx, target); err != nil {
		return fmt.Errorf("seek to %s: %w", core.FormatTime(target), err)
	}
	c.log.WithField("target", target).Debug("handle seeked")
	return nil
}

func absDiff(a, b time.Duration) time.Duration {
	if a > b {
		return a - b
	}
	return b - a
}
