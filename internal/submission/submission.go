// Package submission sends a finished session to the scoring service exactly
// once and retires its snapshot on success.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/result"
	syncx "github.com/mind-engage/mindengage-interview/internal/sync"
)

var (
	ErrInFlight         = errors.New("submission: already in flight")
	ErrAlreadySubmitted = errors.New("submission: session already submitted")
	ErrSubmissionFailed = errors.New("submission: scoring failed")
)

type Scorer interface {
	Submit(ctx context.Context, s interview.Session) (json.RawMessage, error)
}

type Results interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	Put(ctx context.Context, r result.Result) error
}

type Snapshots interface {
	Delete(ctx context.Context, id string) error
}

type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

// Outcome is a successful submission: the final session and the stored result.
type Outcome struct {
	Session interview.Session
	Result  result.Result
}

type Controller struct {
	scorer  Scorer
	results Results
	snaps   Snapshots
	events  EventSink
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
	// done holds ids scored but not stored as results; stored ones are
	// refused through Results.Exists.
	done     map[string]struct{}
}

func New(scorer Scorer, results Results, snaps Snapshots, events EventSink) *Controller {
	return &Controller{
		scorer:   scorer,
		results:  results,
		snaps:    snaps,
		events:   events,
		now:      time.Now,
		inflight: map[string]struct{}{},
		done:     map[string]struct{}{},
	}
}

// Final merges pending under the current question and moves the cursor past
// the last section. A terminal session is returned unchanged.
func Final(s interview.Session, pending string) interview.Session {
	if s.Terminal() {
		return s
	}
	s = interview.MergePending(s, pending)
	s.Cursor = interview.Cursor{Section: len(s.Structure.Sections)}
	return s
}

// Finish submits the final form of s. At most one call per session id is in
// flight; a session that was submitted successfully is refused afterwards.
// On failure the snapshot is left untouched and the caller may retry.
func (c *Controller) Finish(ctx context.Context, s interview.Session, pending string) (Outcome, error) {
	final := Final(s, pending)
	if err := c.begin(final.ID); err != nil {
		return Outcome{}, err
	}
	defer c.end(final.ID)

	log := logging.Session(final.ID)

	exists, err := c.results.Exists(ctx, final.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: result check: %v", ErrSubmissionFailed, err)
	}
	if exists {
		if err := c.snaps.Delete(ctx, final.ID); err != nil {
			log.WithError(err).Warn("delete stale snapshot")
		}
		return Outcome{}, ErrAlreadySubmitted
	}

	payload, err := c.scorer.Submit(ctx, final)
	if err != nil {
		log.WithError(err).Warn("scoring submission failed")
		c.record(ctx, syncx.EventSubmitFailed, final.ID, map[string]any{"error": err.Error()})
		return Outcome{}, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	r := result.Result{
		SessionID:   final.ID,
		UserID:      final.UserID,
		SubmittedAt: c.now().Unix(),
		Payload:     payload,
	}
	// scored already; without a stored result only done refuses a second submit
	if err := c.results.Put(ctx, r); err != nil {
		log.WithError(err).Error("store result")
		c.markDone(final.ID)
	}
	if err := c.snaps.Delete(ctx, final.ID); err != nil {
		log.WithError(err).Error("delete snapshot after submission")
	}
	c.record(ctx, syncx.EventSessionSubmitted, final.ID, map[string]any{
		"user_id":  final.UserID,
		"answered": len(final.Answers),
	})
	log.Info("session submitted")
	return Outcome{Session: final, Result: r}, nil
}

func (c *Controller) begin(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.done[id]; ok {
		return ErrAlreadySubmitted
	}
	if _, ok := c.inflight[id]; ok {
		return ErrInFlight
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) end(id string) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
}

func (c *Controller) markDone(id string) {
	c.mu.Lock()
	c.done[id] = struct{}{}
	c.mu.Unlock()
}

func (c *Controller) record(ctx context.Context, typ, key string, data any) {
	if c.events == nil {
		return
	}
	if err := c.events.Record(ctx, typ, key, data); err != nil {
		logging.Session(key).WithError(err).Warn("event log append failed")
	}
}
