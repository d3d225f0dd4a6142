// Package engine owns live interview pages. A page holds one session, the
// answer being edited and at most one section timer; every event for a page
// (user action or timer expiry) runs under the page lock, one at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-interview/internal/bootstrap"
	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/result"
	"github.com/mind-engage/mindengage-interview/internal/submission"
	syncx "github.com/mind-engage/mindengage-interview/internal/sync"
	"github.com/mind-engage/mindengage-interview/internal/telemetry"
	"github.com/mind-engage/mindengage-interview/internal/timer"
)

var (
	ErrNotOpen       = errors.New("engine: session is not open")
	ErrInvalidAnswer = errors.New("engine: invalid answer")
	ErrNotAtEnd      = errors.New("engine: finish is only allowed on the last question")
	ErrTerminal      = errors.New("engine: session has no current question")
	ErrTimeUp        = errors.New("engine: section time is up; only finish is allowed")
)

type Entrant interface {
	Enter(ctx context.Context, req bootstrap.Request) (bootstrap.Entry, error)
}

type Snapshots interface {
	Save(ctx context.Context, s interview.Session) error
}

type Finisher interface {
	Finish(ctx context.Context, s interview.Session, pending string) (submission.Outcome, error)
}

type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Options struct {
	Clock    timer.Clock
	Recorder telemetry.Recorder
	Events   EventSink
	// IdleTTL closes pages with no activity for this long; zero keeps them.
	IdleTTL time.Duration
	Now     func() time.Time
}

// State is what every page operation hands back to the presentation layer.
type State struct {
	View    interview.View `json:"view"`
	Outcome string         `json:"outcome"`
	Result  *result.Result `json:"result,omitempty"`
	// Error is the last failed submission, kept until a finish succeeds.
	Error string `json:"error,omitempty"`
}

const (
	OutcomeOpened           = "opened"
	OutcomeDraft            = "draft"
	OutcomeSubmitted        = "submitted"
	OutcomeSubmissionFailed = "submission_failed"
)

type Engine struct {
	boot     Entrant
	snaps    Snapshots
	finisher Finisher
	clock    timer.Clock
	rec      telemetry.Recorder
	events   EventSink
	idleTTL  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	pages map[string]*page
}

type page struct {
	mu        sync.Mutex
	sess      interview.Session
	draft     string
	timer     *timer.Timer
	gen       uint64 // bumped whenever the timer is replaced or stopped
	finishing bool
	closed    bool
	lastSeen  time.Time
	// forced is set once a timed-out last section failed to submit; the
	// page then accepts nothing but a finish retry.
	forced  bool
	lastErr string
}

func New(boot Entrant, snaps Snapshots, finisher Finisher, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = timer.RealClock
	}
	if opts.Recorder == nil {
		opts.Recorder = telemetry.NoOp{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		boot:     boot,
		snaps:    snaps,
		finisher: finisher,
		clock:    opts.Clock,
		rec:      opts.Recorder,
		events:   opts.Events,
		idleTTL:  opts.IdleTTL,
		now:      opts.Now,
		pages:    map[string]*page{},
	}
}

// Enter runs the bootstrapper and opens a page for Created and Resumed
// entries. An already open page is reused with its running timer.
func (e *Engine) Enter(ctx context.Context, req bootstrap.Request) (bootstrap.Entry, *State, error) {
	entry, err := e.boot.Enter(ctx, req)
	if err != nil {
		return bootstrap.Entry{}, nil, err
	}
	e.rec.SessionEntered(ctx, string(entry.Kind))

	switch entry.Kind {
	case bootstrap.Created, bootstrap.Resumed:
	case bootstrap.Completed, bootstrap.Expired:
		e.Close(entry.SessionID())
		return entry, nil, nil
	default:
		return entry, nil, nil
	}

	p := e.open(entry.Session)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = e.now()
	st := e.stateLocked(p, OutcomeOpened)
	return entry, &st, nil
}

func (e *Engine) open(s interview.Session) *page {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.pages[s.ID]; ok && !p.closed {
		return p
	}
	p := &page{sess: s, lastSeen: e.now()}
	p.mu.Lock()
	p.draft = storedAnswer(s)
	e.startTimerLocked(p)
	p.mu.Unlock()
	e.pages[s.ID] = p
	logging.Session(s.ID).WithFields(cursorFields(s)).Debug("page opened")
	return p
}

// View returns the current view state without changing anything.
func (e *Engine) View(ctx context.Context, id, userID string) (State, error) {
	p, err := e.lockPage(id, userID)
	if err != nil {
		return State{}, err
	}
	defer p.mu.Unlock()
	return e.stateLocked(p, OutcomeDraft), nil
}

// Draft replaces the in-progress answer for the current question. Drafts are
// merged into the session by the next transition.
func (e *Engine) Draft(ctx context.Context, id, userID, value string) (State, error) {
	p, err := e.lockPage(id, userID)
	if err != nil {
		return State{}, err
	}
	defer p.mu.Unlock()
	if p.forced {
		return State{}, ErrTimeUp
	}
	if err := checkAnswer(p.sess, value); err != nil {
		return State{}, err
	}
	p.draft = value
	return e.stateLocked(p, OutcomeDraft), nil
}

// Advance merges value (or the current draft when value is nil) and moves
// one step in dir. Forward out of the last section submits the session.
func (e *Engine) Advance(ctx context.Context, id, userID string, dir interview.Direction, value *string) (State, error) {
	p, err := e.lockPage(id, userID)
	if err != nil {
		return State{}, err
	}
	defer p.mu.Unlock()
	if p.forced {
		return State{}, ErrTimeUp
	}
	pending := p.draft
	if value != nil {
		pending = *value
	}
	if err := checkAnswer(p.sess, pending); err != nil {
		return State{}, err
	}
	return e.transitionLocked(ctx, p, dir, pending, "user")
}

// Finish submits from the last question, or retries a failed submission.
// After a timed-out submission failed, the retry sends the answers as they
// were at expiry and value is ignored.
func (e *Engine) Finish(ctx context.Context, id, userID string, value *string) (State, error) {
	p, err := e.lockPage(id, userID)
	if err != nil {
		return State{}, err
	}
	defer p.mu.Unlock()
	if p.forced {
		return e.finishLocked(ctx, p, p.draft, "user")
	}
	if !p.sess.Terminal() && !interview.NewView(p.sess, -1).IsLast {
		return State{}, ErrNotAtEnd
	}
	pending := p.draft
	if value != nil {
		pending = *value
	}
	if !p.sess.Terminal() {
		if err := checkAnswer(p.sess, pending); err != nil {
			return State{}, err
		}
	}
	return e.finishLocked(ctx, p, pending, "user")
}

// Close stops the page timer and forgets the page. The snapshot is kept.
func (e *Engine) Close(id string) {
	e.mu.Lock()
	p, ok := e.pages[id]
	delete(e.pages, id)
	e.mu.Unlock()
	if !ok {
		return
	}
	p.mu.Lock()
	p.closed = true
	p.gen++
	p.timer.Stop()
	p.mu.Unlock()
}

// Pages reports how many pages are live.
func (e *Engine) Pages() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pages)
}

// Sweep closes pages idle for longer than IdleTTL and returns how many.
func (e *Engine) Sweep() int {
	if e.idleTTL <= 0 {
		return 0
	}
	cutoff := e.now().Add(-e.idleTTL)
	e.mu.Lock()
	var idle []string
	for id, p := range e.pages {
		if !p.mu.TryLock() {
			continue
		}
		if !p.finishing && p.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
		p.mu.Unlock()
	}
	e.mu.Unlock()
	for _, id := range idle {
		e.Close(id)
	}
	return len(idle)
}

// Run sweeps idle pages every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := e.Sweep(); n > 0 {
				logging.Logger.WithField("closed", n).Debug("idle pages swept")
			}
		}
	}
}

// Shutdown closes every page.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.pages))
	for id := range e.pages {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Close(id)
	}
}

/* ---------------- page internals (p.mu held) ---------------- */

func (e *Engine) lockPage(id, userID string) (*page, error) {
	e.mu.Lock()
	p, ok := e.pages[id]
	e.mu.Unlock()
	if !ok {
		return nil, ErrNotOpen
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrNotOpen
	}
	if userID != "" && p.sess.UserID != userID {
		p.mu.Unlock()
		return nil, bootstrap.ErrNotOwner
	}
	if p.finishing {
		p.mu.Unlock()
		return nil, submission.ErrInFlight
	}
	p.lastSeen = e.now()
	return p, nil
}

func (e *Engine) transitionLocked(ctx context.Context, p *page, dir interview.Direction, pending, cause string) (State, error) {
	next, outcome := interview.Advance(p.sess, dir, pending)
	log := logging.Session(p.sess.ID).WithField("cause", cause)

	switch outcome {
	case interview.Completed:
		log.Info("last section completed")
		st, err := e.finishLocked(ctx, p, pending, cause)
		if err == nil {
			e.rec.Transition(ctx, cause, outcome.String())
		}
		return st, err
	case interview.AtFirstQuestion:
		if !sameAnswers(p.sess, next) {
			if err := e.snaps.Save(ctx, next); err != nil {
				return State{}, fmt.Errorf("persist: %w", err)
			}
			p.sess = next
		}
		e.rec.Transition(ctx, cause, outcome.String())
		p.draft = pending
		p.lastErr = ""
		return e.stateLocked(p, outcome.String()), nil
	}

	if err := e.snaps.Save(ctx, next); err != nil {
		// page unchanged; the draft survives for a retry
		return State{}, fmt.Errorf("persist: %w", err)
	}
	e.rec.Transition(ctx, cause, outcome.String())
	sectionChanged := next.Cursor.Section != p.sess.Cursor.Section
	p.sess = next
	p.draft = storedAnswer(next)
	p.lastErr = ""
	if sectionChanged {
		e.startTimerLocked(p)
	}
	log.WithFields(cursorFields(next)).Debug("moved")
	return e.stateLocked(p, outcome.String()), nil
}

// finishLocked releases p.mu for the scoring call; the finishing flag keeps
// other events off the page meanwhile. The timer stays stopped after a
// failure, so a timed-out page is pinned to finish retries.
func (e *Engine) finishLocked(ctx context.Context, p *page, pending, cause string) (State, error) {
	id := p.sess.ID
	sess := p.sess
	p.finishing = true
	p.gen++
	p.timer.Stop()
	p.draft = pending

	p.mu.Unlock()
	out, err := e.finisher.Finish(ctx, sess, pending)
	p.mu.Lock()
	p.finishing = false

	switch {
	case err == nil:
		e.rec.Submission(ctx, "success")
	case errors.Is(err, submission.ErrAlreadySubmitted):
		e.rec.Submission(ctx, "refused")
	default:
		e.rec.Submission(ctx, "failure")
		p.lastErr = err.Error()
		if cause == "timeout" {
			p.forced = true
		}
		return State{}, err
	}

	p.closed = true
	e.mu.Lock()
	if e.pages[id] == p {
		delete(e.pages, id)
	}
	e.mu.Unlock()
	if err != nil {
		return State{}, err
	}
	st := State{
		View:    interview.NewView(out.Session, -1),
		Outcome: OutcomeSubmitted,
		Result:  &out.Result,
	}
	return st, nil
}

func (e *Engine) startTimerLocked(p *page) {
	p.timer.Stop()
	p.gen++
	sec, ok := p.sess.CurrentSection()
	if !ok {
		p.timer = nil
		return
	}
	id, gen := p.sess.ID, p.gen
	p.timer = timer.Start(sec.TimeLimitMinutes, e.clock, func() { e.expire(id, gen) })
}

// expire runs on the timer goroutine.
func (e *Engine) expire(id string, gen uint64) {
	e.mu.Lock()
	p, ok := e.pages[id]
	e.mu.Unlock()
	if !ok {
		return
	}
	p.mu.Lock()
	if p.closed || p.finishing || p.gen != gen {
		p.mu.Unlock()
		return
	}
	ctx := context.Background()
	from := p.sess.Cursor
	logging.Session(id).WithFields(cursorFields(p.sess)).Info("section time is up")
	e.record(ctx, syncx.EventForcedTransition, id, map[string]any{
		"section":  from.Section,
		"question": from.Question,
	})
	st, err := e.transitionLocked(ctx, p, interview.Forward, p.draft, "timeout")
	if err != nil {
		logging.Session(id).WithError(err).WithField("finish_only", p.forced).Error("forced transition")
	} else {
		logging.Session(id).WithField("outcome", st.Outcome).Debug("forced transition done")
	}
	p.mu.Unlock()
}

func (e *Engine) stateLocked(p *page, outcome string) State {
	v := interview.NewView(p.sess, p.timer.Remaining())
	if !v.Terminal {
		v.Answer = p.draft
	}
	if p.lastErr != "" {
		return State{View: v, Outcome: OutcomeSubmissionFailed, Error: p.lastErr}
	}
	return State{View: v, Outcome: outcome}
}

func (e *Engine) record(ctx context.Context, typ, key string, data any) {
	if e.events == nil {
		return
	}
	if err := e.events.Record(ctx, typ, key, data); err != nil {
		logging.Session(key).WithError(err).Warn("event log append failed")
	}
}

func checkAnswer(s interview.Session, value string) error {
	q, ok := s.CurrentQuestion()
	if !ok {
		return ErrTerminal
	}
	if err := interview.ValidateAnswer(q, value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswer, err)
	}
	return nil
}

func storedAnswer(s interview.Session) string {
	q, ok := s.CurrentQuestion()
	if !ok {
		return ""
	}
	return s.Answers[q.ID]
}

func sameAnswers(a, b interview.Session) bool {
	if len(a.Answers) != len(b.Answers) {
		return false
	}
	for k, v := range a.Answers {
		if w, ok := b.Answers[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func cursorFields(s interview.Session) map[string]any {
	return map[string]any{"section": s.Cursor.Section, "question": s.Cursor.Question}
}
