// Package bootstrap decides, on entry to the interview page, whether to create
// a new session, resume a persisted one, or route the caller elsewhere.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mind-engage/mindengage-interview/internal/generate"
	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/snapshot"
	syncx "github.com/mind-engage/mindengage-interview/internal/sync"
)

// NewSessionID is the route sentinel that asks for a fresh session.
const NewSessionID = "new"

type Kind string

const (
	Created             Kind = "created"
	Resumed             Kind = "resumed"
	Completed           Kind = "completed" // result exists: redirect to results
	Expired             Kind = "expired"   // no snapshot and no result
	PrerequisiteMissing Kind = "prerequisite_missing"
)

var (
	ErrCollaborator = errors.New("bootstrap: collaborator failure")
	ErrNotOwner     = errors.New("bootstrap: session belongs to another user")
)

type ProfileChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

type Generator interface {
	Create(ctx context.Context, userID string) (generate.Generated, error)
}

type ResultChecker interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type Snapshots interface {
	Save(ctx context.Context, s interview.Session) error
	Load(ctx context.Context, id string) (interview.Session, error)
	Delete(ctx context.Context, id string) error
}

type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type Request struct {
	SessionID string
	UserID    string
	// EntryKey identifies one "start new interview" action; repeated entries
	// with the same key get the same session.
	EntryKey string
}

type Entry struct {
	Kind    Kind
	Session interview.Session // set for Created and Resumed
}

func (e Entry) SessionID() string { return e.Session.ID }

type Bootstrapper struct {
	profiles ProfileChecker
	gen      Generator
	results  ResultChecker
	snaps    Snapshots
	events   EventSink

	group singleflight.Group
	memo  *entryMemo
}

func New(profiles ProfileChecker, gen Generator, results ResultChecker, snaps Snapshots, events EventSink) *Bootstrapper {
	return &Bootstrapper{
		profiles: profiles,
		gen:      gen,
		results:  results,
		snaps:    snaps,
		events:   events,
		memo:     newEntryMemo(4096),
	}
}

func (b *Bootstrapper) Enter(ctx context.Context, req Request) (Entry, error) {
	if req.SessionID == NewSessionID || req.SessionID == "" {
		return b.create(ctx, req)
	}
	return b.resume(ctx, req)
}

func (b *Bootstrapper) create(ctx context.Context, req Request) (Entry, error) {
	key := req.UserID + "|" + req.EntryKey
	if req.EntryKey != "" {
		if id, ok := b.memo.get(key); ok {
			// duplicate entry: hand back the concrete session created earlier
			e, err := b.resume(ctx, Request{SessionID: id, UserID: req.UserID})
			if err == nil && e.Kind == Resumed {
				e.Kind = Created
			}
			return e, err
		}
	}
	v, err, _ := b.group.Do(key, func() (any, error) {
		if id, ok := b.memo.get(key); ok && req.EntryKey != "" {
			s, err := b.snaps.Load(ctx, id)
			if err == nil {
				return Entry{Kind: Created, Session: s}, nil
			}
		}
		ok, err := b.profiles.Exists(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: profile check: %v", ErrCollaborator, err)
		}
		if !ok {
			return Entry{Kind: PrerequisiteMissing}, nil
		}
		g, err := b.gen.Create(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: generate: %v", ErrCollaborator, err)
		}
		if err := g.Structure.Validate(); err != nil {
			return nil, fmt.Errorf("%w: generate: %v", ErrCollaborator, err)
		}
		s := interview.New(g.SessionID, req.UserID, g.Structure)
		if err := b.snaps.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("%w: save: %v", ErrCollaborator, err)
		}
		if req.EntryKey != "" {
			b.memo.put(key, s.ID)
		}
		b.record(ctx, syncx.EventSessionCreated, s.ID, map[string]any{
			"user_id":  req.UserID,
			"sections": len(s.Structure.Sections),
		})
		logging.Session(s.ID).WithField("user_id", req.UserID).Info("session created")
		return Entry{Kind: Created, Session: s}, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

func (b *Bootstrapper) resume(ctx context.Context, req Request) (Entry, error) {
	done, err := b.results.Exists(ctx, req.SessionID)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: result check: %v", ErrCollaborator, err)
	}
	if done {
		// never resumable once a result exists
		if err := b.snaps.Delete(ctx, req.SessionID); err != nil {
			logging.Session(req.SessionID).WithError(err).Warn("discard snapshot of completed session")
		}
		return Entry{Kind: Completed, Session: interview.Session{ID: req.SessionID}}, nil
	}
	s, err := b.snaps.Load(ctx, req.SessionID)
	if errors.Is(err, snapshot.ErrNotFound) {
		return Entry{Kind: Expired, Session: interview.Session{ID: req.SessionID}}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: load: %v", ErrCollaborator, err)
	}
	if req.UserID != "" && s.UserID != req.UserID {
		return Entry{}, ErrNotOwner
	}
	b.record(ctx, syncx.EventSessionResumed, s.ID, map[string]any{
		"section":  s.Cursor.Section,
		"question": s.Cursor.Question,
	})
	return Entry{Kind: Resumed, Session: s}, nil
}

func (b *Bootstrapper) record(ctx context.Context, typ, key string, data any) {
	if b.events == nil {
		return
	}
	if err := b.events.Record(ctx, typ, key, data); err != nil {
		logging.Session(key).WithError(err).Warn("event log append failed")
	}
}

// entryMemo remembers entry key -> session id, evicting the oldest entries
// beyond max.
type entryMemo struct {
	mu    sync.Mutex
	max   int
	ids   map[string]string
	order []string
}

func newEntryMemo(max int) *entryMemo {
	return &entryMemo{max: max, ids: map[string]string{}}
}

func (m *entryMemo) get(k string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ids[k]
	return v, ok
}

func (m *entryMemo) put(k, v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[k]; !ok {
		m.order = append(m.order, k)
	}
	m.ids[k] = v
	for len(m.order) > m.max {
		delete(m.ids, m.order[0])
		m.order = m.order[1:]
	}
}
