package bootstrap_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mind-engage/mindengage-interview/internal/bootstrap"
	"github.com/mind-engage/mindengage-interview/internal/generate"
	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/snapshot"
)

/* ---------------- fakes ---------------- */

type fakeProfiles struct {
	has map[string]bool
	err error
}

func (f *fakeProfiles) Exists(_ context.Context, userID string) (bool, error) {
	return f.has[userID], f.err
}

type fakeGen struct {
	calls atomic.Int32
	err   error
}

func (g *fakeGen) Create(context.Context, string) (generate.Generated, error) {
	n := g.calls.Add(1)
	if g.err != nil {
		return generate.Generated{}, g.err
	}
	return generate.Generated{
		SessionID: "gen-" + string(rune('0'+n)),
		Structure: interview.Structure{Sections: []interview.Section{
			{Name: "S", TimeLimitMinutes: 1, Questions: []interview.Question{{ID: "q1", Type: interview.FreeText}}},
		}},
	}, nil
}

type fakeResults struct{ done map[string]bool }

func (f *fakeResults) Exists(_ context.Context, id string) (bool, error) { return f.done[id], nil }

type fakeSnaps struct {
	mu      sync.Mutex
	data    map[string]interview.Session
	loads   int
	deletes []string
}

func newFakeSnaps() *fakeSnaps { return &fakeSnaps{data: map[string]interview.Session{}} }

func (f *fakeSnaps) Save(_ context.Context, s interview.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[s.ID] = s
	return nil
}

func (f *fakeSnaps) Load(_ context.Context, id string) (interview.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	s, ok := f.data[id]
	if !ok {
		return interview.Session{}, snapshot.ErrNotFound
	}
	return s, nil
}

func (f *fakeSnaps) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	delete(f.data, id)
	return nil
}

type fixture struct {
	profiles *fakeProfiles
	gen      *fakeGen
	results  *fakeResults
	snaps    *fakeSnaps
	b        *bootstrap.Bootstrapper
}

func newFixture() *fixture {
	f := &fixture{
		profiles: &fakeProfiles{has: map[string]bool{"u1": true}},
		gen:      &fakeGen{},
		results:  &fakeResults{done: map[string]bool{}},
		snaps:    newFakeSnaps(),
	}
	f.b = bootstrap.New(f.profiles, f.gen, f.results, f.snaps, nil)
	return f
}

/* ---------------- tests ---------------- */

func TestEnter_NewWithoutProfile(t *testing.T) {
	f := newFixture()
	e, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.PrerequisiteMissing {
		t.Fatalf("expected PrerequisiteMissing, got %s", e.Kind)
	}
	if f.gen.calls.Load() != 0 {
		t.Fatalf("generator must not be called without a profile")
	}
}

func TestEnter_NewCreatesAndPersists(t *testing.T) {
	f := newFixture()
	e, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "u1", EntryKey: "k1"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.Created || e.SessionID() == "" || e.SessionID() == bootstrap.NewSessionID {
		t.Fatalf("unexpected entry %+v", e)
	}
	saved, ok := f.snaps.data[e.SessionID()]
	if !ok || saved.UserID != "u1" || saved.Cursor != (interview.Cursor{}) {
		t.Fatalf("snapshot not persisted: %+v", saved)
	}
}

func TestEnter_DuplicateEntryIsIdempotent(t *testing.T) {
	f := newFixture()
	req := bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "u1", EntryKey: "render-1"}

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := f.b.Enter(context.Background(), req)
			if err != nil {
				t.Errorf("enter %d: %v", i, err)
				return
			}
			ids[i] = e.SessionID()
		}(i)
	}
	wg.Wait()
	e, err := f.b.Enter(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.Created {
		t.Fatalf("duplicate entry should still report Created, got %s", e.Kind)
	}
	for i, id := range ids {
		if id != e.SessionID() {
			t.Fatalf("entry %d got %q, want %q", i, id, e.SessionID())
		}
	}
	if n := f.gen.calls.Load(); n != 1 {
		t.Fatalf("expected one generation, got %d", n)
	}

	// a different entry key is a different interview
	other, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "u1", EntryKey: "render-2"})
	if err != nil {
		t.Fatal(err)
	}
	if other.SessionID() == e.SessionID() {
		t.Fatalf("new entry key must create a new session")
	}
}

func TestEnter_CompletedNeverLoads(t *testing.T) {
	f := newFixture()
	f.snaps.data["s-done"] = interview.Session{ID: "s-done"}
	f.results.done["s-done"] = true

	e, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: "s-done", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.Completed {
		t.Fatalf("expected Completed, got %s", e.Kind)
	}
	if f.snaps.loads != 0 {
		t.Fatalf("load must not be called when a result exists")
	}
	if !reflect.DeepEqual(f.snaps.deletes, []string{"s-done"}) {
		t.Fatalf("expected local snapshot deleted, got %v", f.snaps.deletes)
	}
}

func TestEnter_ResumeExactSnapshot(t *testing.T) {
	f := newFixture()
	want := interview.Session{ID: "s1", UserID: "u1", Cursor: interview.Cursor{Section: 0, Question: 0}, Answers: interview.Answers{"q1": "kept"}}
	f.snaps.data["s1"] = want

	e, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: "s1", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.Resumed || !reflect.DeepEqual(e.Session, want) {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestEnter_ExpiredDoesNotCreate(t *testing.T) {
	f := newFixture()
	e, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: "gone", UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Kind != bootstrap.Expired {
		t.Fatalf("expected Expired, got %s", e.Kind)
	}
	if len(f.snaps.data) != 0 || f.gen.calls.Load() != 0 {
		t.Fatalf("expired entry must not create a session")
	}
}

func TestEnter_Errors(t *testing.T) {
	f := newFixture()
	f.snaps.data["s1"] = interview.Session{ID: "s1", UserID: "someone-else"}
	if _, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: "s1", UserID: "u1"}); !errors.Is(err, bootstrap.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	f.gen.err = errors.New("llm down")
	if _, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "u1"}); !errors.Is(err, bootstrap.ErrCollaborator) {
		t.Fatalf("expected ErrCollaborator, got %v", err)
	}

	f.profiles.err = errors.New("db down")
	if _, err := f.b.Enter(context.Background(), bootstrap.Request{SessionID: bootstrap.NewSessionID, UserID: "u1"}); !errors.Is(err, bootstrap.ErrCollaborator) {
		t.Fatalf("expected ErrCollaborator, got %v", err)
	}
}
