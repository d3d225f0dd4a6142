package submission_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/result"
	"github.com/mind-engage/mindengage-interview/internal/submission"
)

type fakeScorer struct {
	calls   atomic.Int32
	entered chan struct{} // signalled when Submit starts, if set
	release chan struct{} // Submit blocks until closed, if set
	err     error
	got     interview.Session
}

func (f *fakeScorer) Submit(_ context.Context, s interview.Session) (json.RawMessage, error) {
	f.calls.Add(1)
	f.got = s
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"score":7}`), nil
}

type fakeResults struct {
	mu     sync.Mutex
	rows   map[string]result.Result
	putErr error
}

func (f *fakeResults) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok, nil
}

func (f *fakeResults) Put(_ context.Context, r result.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.rows[r.SessionID] = r
	return nil
}

type fakeSnaps struct{ deleted atomic.Int32 }

func (f *fakeSnaps) Delete(context.Context, string) error {
	f.deleted.Add(1)
	return nil
}

func lastQuestion() interview.Session {
	s := interview.New("s1", "u1", interview.Structure{Sections: []interview.Section{
		{Name: "A", Questions: []interview.Question{{ID: "a1", Type: interview.FreeText}}},
		{Name: "B", Questions: []interview.Question{{ID: "b1", Type: interview.FreeText}}},
	}})
	s.Cursor = interview.Cursor{Section: 1, Question: 0}
	return s
}

func TestFinish_SuccessRetiresSnapshot(t *testing.T) {
	sc := &fakeScorer{}
	rs := &fakeResults{rows: map[string]result.Result{}}
	sn := &fakeSnaps{}
	c := submission.New(sc, rs, sn, nil)

	out, err := c.Finish(context.Background(), lastQuestion(), "final words")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Session.Terminal() {
		t.Fatalf("submitted session must be terminal")
	}
	if sc.got.Answers["b1"] != "final words" {
		t.Fatalf("pending answer not merged before submit: %v", sc.got.Answers)
	}
	if string(rs.rows["s1"].Payload) != `{"score":7}` || rs.rows["s1"].UserID != "u1" {
		t.Fatalf("result not stored: %+v", rs.rows["s1"])
	}
	if sn.deleted.Load() != 1 {
		t.Fatalf("snapshot should be deleted once, got %d", sn.deleted.Load())
	}
	if _, err := c.Finish(context.Background(), out.Session, ""); !errors.Is(err, submission.ErrAlreadySubmitted) {
		t.Fatalf("second finish: expected ErrAlreadySubmitted, got %v", err)
	}
	if sc.calls.Load() != 1 {
		t.Fatalf("expected one scoring call, got %d", sc.calls.Load())
	}
}

func TestFinish_AtMostOneInFlight(t *testing.T) {
	sc := &fakeScorer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	rs := &fakeResults{rows: map[string]result.Result{}}
	c := submission.New(sc, rs, &fakeSnaps{}, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Finish(context.Background(), lastQuestion(), "x")
		errc <- err
	}()
	<-sc.entered

	if _, err := c.Finish(context.Background(), lastQuestion(), "x"); !errors.Is(err, submission.ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	close(sc.release)
	if err := <-errc; err != nil {
		t.Fatalf("first finish: %v", err)
	}
	if sc.calls.Load() != 1 {
		t.Fatalf("expected one scoring call, got %d", sc.calls.Load())
	}
}

func TestFinish_FailureKeepsSnapshot(t *testing.T) {
	sc := &fakeScorer{err: errors.New("scorer unavailable")}
	rs := &fakeResults{rows: map[string]result.Result{}}
	sn := &fakeSnaps{}
	c := submission.New(sc, rs, sn, nil)

	_, err := c.Finish(context.Background(), lastQuestion(), "x")
	if !errors.Is(err, submission.ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}
	if sn.deleted.Load() != 0 || len(rs.rows) != 0 {
		t.Fatalf("failure must leave snapshot and results untouched")
	}

	// retry is allowed and succeeds once the scorer recovers
	sc.err = nil
	if _, err := c.Finish(context.Background(), lastQuestion(), "x"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sc.calls.Load() != 2 || sn.deleted.Load() != 1 {
		t.Fatalf("calls=%d deleted=%d", sc.calls.Load(), sn.deleted.Load())
	}
}

func TestFinish_RefusesStoredResult(t *testing.T) {
	sc := &fakeScorer{}
	rs := &fakeResults{rows: map[string]result.Result{"s1": {SessionID: "s1"}}}
	sn := &fakeSnaps{}
	c := submission.New(sc, rs, sn, nil)

	if _, err := c.Finish(context.Background(), lastQuestion(), ""); !errors.Is(err, submission.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if sc.calls.Load() != 0 {
		t.Fatalf("scorer must not be called")
	}
	if sn.deleted.Load() != 1 {
		t.Fatalf("stale snapshot should be deleted, got %d deletes", sn.deleted.Load())
	}
}

func TestFinish_UnstoredResultStillRefused(t *testing.T) {
	sc := &fakeScorer{}
	rs := &fakeResults{rows: map[string]result.Result{}, putErr: errors.New("disk full")}
	c := submission.New(sc, rs, &fakeSnaps{}, nil)

	if _, err := c.Finish(context.Background(), lastQuestion(), "x"); err != nil {
		t.Fatalf("finish: %v", err)
	}
	// no stored result to find, so the controller itself must refuse
	rs.putErr = nil
	if _, err := c.Finish(context.Background(), lastQuestion(), "x"); !errors.Is(err, submission.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if sc.calls.Load() != 1 {
		t.Fatalf("expected one scoring call, got %d", sc.calls.Load())
	}
}
