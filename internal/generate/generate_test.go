package generate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mind-engage/mindengage-interview/internal/generate"
	"github.com/mind-engage/mindengage-interview/internal/interview"
)

const sampleYAML = `
title: Backend engineer
sections:
  - name: Warm-up
    time_limit_minutes: 0
    questions:
      - id: w1
        text: Introduce yourself
        type: free_text
  - name: Go
    time_limit_minutes: 10
    questions:
      - id: g1
        text: Which primitive guards shared maps?
        type: single_choice
        options: [sync.Mutex, atomic.Value]
`

func TestLoadTemplate(t *testing.T) {
	p := filepath.Join(t.TempDir(), "t.yaml")
	if err := os.WriteFile(p, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	tf, err := generate.LoadTemplate(p)
	if err != nil {
		t.Fatal(err)
	}
	if tf.Title != "Backend engineer" || len(tf.Sections) != 2 || tf.Sections[1].TimeLimitMinutes != 10 {
		t.Fatalf("unexpected template %+v", tf)
	}
	if tf.Sections[1].Questions[0].Type != interview.SingleChoice {
		t.Fatalf("type not decoded: %+v", tf.Sections[1].Questions[0])
	}
}

func TestParseTemplate_Rejects(t *testing.T) {
	bad := []string{
		"sections: []",
		"sections:\n  - name: x\n    questions:\n      - id: a\n        text: t\n        type: single_choice\n",
		"bogus_field: 1\nsections:\n  - name: x\n    questions:\n      - {id: a, text: t, type: free_text}\n",
	}
	for i, y := range bad {
		if _, err := generate.ParseTemplate([]byte(y)); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestTemplate_CreateIsolatesSessions(t *testing.T) {
	tf, err := generate.ParseTemplate([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	g := generate.NewTemplate(tf)
	a, _ := g.Create(context.Background(), "u1")
	b, _ := g.Create(context.Background(), "u1")
	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Fatalf("expected distinct ids, got %q %q", a.SessionID, b.SessionID)
	}
	a.Structure.Sections[1].Questions[0].Options[0] = "mutated"
	if b.Structure.Sections[1].Questions[0].Options[0] != "sync.Mutex" {
		t.Fatalf("structures share backing arrays")
	}
}

func TestHTTP_Create(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["user_id"] != "u1" {
			t.Errorf("unexpected user_id %q", req["user_id"])
		}
		tf, _ := generate.ParseTemplate([]byte(sampleYAML))
		_ = json.NewEncoder(w).Encode(generate.Generated{Structure: tf.Structure()})
	}))
	defer ts.Close()

	got, err := generate.NewHTTP(ts.URL, 0).Create(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SessionID == "" || len(got.Structure.Sections) != 2 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestHTTP_CreateRejectsBadStructure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session_id":"x","structure":{"sections":[]}}`))
	}))
	defer ts.Close()
	if _, err := generate.NewHTTP(ts.URL, 0).Create(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error for empty structure")
	}
}
