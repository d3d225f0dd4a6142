package scoring_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-interview/internal/interview"
	"github.com/mind-engage/mindengage-interview/internal/scoring"
)

func finished() interview.Session {
	s := interview.New("s-9", "u1", interview.Structure{Sections: []interview.Section{
		{Name: "A", Questions: []interview.Question{
			{ID: "a1", Type: interview.FreeText},
			{ID: "a2", Type: interview.FreeText},
		}},
		{Name: "B", Questions: []interview.Question{{ID: "b1", Type: interview.FreeText}}},
	}})
	s.Cursor = interview.Cursor{Section: 2}
	s.Answers = interview.Answers{"a1": "yes", "a2": "  ", "b1": "done"}
	return s
}

func TestLocal_Summary(t *testing.T) {
	raw, err := scoring.Local{}.Submit(context.Background(), finished())
	if err != nil {
		t.Fatal(err)
	}
	var sum scoring.Summary
	if err := json.Unmarshal(raw, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Answered != 2 || sum.Total != 3 || len(sum.Sections) != 2 || sum.Sections[0].Answered != 1 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestHTTP_SubmitWithClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token: ParseForm: %v", err)
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("token: unexpected grant_type=%q", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.Header.Get("Idempotency-Key"); got != "s-9" {
			t.Errorf("idempotency key = %q", got)
		}
		var s interview.Session
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			t.Errorf("decode: %v", err)
		}
		if s.Answers["b1"] != "done" {
			t.Errorf("answers not sent: %v", s.Answers)
		}
		_, _ = w.Write([]byte(`{"score":42}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := scoring.NewHTTP(scoring.Config{
		URL:          ts.URL + "/score",
		TokenURL:     ts.URL + "/oauth/token",
		ClientID:     "x",
		ClientSecret: "y",
		Timeout:      5 * time.Second,
	})
	raw, err := c.Submit(context.Background(), finished())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"score":42}` {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestHTTP_SubmitFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()
	if _, err := scoring.NewHTTP(scoring.Config{URL: ts.URL}).Submit(context.Background(), finished()); err == nil {
		t.Fatalf("expected error on 500")
	}
}
