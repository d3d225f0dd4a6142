// Package scoring submits a finished session to the scoring service.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/mind-engage/mindengage-interview/internal/interview"
)

type Config struct {
	URL string
	// Optional OAuth2 client-credentials; plain HTTP when TokenURL is empty.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type HTTP struct {
	url  string
	http *http.Client
}

func NewHTTP(cfg Config) *HTTP {
	h := &http.Client{}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		h = cc.Client(context.Background())
	}
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	} else {
		h.Timeout = 60 * time.Second
	}
	return &HTTP{url: cfg.URL, http: h}
}

// Submit posts the full snapshot and returns the scorer's JSON body
// untouched.
func (c *HTTP) Submit(ctx context.Context, s interview.Session) (json.RawMessage, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", s.ID)
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	buf, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("submit session: %s", res.Status)
	}
	if !json.Valid(buf) {
		return nil, fmt.Errorf("submit session: response is not JSON")
	}
	return json.RawMessage(buf), nil
}
