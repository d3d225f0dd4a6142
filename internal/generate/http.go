package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTP asks an external generation service for a structure. The service is
// expected to answer POST {url} {"user_id": "..."} with a Generated body.
type HTTP struct {
	url  string
	http *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{url: url, http: &http.Client{Timeout: timeout}}
}

func (g *HTTP) Create(ctx context.Context, userID string) (Generated, error) {
	body, _ := json.Marshal(map[string]string{"user_id": userID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Generated{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	res, err := g.http.Do(req)
	if err != nil {
		return Generated{}, err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		return Generated{}, fmt.Errorf("generate session: %s", res.Status)
	}
	var out Generated
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return Generated{}, fmt.Errorf("generate session: decode: %w", err)
	}
	if err := out.Structure.Validate(); err != nil {
		return Generated{}, fmt.Errorf("generate session: %w", err)
	}
	if out.SessionID == "" {
		out.SessionID = uuid.NewString()
	}
	return out, nil
}
