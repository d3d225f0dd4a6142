package scoring

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mind-engage/mindengage-interview/internal/interview"
)

// Local summarises completion per section. It is used when no scoring
// service is configured (offline/dev).
type Local struct{}

type SectionSummary struct {
	Name     string `json:"name"`
	Answered int    `json:"answered"`
	Total    int    `json:"total"`
}

type Summary struct {
	SessionID string           `json:"session_id"`
	Answered  int              `json:"answered"`
	Total     int              `json:"total"`
	Sections  []SectionSummary `json:"sections"`
}

func (Local) Submit(_ context.Context, s interview.Session) (json.RawMessage, error) {
	sum := Summary{SessionID: s.ID, Sections: make([]SectionSummary, 0, len(s.Structure.Sections))}
	for _, sec := range s.Structure.Sections {
		ss := SectionSummary{Name: sec.Name, Total: len(sec.Questions)}
		for _, q := range sec.Questions {
			if strings.TrimSpace(s.Answers[q.ID]) != "" {
				ss.Answered++
			}
		}
		sum.Answered += ss.Answered
		sum.Total += ss.Total
		sum.Sections = append(sum.Sections, ss)
	}
	buf, err := json.Marshal(sum)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(buf), nil
}

// ParseSummary decodes a payload produced by Local.
func ParseSummary(payload json.RawMessage) (Summary, bool) {
	var sum Summary
	if err := json.Unmarshal(payload, &sum); err != nil {
		return Summary{}, false
	}
	return sum, sum.Total > 0 && len(sum.Sections) > 0
}
