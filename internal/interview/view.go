package interview

// View is the derived state the presentation layer renders after every
// mutation.
type View struct {
	SessionID        string    `json:"session_id"`
	Terminal         bool      `json:"terminal"`
	SectionIndex     int       `json:"section_index"`
	SectionCount     int       `json:"section_count"`
	SectionName      string    `json:"section_name,omitempty"`
	QuestionIndex    int       `json:"question_index"`
	QuestionCount    int       `json:"question_count"`
	Question         *Question `json:"question,omitempty"`
	Answer           string    `json:"answer"`
	RemainingSeconds *int      `json:"remaining_seconds,omitempty"` // nil for untimed sections
	Progress         float64   `json:"progress"`
	IsFirst          bool      `json:"is_first"`
	IsLast           bool      `json:"is_last"`
}

// NewView builds the view for s. remaining < 0 means no timer is running.
func NewView(s Session, remaining int) View {
	v := View{
		SessionID:     s.ID,
		Terminal:      s.Terminal(),
		SectionIndex:  s.Cursor.Section,
		SectionCount:  len(s.Structure.Sections),
		QuestionIndex: s.Cursor.Question,
		Progress:      s.Progress(),
	}
	sec, ok := s.CurrentSection()
	if !ok {
		return v
	}
	v.SectionName = sec.Name
	v.QuestionCount = len(sec.Questions)
	if q, ok := s.CurrentQuestion(); ok {
		v.Question = &q
		v.Answer = s.Answers[q.ID]
	}
	if remaining >= 0 {
		r := remaining
		v.RemainingSeconds = &r
	}
	v.IsFirst = s.Cursor.Section == 0 && s.Cursor.Question == 0
	v.IsLast = s.Cursor.Section == len(s.Structure.Sections)-1 && s.Cursor.Question == len(sec.Questions)-1
	return v
}
