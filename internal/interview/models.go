package interview

import "time"

type QuestionType string

const (
	FreeText     QuestionType = "free_text"
	SingleChoice QuestionType = "single_choice"
)

type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Text    string       `json:"text" yaml:"text"`
	Type    QuestionType `json:"type" yaml:"type"`
	Options []string     `json:"options,omitempty" yaml:"options,omitempty"` // single_choice only
}

type Section struct {
	Name             string     `json:"name" yaml:"name"`
	TimeLimitMinutes int        `json:"time_limit_minutes" yaml:"time_limit_minutes"` // 0 = untimed
	Questions        []Question `json:"questions" yaml:"questions"`
}

// Structure is the ordered list of sections. It is never mutated after a
// session has been created from it.
type Structure struct {
	Sections []Section `json:"sections" yaml:"sections"`
}

// Cursor addresses the active question. Section == len(Sections) is the
// terminal marker.
type Cursor struct {
	Section  int `json:"section"`
	Question int `json:"question"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Structure Structure `json:"structure"`
	Cursor    Cursor    `json:"cursor"`
	Answers   Answers   `json:"answers"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// New returns a fresh session positioned on the first question.
func New(id, userID string, st Structure) Session {
	now := time.Now().Unix()
	return Session{
		ID:        id,
		UserID:    userID,
		Structure: st,
		Answers:   Answers{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Session) Terminal() bool {
	return s.Cursor.Section >= len(s.Structure.Sections)
}

// CurrentSection returns the section under the cursor, false when terminal.
func (s Session) CurrentSection() (Section, bool) {
	if s.Cursor.Section < 0 || s.Terminal() {
		return Section{}, false
	}
	return s.Structure.Sections[s.Cursor.Section], true
}

func (s Session) CurrentQuestion() (Question, bool) {
	sec, ok := s.CurrentSection()
	if !ok || s.Cursor.Question < 0 || s.Cursor.Question >= len(sec.Questions) {
		return Question{}, false
	}
	return sec.Questions[s.Cursor.Question], true
}

// TotalQuestions counts questions across all sections.
func (st Structure) TotalQuestions() int {
	n := 0
	for _, sec := range st.Sections {
		n += len(sec.Questions)
	}
	return n
}

// Progress is the fraction of questions before the cursor; 1 when terminal.
func (s Session) Progress() float64 {
	total := s.Structure.TotalQuestions()
	if total == 0 || s.Terminal() {
		return 1
	}
	done := 0
	for i := 0; i < s.Cursor.Section; i++ {
		done += len(s.Structure.Sections[i].Questions)
	}
	done += s.Cursor.Question
	return float64(done) / float64(total)
}
