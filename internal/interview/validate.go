package interview

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyStructure = errors.New("interview: structure has no sections")
	ErrInvalidCursor  = errors.New("interview: cursor out of range")
	ErrUnknownAnswer  = errors.New("interview: answer for unknown question")
	ErrInvalidChoice  = errors.New("interview: value is not one of the options")
)

// Validate checks the structure is usable for a session.
func (st Structure) Validate() error {
	if len(st.Sections) == 0 {
		return ErrEmptyStructure
	}
	seen := map[string]bool{}
	for i, sec := range st.Sections {
		if sec.TimeLimitMinutes < 0 {
			return fmt.Errorf("interview: section %d (%s): negative time limit", i, sec.Name)
		}
		if len(sec.Questions) == 0 {
			return fmt.Errorf("interview: section %d (%s): no questions", i, sec.Name)
		}
		for j, q := range sec.Questions {
			if q.ID == "" {
				return fmt.Errorf("interview: section %d question %d: empty id", i, j)
			}
			if seen[q.ID] {
				return fmt.Errorf("interview: duplicate question id %q", q.ID)
			}
			seen[q.ID] = true
			switch q.Type {
			case FreeText:
				if len(q.Options) > 0 {
					return fmt.Errorf("interview: question %q: free_text must not have options", q.ID)
				}
			case SingleChoice:
				if len(q.Options) == 0 {
					return fmt.Errorf("interview: question %q: single_choice needs options", q.ID)
				}
			default:
				return fmt.Errorf("interview: question %q: unknown type %q", q.ID, q.Type)
			}
		}
	}
	return nil
}

// Validate checks the cursor and answer invariants of a snapshot.
func (s Session) Validate() error {
	n := len(s.Structure.Sections)
	c := s.Cursor
	if c.Section < 0 || c.Section > n {
		return fmt.Errorf("%w: section %d of %d", ErrInvalidCursor, c.Section, n)
	}
	if c.Section < n {
		qs := len(s.Structure.Sections[c.Section].Questions)
		if c.Question < 0 || c.Question >= qs {
			return fmt.Errorf("%w: question %d of %d", ErrInvalidCursor, c.Question, qs)
		}
	}
	if len(s.Answers) == 0 {
		return nil
	}
	known := map[string]bool{}
	for _, sec := range s.Structure.Sections {
		for _, q := range sec.Questions {
			known[q.ID] = true
		}
	}
	for id := range s.Answers {
		if !known[id] {
			return fmt.Errorf("%w: %q", ErrUnknownAnswer, id)
		}
	}
	return nil
}

// ValidateAnswer rejects single_choice values that are not an option. The
// empty value means "unset" and is accepted for every type.
func ValidateAnswer(q Question, value string) error {
	if value == "" || q.Type != SingleChoice {
		return nil
	}
	for _, o := range q.Options {
		if o == value {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidChoice, value)
}
