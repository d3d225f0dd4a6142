package interview

import "time"

type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Outcome tells the caller what a transition did.
type Outcome int

const (
	// Moved means the cursor now addresses another valid question.
	Moved Outcome = iota
	// AtFirstQuestion means backward was refused at (0,0); only the pending
	// answer was merged.
	AtFirstQuestion
	// Completed means forward left the last section; the returned session is
	// terminal and must be handed to submission.
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case AtFirstQuestion:
		return "at_first_question"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Advance merges pending under the current question and moves the cursor one
// step in dir. It performs no I/O; the caller persists the result. Both the
// user "next/previous" actions and timer expiry go through here.
//
// A terminal session is returned unchanged with Completed.
func Advance(s Session, dir Direction, pending string) (Session, Outcome) {
	if s.Terminal() {
		return s, Completed
	}
	out := MergePending(s, pending)
	sections := out.Structure.Sections

	switch dir {
	case Backward:
		if out.Cursor.Question-1 >= 0 {
			out.Cursor.Question--
			break
		}
		if out.Cursor.Section-1 < 0 {
			return out, AtFirstQuestion
		}
		out.Cursor.Section--
		out.Cursor.Question = len(sections[out.Cursor.Section].Questions) - 1
	default:
		if out.Cursor.Question+1 < len(sections[out.Cursor.Section].Questions) {
			out.Cursor.Question++
			break
		}
		out.Cursor.Question = 0
		out.Cursor.Section++
		if out.Cursor.Section >= len(sections) {
			out.Cursor.Section = len(sections)
			out.UpdatedAt = time.Now().Unix()
			return out, Completed
		}
	}
	out.UpdatedAt = time.Now().Unix()
	return out, Moved
}

// MergePending writes pending under the current question id. Terminal
// sessions have no addressable question and are returned as-is.
func MergePending(s Session, pending string) Session {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s
	}
	s.Answers = s.Answers.Merge(q.ID, pending)
	return s
}
