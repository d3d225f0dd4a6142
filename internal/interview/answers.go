package interview

// Answers maps question id -> answer text. For single_choice the value is the
// literal option text. There is no delete: keys only accumulate.
type Answers map[string]string

// Merge returns a copy of a with questionID set to value. The receiver is not
// modified, so a snapshot held by a caller stays stable.
func (a Answers) Merge(questionID, value string) Answers {
	if old, ok := a[questionID]; ok && old == value {
		return a
	}
	out := a.copy()
	out[questionID] = value
	return out
}

func (a Answers) copy() Answers {
	out := make(Answers, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	return out
}
