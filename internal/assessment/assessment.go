package assessment

// Group is one index bucket: the key (copy or question id) and the attempts
// recorded under it, in append order.
type Group struct {
	Key      string
	Attempts []*Attempt
}

// Assessment is a full run: every attempt in input order, plus derived
// copy- and question-indexed views built incrementally as attempts arrive.
// An attempt with an unset copy or question id stays out of the respective
// index (never indexed under an empty key) but always appears in Attempts.
// Index iteration order is first-insertion order of each key, so grouped
// export is deterministic across runs on the same input ordering.
type Assessment struct {
	attempts []*Attempt

	byCopy        map[string][]*Attempt
	copyOrder     []string
	byQuestion    map[string][]*Attempt
	questionOrder []string
}

// New returns an empty Assessment.
func New() *Assessment {
	return &Assessment{
		byCopy:     make(map[string][]*Attempt),
		byQuestion: make(map[string][]*Attempt),
	}
}

// Add appends the attempt and indexes it under whichever of its copy and
// question ids are set. Add is the only mutation; at any point the
// Assessment is a strict append-only prefix of the full run, so an aborted
// batch leaves usable state.
func (s *Assessment) Add(a *Attempt) {
	s.attempts = append(s.attempts, a)

	if copyID := a.IDs().Copy; copyID != "" {
		if _, seen := s.byCopy[copyID]; !seen {
			s.copyOrder = append(s.copyOrder, copyID)
		}
		s.byCopy[copyID] = append(s.byCopy[copyID], a)
	}
	if questionID := a.IDs().Question; questionID != "" {
		if _, seen := s.byQuestion[questionID]; !seen {
			s.questionOrder = append(s.questionOrder, questionID)
		}
		s.byQuestion[questionID] = append(s.byQuestion[questionID], a)
	}
}

// Attempts returns every attempt in input order.
func (s *Assessment) Attempts() []*Attempt { return s.attempts }

// ByCopy returns the copy-indexed groups in first-insertion key order.
func (s *Assessment) ByCopy() []Group { return groups(s.copyOrder, s.byCopy) }

// ByQuestion returns the question-indexed groups in first-insertion key order.
func (s *Assessment) ByQuestion() []Group { return groups(s.questionOrder, s.byQuestion) }

// CopyCount is the number of distinct copy ids seen, not an attempt count.
func (s *Assessment) CopyCount() int { return len(s.copyOrder) }

// QuestionCount is the number of distinct question ids seen.
func (s *Assessment) QuestionCount() int { return len(s.questionOrder) }

// ValidAttempts returns attempts with a complete identifier triple.
func (s *Assessment) ValidAttempts() []*Attempt {
	return s.filter(func(a *Attempt) bool { return !a.MissingIdentifiers() })
}

// InvalidAttempts returns attempts with any identifier component missing.
func (s *Assessment) InvalidAttempts() []*Attempt {
	return s.filter((*Attempt).MissingIdentifiers)
}

// GradedAttempts returns attempts whose grade resolved.
func (s *Assessment) GradedAttempts() []*Attempt {
	return s.filter(func(a *Attempt) bool { return !a.Ungraded() })
}

// UngradedAttempts returns attempts whose grade is unresolved.
func (s *Assessment) UngradedAttempts() []*Attempt {
	return s.filter((*Attempt).Ungraded)
}

func (s *Assessment) filter(keep func(*Attempt) bool) []*Attempt {
	var out []*Attempt
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func groups(order []string, index map[string][]*Attempt) []Group {
	out := make([]Group, 0, len(order))
	for _, key := range order {
		out = append(out, Group{Key: key, Attempts: index[key]})
	}
	return out
}
