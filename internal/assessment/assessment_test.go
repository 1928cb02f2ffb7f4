package assessment

import (
	"testing"

	"scanmark/internal/resolve"
)

func attempt(copy, question, attemptID string, grade *int) *Attempt {
	ids := resolve.Identifiers{Copy: copy, Question: question, Attempt: attemptID}
	pages := []resolve.Page{{Path: "p.png", Width: 800, Height: 1000, IDs: ids, Grade: grade}}
	return NewAttempt(pages, ids, grade)
}

func intPtr(v int) *int { return &v }

func TestAssessment_CopyIndexExcludesUnsetKeys(t *testing.T) {
	s := New()
	s.Add(attempt("5", "1", "1", intPtr(8)))
	s.Add(attempt("5", "2", "1", intPtr(6)))
	s.Add(attempt("", "3", "1", nil))

	if got := s.CopyCount(); got != 1 {
		t.Errorf("CopyCount() = %d, want 1", got)
	}
	if got := len(s.Attempts()); got != 3 {
		t.Errorf("len(Attempts()) = %d, want 3", got)
	}
	for _, group := range s.ByCopy() {
		for _, a := range group.Attempts {
			if a.IDs().Copy == "" {
				t.Error("attempt with unset copy id appears in the copy index")
			}
		}
	}
}

func TestAssessment_IndexOrderIsFirstInsertion(t *testing.T) {
	s := New()
	s.Add(attempt("9", "2", "1", nil))
	s.Add(attempt("3", "1", "1", nil))
	s.Add(attempt("9", "1", "2", nil))
	s.Add(attempt("1", "2", "1", nil))

	var keys []string
	for _, g := range s.ByCopy() {
		keys = append(keys, g.Key)
	}
	want := []string{"9", "3", "1"}
	if len(keys) != len(want) {
		t.Fatalf("copy keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("copy keys = %v, want %v", keys, want)
		}
	}

	// Within a key, attempts keep append order.
	first := s.ByCopy()[0]
	if len(first.Attempts) != 2 || first.Attempts[0].IDs().Question != "2" {
		t.Errorf("group %s attempts out of append order", first.Key)
	}
}

func TestAssessment_ValidityPartitions(t *testing.T) {
	s := New()
	s.Add(attempt("5", "1", "1", intPtr(8)))
	s.Add(attempt("5", "", "1", intPtr(3)))
	s.Add(attempt("6", "2", "1", nil))

	if got := len(s.ValidAttempts()); got != 2 {
		t.Errorf("valid = %d, want 2", got)
	}
	if got := len(s.InvalidAttempts()); got != 1 {
		t.Errorf("invalid = %d, want 1", got)
	}
	if got := len(s.GradedAttempts()); got != 2 {
		t.Errorf("graded = %d, want 2", got)
	}
	if got := len(s.UngradedAttempts()); got != 1 {
		t.Errorf("ungraded = %d, want 1", got)
	}
}

func TestAttempt_Predicates(t *testing.T) {
	a := attempt("5", "1", "1", nil)
	if a.MissingIdentifiers() {
		t.Error("complete triple reported as missing")
	}
	if !a.Ungraded() {
		t.Error("nil grade not reported as ungraded")
	}

	a.SetGrade(7)
	if a.Ungraded() {
		t.Error("SetGrade did not resolve the grade")
	}
	if g, ok := a.Grade(); !ok || g != 7 {
		t.Errorf("Grade() = %d,%v, want 7,true", g, ok)
	}

	b := attempt("", "1", "1", nil)
	if !b.MissingIdentifiers() {
		t.Error("unset copy id not reported as missing")
	}
	b.SetIdentifiers(resolve.Identifiers{Copy: "4", Question: "1", Attempt: "1"})
	if b.MissingIdentifiers() {
		t.Error("corrected triple still reported as missing")
	}
}

func TestAssessment_QuestionIndex(t *testing.T) {
	s := New()
	s.Add(attempt("1", "10", "1", nil))
	s.Add(attempt("2", "10", "1", nil))
	s.Add(attempt("3", "", "1", nil))

	if got := s.QuestionCount(); got != 1 {
		t.Errorf("QuestionCount() = %d, want 1", got)
	}
	groups := s.ByQuestion()
	if len(groups) != 1 || len(groups[0].Attempts) != 2 {
		t.Fatalf("question groups = %+v, want one group of two", groups)
	}
}
