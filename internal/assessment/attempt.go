// Package assessment aggregates resolved pages into attempts (one graded
// unit of student work) and attempts into the copy- and question-indexed
// collections a run exports from.
package assessment

import "scanmark/internal/resolve"

// Attempt is an ordered sequence of pages sharing one identifier triple,
// plus the grade resolved for them. Pages supplied at construction are
// assumed by the caller to belong together; the aggregator does not detect
// cross-page mismatches. Identity and grade are set at construction and
// only change through the explicit correction setters.
type Attempt struct {
	pages []resolve.Page
	ids   resolve.Identifiers

	grade  int
	graded bool
}

// NewAttempt builds an attempt from its resolved pages. A nil grade leaves
// the attempt ungraded.
func NewAttempt(pages []resolve.Page, ids resolve.Identifiers, grade *int) *Attempt {
	a := &Attempt{
		pages: append([]resolve.Page(nil), pages...),
		ids:   ids,
	}
	if grade != nil {
		a.grade = *grade
		a.graded = true
	}
	return a
}

// Pages returns the attempt's pages in order.
func (a *Attempt) Pages() []resolve.Page { return a.pages }

// IDs returns the identifier triple.
func (a *Attempt) IDs() resolve.Identifiers { return a.ids }

// Grade returns the resolved grade and whether one was resolved.
func (a *Attempt) Grade() (int, bool) { return a.grade, a.graded }

// MissingIdentifiers reports whether any component of the triple is unset.
// It is a pure predicate over the stored triple, not re-derived from pages.
func (a *Attempt) MissingIdentifiers() bool { return !a.ids.Complete() }

// Ungraded reports whether the grade is unresolved.
func (a *Attempt) Ungraded() bool { return !a.graded }

// SetGrade records an external correction (interactive or scripted repair).
func (a *Attempt) SetGrade(grade int) {
	a.grade = grade
	a.graded = true
}

// SetIdentifiers records an external identity correction.
func (a *Attempt) SetIdentifiers(ids resolve.Identifiers) { a.ids = ids }
