package resolve

import (
	"go.uber.org/zap"

	"scanmark/internal/barcode"
)

// Identifiers is the (copy, question, attempt) triple decoded from a page's
// barcodes. The empty string means unset; identifiers are opaque numeric
// strings, set exactly once from a decoded match and never guessed.
type Identifiers struct {
	Copy     string
	Question string
	Attempt  string
}

// Complete reports whether every component is set.
func (i Identifiers) Complete() bool {
	return i.Copy != "" && i.Question != "" && i.Attempt != ""
}

// Page is one resolved physical page: where it came from, its pixel size,
// the clockwise rotation that makes it upright, and whatever identity and
// grade information its barcodes carried. Immutable once built.
type Page struct {
	Path   string
	Width  int
	Height int

	Rotation int
	IDs      Identifiers

	// Grade is the process-of-elimination survivor, nil when zero or more
	// than one candidate remained.
	Grade *int
}

// Resolver turns one page's decoded barcodes into a Page record. It is a
// pure function of its inputs apart from the conflict diagnostics it logs.
type Resolver struct {
	// MaxGrade is the largest grade a disqualifier can eliminate; the
	// candidate set starts as 0..MaxGrade inclusive.
	MaxGrade int

	// Autorotate false forces rotation 0 regardless of barcode geometry.
	Autorotate bool

	logger *zap.Logger
}

// NewResolver builds a Resolver. A nil logger disables diagnostics.
func NewResolver(maxGrade int, autorotate bool, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{MaxGrade: maxGrade, Autorotate: autorotate, logger: logger}
}

// Resolve processes the page's barcodes in engine order.
//
// Identifier fields and rotation are first-match-wins: later matches never
// overwrite, but a disagreeing later identifier is logged since the page
// then carries contradictory codes. Disqualifiers eliminate candidates from
// the 0..MaxGrade range; the grade resolves only when exactly one candidate
// survives. A page with no rotation-bearing barcode falls back to an aspect
// ratio guess. Nothing here is an error: partial scans degrade to unset.
func (r *Resolver) Resolve(path string, width, height int, codes []barcode.Barcode) Page {
	possible := make([]bool, 0)
	if r.MaxGrade >= 0 {
		possible = make([]bool, r.MaxGrade+1)
		for i := range possible {
			possible[i] = true
		}
	}
	remaining := len(possible)

	var ids Identifiers
	rotation := -1

	for _, code := range codes {
		m := barcode.Parse(code.Symbology, code.Payload)
		switch m.Kind {
		case barcode.Identifier:
			r.setOnce(&ids.Copy, m.Copy, "copy", path)
			r.setOnce(&ids.Question, m.Question, "question", path)
			r.setOnce(&ids.Attempt, m.Attempt, "attempt", path)
			if rotation < 0 {
				rotation = RotationFromCornerQuadrant(width, height, code.Points)
			}

		case barcode.Disqualifier:
			// Idempotent: eliminating an absent candidate is a no-op.
			if m.Excluded < len(possible) && possible[m.Excluded] {
				possible[m.Excluded] = false
				remaining--
			}

		case barcode.BareCopy:
			r.setOnce(&ids.Copy, m.Copy, "copy", path)
			if rotation < 0 {
				rotation = RotationFromEdgeProximity(width, height, code.Points)
			}
		}
	}

	if rotation < 0 {
		// Portrait-like pages are assumed already upright.
		if height > width {
			rotation = RotationNone
		} else {
			rotation = Rotation90
		}
	}
	if !r.Autorotate {
		rotation = RotationNone
	}

	var grade *int
	if remaining == 1 {
		for value, ok := range possible {
			if ok {
				v := value
				grade = &v
				break
			}
		}
	}

	return Page{
		Path:     path,
		Width:    width,
		Height:   height,
		Rotation: rotation,
		IDs:      ids,
		Grade:    grade,
	}
}

// setOnce assigns a field only when unset. A later, different value is a
// contradictory code on the same page: the first stays authoritative and
// the disagreement is logged for manual review.
func (r *Resolver) setOnce(dst *string, value, field, path string) {
	if value == "" {
		return
	}
	if *dst == "" {
		*dst = value
		return
	}
	if *dst != value {
		r.logger.Warn("conflicting identifier barcodes on page",
			zap.String("page", path),
			zap.String("field", field),
			zap.String("kept", *dst),
			zap.String("ignored", value))
	}
}
