// Package export renders resolved attempts into the stable artifacts other
// tooling consumes: the per-page filename convention and CSV grade tables.
package export

import (
	"fmt"
	"regexp"
	"strconv"

	"scanmark/internal/resolve"
)

// Placeholder renders an unset identifier or grade component in a filename.
// It keeps the convention parseable, so keep it out of the digit space.
const Placeholder = "x"

// Name is one parsed output filename: the identity of the page it holds.
type Name struct {
	IDs       resolve.Identifiers
	Grade     *int
	PageIndex int
	Ext       string
}

var nameRe = regexp.MustCompile(`^U(x|\d+)_Q(x|\d+)_A(x|\d+)_G(x|\d+)_P(\d+)(\.[A-Za-z0-9]+)?$`)

// FormatName renders the stable output filename contract
// U{copy}_Q{question}_A{attempt}_G{grade}_P{page}{ext}. Unset components
// render as the placeholder. Downstream tooling parses these names, so any
// change here is a breaking change.
func FormatName(ids resolve.Identifiers, grade *int, pageIndex int, ext string) string {
	component := func(v string) string {
		if v == "" {
			return Placeholder
		}
		return v
	}
	g := Placeholder
	if grade != nil {
		g = strconv.Itoa(*grade)
	}
	return fmt.Sprintf("U%s_Q%s_A%s_G%s_P%d%s",
		component(ids.Copy), component(ids.Question), component(ids.Attempt), g, pageIndex, ext)
}

// ParseName is the inverse of FormatName. It reports ok=false for names
// outside the convention.
func ParseName(name string) (Name, bool) {
	m := nameRe.FindStringSubmatch(name)
	if m == nil {
		return Name{}, false
	}
	value := func(s string) string {
		if s == Placeholder {
			return ""
		}
		return s
	}
	n := Name{
		IDs: resolve.Identifiers{
			Copy:     value(m[1]),
			Question: value(m[2]),
			Attempt:  value(m[3]),
		},
		Ext: m[6],
	}
	if m[4] != Placeholder {
		g, err := strconv.Atoi(m[4])
		if err != nil {
			return Name{}, false
		}
		n.Grade = &g
	}
	page, err := strconv.Atoi(m[5])
	if err != nil {
		return Name{}, false
	}
	n.PageIndex = page
	return n, true
}
