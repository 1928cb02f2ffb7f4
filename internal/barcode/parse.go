package barcode

import "regexp"

// MatchKind classifies what a payload turned out to be.
type MatchKind int

const (
	// Unrecognized payloads are silently ignored by callers.
	Unrecognized MatchKind = iota
	// Identifier is a copy|question|attempt triple.
	Identifier
	// Disqualifier marks one grade value as NOT the grade.
	Disqualifier
	// BareCopy is a linear-code payload taken verbatim as the copy id.
	BareCopy
)

// Match is the parsed form of one barcode payload. Exactly one of the
// payload shapes applies; fields are only meaningful for the matching kind.
type Match struct {
	Kind MatchKind

	// Identifier fields, in the literal payload order.
	Copy     string
	Question string
	Attempt  string

	// Disqualifier value: the grade excluded from consideration.
	Excluded int
}

var (
	identifierRe   = regexp.MustCompile(`^(\d+)\|(\d+)\|(\d+)$`)
	disqualifierRe = regexp.MustCompile(`^GRADE(\d+)$`)
)

// Parse classifies a raw payload string. The identifier and disqualifier
// patterns are mutually exclusive by construction (digit-pipe triple vs a
// literal "GRADE" prefix), and both are tested independently of symbology.
// The bare copy tag only applies to linear codes: the whole payload becomes
// the copy id with no question/attempt component. Pure function.
func Parse(sym Symbology, payload string) Match {
	if m := identifierRe.FindStringSubmatch(payload); m != nil {
		return Match{Kind: Identifier, Copy: m[1], Question: m[2], Attempt: m[3]}
	}
	if m := disqualifierRe.FindStringSubmatch(payload); m != nil {
		return Match{Kind: Disqualifier, Excluded: atoi(m[1])}
	}
	if sym == SymbologyLinear && payload != "" {
		return Match{Kind: BareCopy, Copy: payload}
	}
	return Match{Kind: Unrecognized}
}

// atoi converts a digits-only string already vetted by the regexps. Values
// that overflow int are clamped; disqualifiers that large can never match a
// candidate grade anyway.
func atoi(digits string) int {
	n := 0
	for _, c := range digits {
		n = n*10 + int(c-'0')
		if n < 0 {
			return int(^uint(0) >> 1)
		}
	}
	return n
}
