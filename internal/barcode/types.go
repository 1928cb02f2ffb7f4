// Package barcode defines the decoded-barcode model and the payload parser
// that classifies raw barcode text into the structured forms scanmark
// understands (identifier triples, grade disqualifiers, bare copy tags).
package barcode

import "image"

// Symbology identifies the barcode encoding family as reported by the
// decoding engine. Only QR and the linear top-center code are meaningful;
// everything else is SymbologyOther and never matches a bare copy tag.
type Symbology int

const (
	SymbologyOther Symbology = iota
	SymbologyQR
	SymbologyLinear
)

// String returns the symbology name used in logs.
func (s Symbology) String() string {
	switch s {
	case SymbologyQR:
		return "qr"
	case SymbologyLinear:
		return "linear"
	default:
		return "other"
	}
}

// Barcode is one decoded code on a page: its symbology, the raw payload
// text, and the bounding polygon in page pixel coordinates. Produced by the
// decoding engine and consumed once per page; never mutated.
type Barcode struct {
	Symbology Symbology
	Payload   string
	Points    []image.Point
}
