// Package resolve reconstructs a scanned page's identity, orientation and
// grade from its decoded barcodes. All ambiguity degrades to unset fields;
// nothing in this package returns an error, so a malformed or partial scan
// can never abort a batch run.
package resolve

import "image"

// Rotation values are the clockwise amount the page must be rotated to
// become upright. Only the four canonical amounts exist.
const (
	RotationNone = 0
	Rotation90   = 90
	Rotation180  = 180
	Rotation270  = 270
)

// centroid is the arithmetic mean of the polygon points.
func centroid(pts []image.Point) (cx, cy int) {
	if len(pts) == 0 {
		return 0, 0
	}
	sx, sy := 0, 0
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	return sx / len(pts), sy / len(pts)
}

// RotationFromCornerQuadrant estimates rotation for a quad-style (QR) code
// printed near the corner that sits top-right when the page is upright. The
// barcode centroid's quadrant relative to the floor-divided page center maps
// directly to the rotation: top-right 0, top-left 90, bottom-left 180,
// bottom-right 270. A centroid exactly on a center line counts as the top /
// left side.
func RotationFromCornerQuadrant(width, height int, pts []image.Point) int {
	cx, cy := centroid(pts)
	left := cx <= width/2
	top := cy <= height/2
	switch {
	case !left && top:
		return RotationNone
	case left && top:
		return Rotation90
	case left && !top:
		return Rotation180
	default:
		return Rotation270
	}
}

// RotationFromEdgeProximity estimates rotation for a linear code printed
// centered along whichever edge is the page's top when upright. The edge
// nearest the centroid wins: top 0, left 90, bottom 180, right 270, with
// ties resolved by that fixed preference order (first minimum wins).
func RotationFromEdgeProximity(width, height int, pts []image.Point) int {
	cx, cy := centroid(pts)
	distances := []struct {
		d        int
		rotation int
	}{
		{cy, RotationNone},           // top
		{cx, Rotation90},             // left
		{height - cy, Rotation180},   // bottom
		{width - cx, Rotation270},    // right
	}
	best := distances[0]
	for _, c := range distances[1:] {
		if c.d < best.d {
			best = c
		}
	}
	return best.rotation
}
