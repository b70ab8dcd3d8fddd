// Package geometry implements the axis-aligned primitives the packer builds
// on: box-box intersection, potential-point fit checks, and footprint/area
// helpers. Touching faces do not count as intersecting.
package geometry

import "github.com/piwi3910/containerload/internal/model"

// span normalizes a signed width into an ordinary [min, max] interval.
func span(y, w int) (lo, hi int) {
	if w < 0 {
		return y + w, y
	}
	return y, y + w
}

// Intersects reports whether two axis-aligned boxes, given as corner plus
// signed extents, overlap on all three axes. Strict inequalities: boxes that
// only touch a face do not intersect.
func Intersects(x1, y1, z1, l1, w1, h1, x2, y2, z2, l2, w2, h2 int) bool {
	overlapX := x2 < x1+l1 && x2+l2 > x1
	if !overlapX {
		return false
	}

	y1min, y1max := span(y1, w1)
	y2min, y2max := span(y2, w2)
	overlapY := y2min < y1max && y2max > y1min
	if !overlapY {
		return false
	}

	overlapZ := z2 < z1+h1 && z2+h2 > z1
	return overlapZ
}

// PlacementIntersects is a convenience wrapper over Intersects for two
// model.Placement values.
func PlacementIntersects(a, b model.Placement) bool {
	return Intersects(a.X, a.Y, a.Z, a.L, a.W, a.H, b.X, b.Y, b.Z, b.L, b.W, b.H)
}

// Fits reports whether a potential point can host a box of the given
// oriented extents: enough length, enough (absolute) width, enough height.
func Fits(pp model.PotentialPoint, l, w, h int) bool {
	absW, absPPW := w, pp.W
	if absW < 0 {
		absW = -absW
	}
	if absPPW < 0 {
		absPPW = -absPPW
	}
	return pp.L >= l && absPPW >= absW && pp.H >= h
}

// Footprint returns l*|w|, the floor area a box or PP occupies.
func Footprint(l, w int) int {
	if w < 0 {
		w = -w
	}
	return l * w
}

// Contains reports whether the container fully bounds the placement.
func Contains(c model.Container, p model.Placement) bool {
	if p.X < 0 || p.X+p.L > c.CL {
		return false
	}
	ymin, ymax := span(p.Y, p.W)
	if ymin < 0 || ymax > c.CW {
		return false
	}
	if p.Z < 0 || p.Z+p.H > c.CH {
		return false
	}
	return true
}
