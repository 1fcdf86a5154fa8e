// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"github.com/Caliban-17/mosaic-new/polygon"
	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/golang/geo/r2"
)

// negligibleArea is the area below which a region or piece does not take part in
// energy terms.
const negligibleArea = 1e-12

// Region is the part of the base rectangle owned by one generator point.
// It may be split into several pieces by the domain edges; an empty Region is valid.
type Region []polygon.Polygon

// NumPieces returns the number of polygon pieces.
func (r Region) NumPieces() int {
	return len(r)
}

// Area returns the summed area of all pieces.
func (r Region) Area() float64 {
	var a float64
	for _, p := range r {
		a += p.Area()
	}
	return a
}

// Centroid returns the area-weighted centroid of the region's pieces.
//
// Piece centroids are first moved to the period translate nearest ref, so a region cut by
// a domain edge has its centroid next to its generator rather than in the middle of the
// domain. A plain area-weighted mean of the raw piece centroids would instead land between
// the fragments: two halves of a region split by the x = 0 edge would average to x = W/2.
// The result is wrapped into the domain. ok is false when no piece has a non-negligible area.
func (r Region) Centroid(ref r2.Point, d torus.Domain) (c r2.Point, ok bool) {
	var sum r2.Point
	var total float64
	for _, p := range r {
		a := p.Area()
		if a <= negligibleArea {
			continue
		}
		pc, ok := p.Centroid()
		if !ok {
			continue
		}
		pc = torus.Nearest(pc, ref, d.Width, d.Height)
		sum = sum.Add(pc.Mul(a))
		total += a
	}
	if total <= negligibleArea {
		return r2.Point{}, false
	}
	return d.Wrap(sum.Mul(1 / total)), true
}

// Contains reports whether pt lies in one of the pieces.
func (r Region) Contains(pt r2.Point) bool {
	for _, p := range r {
		if p.Contains(pt) {
			return true
		}
	}
	return false
}

// TotalArea sums the areas of all regions.
func TotalArea(regions []Region) float64 {
	var a float64
	for _, r := range regions {
		a += r.Area()
	}
	return a
}
