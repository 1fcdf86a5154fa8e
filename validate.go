// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"errors"
	"math"

	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/golang/geo/r2"
)

const (
	// boundsTol is how far a vertex may sit outside the base rectangle.
	boundsTol = 1e-6
	// overlapTol is the boundary distance under which a sample is not strictly inside.
	overlapTol = 1e-9
)

// ValidationReport describes how well a set of regions partitions the domain.
type ValidationReport struct {
	Samples int
	// Gaps counts samples no region contains.
	Gaps int
	// Overlaps counts samples strictly inside more than one region.
	Overlaps int
	// OutOfBounds counts piece vertices outside the base rectangle.
	OutOfBounds int
	EmptyRegions int
	TotalArea    float64
	// AreaError is |TotalArea - width*height| / (width*height).
	AreaError float64
}

// OK reports whether the regions form a partition within areaTol relative area error.
func (r ValidationReport) OK(areaTol float64) bool {
	return r.Gaps == 0 && r.Overlaps == 0 && r.OutOfBounds == 0 && r.AreaError <= areaTol
}

// Validate samples the centers of a gridSize x gridSize grid over the domain and checks
// that each sample belongs to exactly one region.
func Validate(regions []Region, width, height float64, gridSize int) (ValidationReport, error) {
	d := torus.Domain{Width: width, Height: height}
	if !d.Valid() {
		return ValidationReport{}, ErrInvalidDomain
	}
	if gridSize < 1 {
		return ValidationReport{}, errors.New("mosaic: grid size must be at least 1")
	}

	rect := d.Rect().ExpandedByMargin(boundsTol)
	var rep ValidationReport
	for _, region := range regions {
		if len(region) == 0 {
			rep.EmptyRegions++
		}
		for _, piece := range region {
			for _, v := range piece {
				if !rect.ContainsPoint(v) {
					rep.OutOfBounds++
				}
			}
		}
	}
	rep.TotalArea = TotalArea(regions)
	rep.AreaError = math.Abs(rep.TotalArea-d.Area()) / d.Area()

	for i := range gridSize {
		for j := range gridSize {
			pt := r2.Point{
				X: (float64(i) + 0.5) * width / float64(gridSize),
				Y: (float64(j) + 0.5) * height / float64(gridSize),
			}
			rep.Samples++
			contained, strict := 0, 0
			onBoundary := false
			for _, region := range regions {
				for _, piece := range region {
					dist := piece.BoundaryDistance(pt)
					if dist <= overlapTol {
						onBoundary = true
					}
					if !piece.Contains(pt) {
						continue
					}
					contained++
					if dist > overlapTol {
						strict++
					}
					break
				}
			}
			// Samples on an edge may be claimed by neither side.
			if contained == 0 && !onBoundary {
				rep.Gaps++
			}
			if strict > 1 {
				rep.Overlaps++
			}
		}
	}
	return rep, nil
}
