// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package torus implements the flat torus metric used by the toroidal Voronoi construction:
// shortest-path distances, coordinate wrapping and 3x3 ghost replication.
package torus

import (
	"math"

	"github.com/golang/geo/r2"
)

// IdentityOffset is the index of the untranslated copy within Offsets.
const IdentityOffset = 4

// NumOffsets is the number of period translations used for ghost replication.
const NumOffsets = 9

// Domain is a width x height rectangle with opposite edges identified.
type Domain struct {
	Width  float64
	Height float64
}

// Valid reports whether both dimensions are finite and positive.
func (d Domain) Valid() bool {
	return d.Width > 0 && d.Height > 0 && !math.IsInf(d.Width, 0) && !math.IsInf(d.Height, 0)
}

// Area returns width * height.
func (d Domain) Area() float64 {
	return d.Width * d.Height
}

// Rect returns the base rectangle [0, width] x [0, height].
func (d Domain) Rect() r2.Rect {
	return r2.RectFromPoints(r2.Point{}, r2.Point{X: d.Width, Y: d.Height})
}

// Wrap is a method form of the package level Wrap.
func (d Domain) Wrap(p r2.Point) r2.Point {
	return Wrap(p, d.Width, d.Height)
}

// DistanceSq is a method form of the package level DistanceSq.
func (d Domain) DistanceSq(p1, p2 r2.Point) float64 {
	return DistanceSq(p1, p2, d.Width, d.Height)
}

// IsFinite reports whether both coordinates of p are finite numbers.
func IsFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// DistanceSq returns the squared shortest distance between p1 and p2 on the torus.
// It returns +Inf if either point is not finite or the dimensions are not positive.
// Callers must check the result with math.IsInf before using it in arithmetic.
func DistanceSq(p1, p2 r2.Point, width, height float64) float64 {
	if !IsFinite(p1) || !IsFinite(p2) || !(width > 0) || !(height > 0) {
		return math.Inf(1)
	}
	dx := axisDelta(p1.X-p2.X, width)
	dy := axisDelta(p1.Y-p2.Y, height)
	return dx*dx + dy*dy
}

// Distance returns the shortest distance between p1 and p2 on the torus.
func Distance(p1, p2 r2.Point, width, height float64) float64 {
	return math.Sqrt(DistanceSq(p1, p2, width, height))
}

func axisDelta(d, dim float64) float64 {
	d = math.Mod(math.Abs(d), dim)
	return math.Min(d, dim-d)
}

// Wrap maps p into [0, width) x [0, height). Invalid input maps to the origin.
func Wrap(p r2.Point, width, height float64) r2.Point {
	if !IsFinite(p) || !(width > 0) || !(height > 0) {
		return r2.Point{}
	}
	return r2.Point{X: wrapAxis(p.X, width), Y: wrapAxis(p.Y, height)}
}

func wrapAxis(v, dim float64) float64 {
	v = math.Mod(v, dim)
	if v < 0 {
		v += dim
	}
	// Adding dim to a tiny negative remainder can round up to dim itself.
	if v >= dim {
		v = 0
	}
	return v
}

// Nearest returns the translate of p by whole periods that is closest to ref.
func Nearest(p, ref r2.Point, width, height float64) r2.Point {
	return r2.Point{
		X: p.X - width*math.Round((p.X-ref.X)/width),
		Y: p.Y - height*math.Round((p.Y-ref.Y)/height),
	}
}

// Offsets returns the 9 period translations (dx*width, dy*height) for dx, dy in {-1, 0, 1}.
// dx varies slowest; the identity translation sits at IdentityOffset.
func Offsets(width, height float64) [NumOffsets]r2.Point {
	var offs [NumOffsets]r2.Point
	k := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			offs[k] = r2.Point{X: float64(dx) * width, Y: float64(dy) * height}
			k++
		}
	}
	return offs
}

// GhostPoints replicates every point into its 3x3 grid of period translates.
// Ghost k of point i is stored at index i*NumOffsets+k and originalIndices records i.
func GhostPoints(points []r2.Point, width, height float64) (allPoints []r2.Point, originalIndices []int) {
	offs := Offsets(width, height)
	allPoints = make([]r2.Point, 0, len(points)*NumOffsets)
	originalIndices = make([]int, 0, len(points)*NumOffsets)
	for i, p := range points {
		for _, o := range offs {
			allPoints = append(allPoints, p.Add(o))
			originalIndices = append(originalIndices, i)
		}
	}
	return allPoints, originalIndices
}
