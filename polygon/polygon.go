// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package polygon provides the planar polygon kernel (area, centroid, containment, vertex
// snapping) and the clipping/union adapter used to cut toroidal Voronoi cells into pieces of
// the base rectangle.
package polygon

import (
	"math"

	"github.com/golang/geo/r2"
)

const (
	// degenerateArea is the |signed area| below which a ring is treated as collinear.
	degenerateArea = 1e-12
)

// Polygon is an ordered, open ring of vertices. The first vertex is not repeated at the end.
type Polygon []r2.Point

// SignedArea returns the shoelace area, positive for counter-clockwise rings.
func (p Polygon) SignedArea() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

// Area returns the unsigned shoelace area. Rings with fewer than 3 vertices have zero area.
func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Centroid returns the area-weighted centroid.
//
// Two vertices yield their midpoint. Collinear rings (|signed area| < 1e-12) yield the
// arithmetic mean of the vertices. ok is false only for rings with fewer than 2 vertices.
func (p Polygon) Centroid() (c r2.Point, ok bool) {
	n := len(p)
	switch {
	case n < 2:
		return r2.Point{}, false
	case n == 2:
		return p[0].Add(p[1]).Mul(0.5), true
	}

	a := p.SignedArea()
	if math.Abs(a) < degenerateArea {
		return p.mean(), true
	}
	var cx, cy float64
	for i := range n {
		j := (i + 1) % n
		cross := p[i].X*p[j].Y - p[j].X*p[i].Y
		cx += (p[i].X + p[j].X) * cross
		cy += (p[i].Y + p[j].Y) * cross
	}
	f := 1 / (6 * a)
	return r2.Point{X: cx * f, Y: cy * f}, true
}

func (p Polygon) mean() r2.Point {
	var sum r2.Point
	for _, v := range p {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(p)))
}

// Bounds returns the bounding rectangle of the vertices.
func (p Polygon) Bounds() r2.Rect {
	if len(p) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(p...)
}

// Translate returns a copy of p shifted by o.
func (p Polygon) Translate(o r2.Point) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = v.Add(o)
	}
	return out
}

// CCW returns p with counter-clockwise orientation, reversing a copy if needed.
func (p Polygon) CCW() Polygon {
	if p.SignedArea() >= 0 {
		return p
	}
	out := make(Polygon, len(p))
	for i, v := range p {
		out[len(p)-1-i] = v
	}
	return out
}

// IsConvex reports whether the ring turns in one direction only.
// Collinear runs are allowed.
func (p Polygon) IsConvex() bool {
	n := len(p)
	if n < 3 {
		return false
	}
	scale := p.Bounds().Size()
	eps := 1e-12 * math.Max(1, scale.X*scale.Y)
	var pos, neg bool
	for i := range n {
		a, b, c := p[i], p[(i+1)%n], p[(i+2)%n]
		cross := b.Sub(a).Cross(c.Sub(b))
		if cross > eps {
			pos = true
		} else if cross < -eps {
			neg = true
		}
		if pos && neg {
			return false
		}
	}
	return true
}

// Contains reports whether pt lies inside p using the even-odd rule.
// Points exactly on the boundary may be reported either way.
func (p Polygon) Contains(pt r2.Point) bool {
	n := len(p)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := range n {
		vi, vj := p[i], p[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// BoundaryDistance returns the distance from pt to the nearest edge of p.
func (p Polygon) BoundaryDistance(pt r2.Point) float64 {
	n := len(p)
	best := math.Inf(1)
	for i := range n {
		best = math.Min(best, segmentDistance(pt, p[i], p[(i+1)%n]))
	}
	return best
}

// StrictlyContains reports whether pt is inside p and farther than tol from its boundary.
func (p Polygon) StrictlyContains(pt r2.Point, tol float64) bool {
	return p.Contains(pt) && p.BoundaryDistance(pt) > tol
}

func segmentDistance(pt, a, b r2.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return pt.Sub(a).Norm()
	}
	t := math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/l2))
	return pt.Sub(a.Add(ab.Mul(t))).Norm()
}

// Clean collapses consecutive vertices closer than tol (including the closing pair) and
// returns nil when fewer than 3 distinct vertices remain.
func (p Polygon) Clean(tol float64) Polygon {
	out := make(Polygon, 0, len(p))
	for _, v := range p {
		if len(out) > 0 && near(out[len(out)-1], v, tol) {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && near(out[0], out[len(out)-1], tol) {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func near(a, b r2.Point, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Snap rounds every vertex to a multiple of grid and drops the duplicates this produces.
func (p Polygon) Snap(grid float64) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r2.Point{X: snap(v.X, grid), Y: snap(v.Y, grid)}
	}
	return out.Clean(0)
}

func snap(v, grid float64) float64 {
	s := math.Round(v/grid) * grid
	if s == 0 {
		// Avoid -0 so snapped rings compare equal.
		return 0
	}
	return s
}
