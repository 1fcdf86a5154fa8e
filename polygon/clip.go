// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package polygon

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/golang/geo/r2"
)

const (
	// SnapGrid is the decimal grid vertices are rounded to before a union.
	SnapGrid = 1e-7
	// MinPieceArea is the area at or below which a clipped or unioned piece is numerical noise.
	MinPieceArea = 1e-9
)

// Tolerance is the snapping grid and noise area Clip and Union work with.
type Tolerance struct {
	Snap    float64
	MinArea float64
}

// DefaultTolerance serves rectangles whose larger side is at least 1.
var DefaultTolerance = Tolerance{Snap: SnapGrid, MinArea: MinPieceArea}

// ToleranceFor scales DefaultTolerance to rect. Rectangles with a larger side below 1 get a
// proportionally finer grid, so pieces of a tiny domain are not mistaken for noise.
func ToleranceFor(rect r2.Rect) Tolerance {
	l := math.Max(rect.X.Length(), rect.Y.Length())
	if !(l > 0) || l >= 1 {
		return DefaultTolerance
	}
	return Tolerance{Snap: SnapGrid * l, MinArea: MinPieceArea * l * l}
}

var (
	errUnionInflated = errors.New("polygon: union area exceeds the sum of its inputs")
	errNonFinite     = errors.New("polygon: non-finite vertex")
)

// ClipHalfPlane returns the part of a convex polygon where n·x <= c.
// The result is nil when fewer than 3 vertices survive.
func ClipHalfPlane(p Polygon, n r2.Point, c float64) Polygon {
	if len(p) < 3 {
		return nil
	}
	out := make(Polygon, 0, len(p)+1)
	prev := p[len(p)-1]
	prevIn := n.Dot(prev) <= c
	for _, cur := range p {
		curIn := n.Dot(cur) <= c
		if curIn != prevIn {
			out = append(out, lineCross(prev, cur, n, c))
		}
		if curIn {
			out = append(out, cur)
		}
		prev, prevIn = cur, curIn
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func lineCross(a, b, n r2.Point, c float64) r2.Point {
	da := n.Dot(a) - c
	db := n.Dot(b) - c
	t := da / (da - db)
	return a.Add(b.Sub(a).Mul(t))
}

// Clip intersects p with rect and returns the outer rings of the result.
//
// Convex rings are clipped exactly edge by edge. Other rings go through the general polygon
// boolean engine; any failure there is returned as an error together with a nil result, so a
// caller can drop the piece instead of corrupting the tessellation.
func Clip(p Polygon, rect r2.Rect) ([]Polygon, error) {
	if !finite(p) {
		return nil, fmt.Errorf("polygon: clip: %w", errNonFinite)
	}
	p = p.Clean(0)
	if p == nil || rect.IsEmpty() {
		return nil, nil
	}
	if !p.Bounds().Intersects(rect) {
		return nil, nil
	}
	tol := ToleranceFor(rect)
	if p.IsConvex() {
		return filterPieces([]Polygon{clipConvex(p, rect)}, tol), nil
	}

	subject := toGeom(p)
	var clipped geom.Polygon
	err := guard(func() {
		clipped = subject.Intersection(toGeom(rectPolygon(rect))).(geom.Polygon)
	})
	if err != nil {
		return nil, fmt.Errorf("polygon: clip: %w", err)
	}
	return filterPieces(outerRings(fromGeom(clipped), tol), tol), nil
}

func clipConvex(p Polygon, rect r2.Rect) Polygon {
	lo, hi := rect.Lo(), rect.Hi()
	p = ClipHalfPlane(p, r2.Point{X: -1}, -lo.X)
	p = ClipHalfPlane(p, r2.Point{X: 1}, hi.X)
	p = ClipHalfPlane(p, r2.Point{Y: -1}, -lo.Y)
	p = ClipHalfPlane(p, r2.Point{Y: 1}, hi.Y)
	for i, v := range p {
		p[i] = rect.ClampPoint(v)
	}
	return p.Clean(0)
}

func rectPolygon(rect r2.Rect) Polygon {
	v := rect.Vertices()
	return Polygon{v[0], v[1], v[2], v[3]}
}

// Union merges the pieces of a single cell, clipped to rect, into the minimal set of outer
// rings.
//
// Every vertex is snapped to the grid of ToleranceFor(rect) first. Pieces whose bounding boxes do not touch any other
// piece are passed through untouched; touching groups are merged by the polygon boolean engine.
// On failure Union returns a nil slice and the error; callers are expected to drop the whole
// region rather than fall back to the raw, possibly overlapping, fragments.
func Union(pieces []Polygon, rect r2.Rect) ([]Polygon, error) {
	tol := ToleranceFor(rect)
	snapped := make([]Polygon, 0, len(pieces))
	for _, p := range pieces {
		if !finite(p) {
			return nil, fmt.Errorf("polygon: union: %w", errNonFinite)
		}
		s := p.Snap(tol.Snap)
		if s != nil && s.Area() > tol.MinArea {
			snapped = append(snapped, s.CCW())
		}
	}
	if len(snapped) < 2 {
		return snapped, nil
	}

	out := make([]Polygon, 0, len(snapped))
	for _, group := range touchingGroups(snapped, tol.Snap) {
		if len(group) == 1 {
			out = append(out, snapped[group[0]])
			continue
		}
		merged, err := unionGroup(snapped, group, tol, geomUnion)
		if err != nil {
			return nil, err
		}
		out = append(out, merged...)
	}
	return out, nil
}

// mergeFunc returns the boolean union of two polygons.
type mergeFunc func(a, b geom.Polygon) geom.Polygon

func geomUnion(a, b geom.Polygon) geom.Polygon {
	return a.Union(b).(geom.Polygon)
}

// unionGroup merges the pieces of one touching group. A result larger than its inputs
// means the engine went wrong and is reported as an error.
func unionGroup(pieces []Polygon, group []int, tol Tolerance, merge mergeFunc) ([]Polygon, error) {
	var inputArea float64
	for _, i := range group {
		inputArea += pieces[i].Area()
	}

	acc := toGeom(pieces[group[0]])
	err := guard(func() {
		for _, i := range group[1:] {
			acc = merge(acc, toGeom(pieces[i]))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("polygon: union: %w", err)
	}

	merged := filterPieces(outerRings(fromGeom(acc), tol), tol)
	var mergedArea float64
	for _, p := range merged {
		mergedArea += p.Area()
	}
	if mergedArea > inputArea*(1+1e-6)+tol.MinArea {
		return nil, fmt.Errorf("%w: %g > %g", errUnionInflated, mergedArea, inputArea)
	}
	return merged, nil
}

// touchingGroups partitions pieces into connected components of overlapping bounding boxes.
func touchingGroups(pieces []Polygon, margin float64) [][]int {
	parent := make([]int, len(pieces))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	bounds := make([]r2.Rect, len(pieces))
	for i, p := range pieces {
		bounds[i] = p.Bounds().ExpandedByMargin(margin)
	}
	for i := range pieces {
		for j := i + 1; j < len(pieces); j++ {
			if bounds[i].Intersects(bounds[j]) {
				parent[find(i)] = find(j)
			}
		}
	}

	index := make(map[int]int)
	var groups [][]int
	for i := range pieces {
		r := find(i)
		g, ok := index[r]
		if !ok {
			g = len(groups)
			index[r] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// outerRings drops rings that are nested inside another ring (holes).
func outerRings(rings []Polygon, tol Tolerance) []Polygon {
	out := make([]Polygon, 0, len(rings))
	for i, r := range rings {
		hole := false
		for j, o := range rings {
			if i != j && o.Area() > r.Area() && encloses(o, r, tol.Snap) {
				hole = true
				break
			}
		}
		if !hole {
			out = append(out, r)
		}
	}
	return out
}

func encloses(outer, inner Polygon, slack float64) bool {
	for _, v := range inner {
		if !outer.Contains(v) && outer.BoundaryDistance(v) > slack {
			return false
		}
	}
	return true
}

func filterPieces(pieces []Polygon, tol Tolerance) []Polygon {
	out := make([]Polygon, 0, len(pieces))
	for _, p := range pieces {
		p = p.Clean(0)
		if p != nil && p.Area() > tol.MinArea {
			out = append(out, p.CCW())
		}
	}
	return out
}

func toGeom(p Polygon) geom.Polygon {
	path := make(geom.Path, len(p))
	for i, v := range p {
		path[i] = geom.Point{X: v.X, Y: v.Y}
	}
	return geom.Polygon{path}
}

func fromGeom(g geom.Polygon) []Polygon {
	rings := make([]Polygon, 0, len(g))
	for _, path := range g {
		ring := make(Polygon, 0, len(path))
		for _, v := range path {
			ring = append(ring, r2.Point{X: v.X, Y: v.Y})
		}
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}
		rings = append(rings, ring)
	}
	return rings
}

// guard converts a panic raised inside the boolean engine into an error.
func guard(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered: %v", r)
		}
	}()
	f()
	return nil
}

func finite(p Polygon) bool {
	for _, v := range p {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return false
		}
	}
	return true
}
