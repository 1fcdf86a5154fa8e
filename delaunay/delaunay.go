// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package delaunay computes planar Delaunay triangulations as the lower convex hull
// of the input lifted onto the paraboloid z = x² + y².
package delaunay

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var (
	ErrInsufficientVertices = errors.New("delaunay: insufficient vertices for triangulation (minimum 3 required)")
	ErrDegenerate           = errors.New("delaunay: degenerate vertex set")
)

type Triangulation struct {
	Vertices []r2.Point
	// Triangles are wound counter-clockwise.
	Triangles [][3]int
	// NOTE: Sorted CCW per vertex. Open fans on the hull start at the triangle
	// without a clockwise neighbour.
	IncidentTriangleIndices []int
	IncidentTriangleOffsets []int
}

func (dt *Triangulation) IncidentTriangles(vIdx int) []int {
	if vIdx < 0 || vIdx+1 >= len(dt.IncidentTriangleOffsets) {
		panic("IncidentTriangles: vIdx out of range")
	}
	start := dt.IncidentTriangleOffsets[vIdx]
	end := dt.IncidentTriangleOffsets[vIdx+1]
	return dt.IncidentTriangleIndices[start:end]
}

func (dt *Triangulation) TriangleVertices(tIdx int) (r2.Point, r2.Point, r2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	return dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]
}

// FanClosed reports whether the triangles around vIdx form a complete cycle,
// i.e. the vertex is not on the convex hull.
func (dt *Triangulation) FanClosed(vIdx int) bool {
	tris := dt.IncidentTriangles(vIdx)
	n := len(tris)
	if n < 3 {
		return false
	}
	for i := range n {
		cur := dt.Triangles[tris[i]]
		nxt := dt.Triangles[tris[(i+1)%n]]
		if PrevVertex(cur, vIdx) != NextVertex(nxt, vIdx) {
			return false
		}
	}
	return true
}

// Circumcenter returns the center of the circle through the triangle's vertices.
// ok is false for (near) collinear triangles.
func (dt *Triangulation) Circumcenter(tIdx int) (c r2.Point, ok bool) {
	a, b, cc := dt.TriangleVertices(tIdx)
	return Circumcenter(a, b, cc)
}

// Circumcenter returns the circumcenter of a, b, c computed relative to a.
func Circumcenter(a, b, c r2.Point) (r2.Point, bool) {
	bx, by := b.X-a.X, b.Y-a.Y
	cx, cy := c.X-a.X, c.Y-a.Y
	d := 2 * (bx*cy - by*cx)
	scale := math.Max(bx*bx+by*by, cx*cx+cy*cy)
	if scale == 0 || math.Abs(d) <= 1e-14*scale {
		return r2.Point{}, false
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / d
	uy := (bx*c2 - cx*b2) / d
	return r2.Point{X: a.X + ux, Y: a.Y + uy}, true
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
			return errors.New("delaunay: eps must be positive and finite")
		}
		o.Eps = eps
		return nil
	}
}

// NOTE: Vertices must be distinct. Duplicates or cocircular quadruples that the hull
// merges away surface as ErrDegenerate and callers are expected to fall back.
func NewTriangulation(vertices []r2.Point, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	numVertices := len(vertices)
	if numVertices < 3 {
		return nil, ErrInsufficientVertices
	}

	triangles, err := lowerHullTriangles(vertices, opts.Eps)
	if err != nil {
		return nil, err
	}

	dt := &Triangulation{
		Vertices:                vertices,
		Triangles:               triangles,
		IncidentTriangleIndices: make([]int, len(triangles)*3),
		IncidentTriangleOffsets: make([]int, numVertices+1),
	}
	for _, t := range triangles {
		for _, v := range t {
			dt.IncidentTriangleOffsets[v+1]++
		}
	}
	for i := range numVertices {
		dt.IncidentTriangleOffsets[i+1] += dt.IncidentTriangleOffsets[i]
	}

	nxt := make([]int, numVertices)
	copy(nxt, dt.IncidentTriangleOffsets[:numVertices])
	for i, t := range triangles {
		for _, v := range t {
			dt.IncidentTriangleIndices[nxt[v]] = i
			nxt[v]++
		}
	}

	for i := range numVertices {
		sortIncidentTriangleIndicesCCW(i, dt.IncidentTriangles(i), dt.Triangles)
	}

	return dt, nil
}

// lowerHullTriangles returns the CCW triangles of the lower convex hull of the lifted vertices.
// Three vertices lift to a single plane, which quickhull cannot close into a solid, so that
// case is answered directly.
func lowerHullTriangles(vertices []r2.Point, eps float64) (triangles [][3]int, err error) {
	numVertices := len(vertices)
	if numVertices == 3 {
		t := [3]int{0, 1, 2}
		if !orientTriangleCCW(&t, vertices) {
			return nil, fmt.Errorf("%w: collinear vertices", ErrDegenerate)
		}
		return [][3]int{t}, nil
	}

	lifted, interior := lift(vertices)

	defer func() {
		if r := recover(); r != nil {
			triangles, err = nil, fmt.Errorf("%w: quickhull: %v", ErrDegenerate, r)
		}
	}()
	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(lifted, true, true, eps)
	// Every lifted vertex is extreme, so a complete hull has 2V-4 faces.
	if len(ch.Indices) != 3*(2*numVertices-4) {
		return nil, fmt.Errorf("%w: inconsistent number of indices returned from QuickHull", ErrDegenerate)
	}

	triangles = make([][3]int, 0, numVertices*2)
	for i := 0; i+2 < len(ch.Indices); i += 3 {
		t := [3]int{ch.Indices[i], ch.Indices[i+1], ch.Indices[i+2]}
		if !lowerFace(t, lifted, interior) {
			continue
		}
		if !orientTriangleCCW(&t, vertices) {
			continue
		}
		triangles = append(triangles, t)
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: no lower hull faces", ErrDegenerate)
	}
	return triangles, nil
}

// lift centers and scales the vertices into the unit box before lifting so that z stays
// well conditioned for any domain size. It also returns a point strictly inside the hull.
func lift(vertices []r2.Point) ([]r3.Vector, r3.Vector) {
	var mean r2.Point
	for _, p := range vertices {
		mean = mean.Add(p)
	}
	mean = mean.Mul(1 / float64(len(vertices)))

	var extent float64
	for _, p := range vertices {
		q := p.Sub(mean)
		extent = math.Max(extent, math.Max(math.Abs(q.X), math.Abs(q.Y)))
	}
	if extent == 0 {
		extent = 1
	}

	lifted := make([]r3.Vector, len(vertices))
	var interior r3.Vector
	for i, p := range vertices {
		q := p.Sub(mean).Mul(1 / extent)
		lifted[i] = r3.Vector{X: q.X, Y: q.Y, Z: q.X*q.X + q.Y*q.Y}
		interior = interior.Add(lifted[i])
	}
	return lifted, interior.Mul(1 / float64(len(vertices)))
}

// lowerFace reports whether the outward normal of t points downwards.
func lowerFace(t [3]int, lifted []r3.Vector, interior r3.Vector) bool {
	p0, p1, p2 := lifted[t[0]], lifted[t[1]], lifted[t[2]]
	norm := p1.Sub(p0).Cross(p2.Sub(p0))
	if norm.Dot(interior.Sub(p0)) > 0 {
		norm = norm.Mul(-1)
	}
	return norm.Z < -1e-12*norm.Norm()
}

// orientTriangleCCW fixes the planar winding of t and reports false for slivers.
func orientTriangleCCW(t *[3]int, v []r2.Point) bool {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	cross := p1.Sub(p0).Cross(p2.Sub(p0))
	if cross == 0 {
		return false
	}
	if cross < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return true
}

func sortIncidentTriangleIndicesCCW(vIdx int, incidentTris []int, tris [][3]int) {
	n := len(incidentTris)
	if n < 2 {
		return
	}

	// An open fan must start at the triangle nothing precedes.
	for i := range n {
		nxt := NextVertex(tris[incidentTris[i]], vIdx)
		preceded := false
		for j := range n {
			if j != i && PrevVertex(tris[incidentTris[j]], vIdx) == nxt {
				preceded = true
				break
			}
		}
		if !preceded {
			incidentTris[0], incidentTris[i] = incidentTris[i], incidentTris[0]
			break
		}
	}

	for i := 1; i < n; i++ {
		prv := PrevVertex(tris[incidentTris[i-1]], vIdx)
		for j := i; j < n; j++ {
			if NextVertex(tris[incidentTris[j]], vIdx) == prv {
				incidentTris[i], incidentTris[j] = incidentTris[j], incidentTris[i]
				break
			}
		}
	}
}

func PrevVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[2]
	case t[1]:
		return t[0]
	case t[2]:
		return t[1]
	}
	panic("PrevVertex: vIdx not in triangle")
}

func NextVertex(t [3]int, vIdx int) int {
	switch vIdx {
	case t[0]:
		return t[1]
	case t[1]:
		return t[2]
	case t[2]:
		return t[0]
	}
	panic("NextVertex: vIdx not in triangle")
}
