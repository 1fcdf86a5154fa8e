// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package mosaic builds Voronoi tessellations of a flat torus and relaxes their generator
// points by gradient descent on a weighted energy of area, centroid, angle and minimum-area
// penalties.
package mosaic

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Caliban-17/mosaic-new/delaunay"
	"github.com/Caliban-17/mosaic-new/polygon"
	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/charmbracelet/log"
	"github.com/golang/geo/r2"
)

// MinSites is the smallest number of generator points a tessellation accepts.
const MinSites = 3

const (
	// coincidentTol is the toroidal distance below which two sites are the same site.
	coincidentTol = 1e-12
	// tileTol is the relative error allowed between the summed cell areas and the domain area.
	tileTol = 1e-9
)

// Tessellation is the Voronoi diagram of a point set on a torus.
type Tessellation struct {
	Domain torus.Domain
	// Sites are the generator points wrapped into the domain.
	Sites []r2.Point
	// Cells are the convex Voronoi cells around each site, counter-clockwise. A cell may
	// reach past the domain edges. Sites coinciding with an earlier site have a nil cell.
	Cells []polygon.Polygon
	// Regions are the cells cut into pieces of the base rectangle.
	Regions []Region
}

func (t *Tessellation) NumCells() int {
	return len(t.Sites)
}

func (t *Tessellation) Cell(i int) (Cell, error) {
	if i < 0 || i >= len(t.Sites) {
		return Cell{}, fmt.Errorf("Cell: index %d out of range [0 %d)", i, len(t.Sites))
	}
	return Cell{idx: i, t: t}, nil
}

// GenerateRegions returns, for every generator point, the pieces of the base rectangle
// closer to it than to any other generator on the torus. Regions follow the order of points.
//
// It returns ErrTooFewPoints, ErrInvalidDomain or ErrInvalidPoint for invalid input and an
// error wrapping ErrUnevaluable when the construction itself fails.
func GenerateRegions(points []r2.Point, width, height float64, setters ...Option) ([]Region, error) {
	t, err := NewTessellation(points, width, height, setters...)
	if err != nil {
		return nil, err
	}
	return t.Regions, nil
}

func NewTessellation(points []r2.Point, width, height float64, setters ...Option) (*Tessellation, error) {
	opts, err := applyOptions(setters)
	if err != nil {
		return nil, err
	}
	return newTessellation(points, torus.Domain{Width: width, Height: height}, opts)
}

func newTessellation(points []r2.Point, d torus.Domain, opts Options) (t *Tessellation, err error) {
	if !d.Valid() {
		return nil, ErrInvalidDomain
	}
	if len(points) < MinSites {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	for i, p := range points {
		if !torus.IsFinite(p) {
			return nil, fmt.Errorf("%w: index %d is %v", ErrInvalidPoint, i, p)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("%w: %v", ErrUnevaluable, r)
			opts.Logger.Error("voronoi generation failed", "sites", len(points), "err", err)
		}
	}()

	sites := make([]r2.Point, len(points))
	for i, p := range points {
		sites[i] = d.Wrap(p)
	}
	owners := coincidentOwners(sites, d)
	unique := make([]int, 0, len(sites))
	uniqueSites := make([]r2.Point, 0, len(sites))
	for i, o := range owners {
		if o == i {
			unique = append(unique, i)
			uniqueSites = append(uniqueSites, sites[i])
		} else {
			opts.Logger.Debug("coincident site gets an empty region", "site", i, "owner", o)
		}
	}

	cells := centerCells(uniqueSites, d, opts)

	t = &Tessellation{
		Domain:  d,
		Sites:   sites,
		Cells:   make([]polygon.Polygon, len(sites)),
		Regions: make([]Region, len(sites)),
	}
	for i := range t.Regions {
		t.Regions[i] = Region{}
	}
	rect := d.Rect()
	offs := torus.Offsets(d.Width, d.Height)
	for u, i := range unique {
		t.Cells[i] = cells[u]
		t.Regions[i] = cutRegion(i, cells[u], rect, offs, polygon.Union, opts.Logger)
	}
	return t, nil
}

// coincidentOwners maps every site to the first site within coincidentTol of it.
func coincidentOwners(sites []r2.Point, d torus.Domain) []int {
	type key struct{ x, y int64 }

	bucket := math.Max(coincidentTol, 1e-9*math.Max(d.Width, d.Height))
	nx := int64(math.Ceil(d.Width / bucket))
	ny := int64(math.Ceil(d.Height / bucket))
	wrap := func(v, n int64) int64 { return ((v % n) + n) % n }

	owners := make([]int, len(sites))
	buckets := make(map[key][]int, len(sites))
	for i, s := range sites {
		owners[i] = i
		bx := int64(s.X / bucket)
		by := int64(s.Y / bucket)
	search:
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range buckets[key{wrap(bx+dx, nx), wrap(by+dy, ny)}] {
					if d.DistanceSq(s, sites[j]) < coincidentTol*coincidentTol {
						owners[i] = j
						break search
					}
				}
			}
		}
		if owners[i] == i {
			k := key{wrap(bx, nx), wrap(by, ny)}
			buckets[k] = append(buckets[k], i)
		}
	}
	return owners
}

// centerCells computes the Voronoi cell around every site. Cells are read off the Delaunay
// triangulation of the ghost points when it is trustworthy and rebuilt by half-plane
// intersection otherwise.
func centerCells(sites []r2.Point, d torus.Domain, opts Options) []polygon.Polygon {
	ghosts, _ := torus.GhostPoints(sites, d.Width, d.Height)
	cells := make([]polygon.Polygon, len(sites))

	dt, err := delaunay.NewTriangulation(ghosts, delaunay.WithEps(opts.Eps))
	if err != nil {
		opts.Logger.Debug("delaunay fast path unavailable", "sites", len(sites), "err", err)
	}

	fallbacks := 0
	for i, s := range sites {
		if dt != nil {
			if cell, ok := delaunayCell(dt, i*torus.NumOffsets+torus.IdentityOffset, s, d); ok {
				cells[i] = cell
				continue
			}
		}
		cells[i] = halfPlaneCell(i, sites, ghosts, d)
		fallbacks++
	}
	if dt != nil && fallbacks > 0 {
		opts.Logger.Debug("delaunay cells rejected", "count", fallbacks)
	}

	if dt != nil && fallbacks < len(sites) && !tilesDomain(cells, d) {
		opts.Logger.Debug("delaunay cells do not tile the domain, rebuilding by half-planes")
		for i := range sites {
			cells[i] = halfPlaneCell(i, sites, ghosts, d)
		}
	}
	if !tilesDomain(cells, d) {
		opts.Logger.Warn("voronoi cells do not tile the domain", "sites", len(sites))
	}
	return cells
}

func delaunayCell(dt *delaunay.Triangulation, v int, site r2.Point, d torus.Domain) (polygon.Polygon, bool) {
	if !dt.FanClosed(v) {
		return nil, false
	}
	tris := dt.IncidentTriangles(v)
	cell := make(polygon.Polygon, 0, len(tris))
	for _, tIdx := range tris {
		c, ok := dt.Circumcenter(tIdx)
		if !ok {
			return nil, false
		}
		cell = append(cell, c)
	}

	cell = cell.Clean(cleanTol(d))
	if cell == nil || cell.SignedArea() <= 0 || !cell.IsConvex() || !cell.Contains(site) {
		return nil, false
	}
	// A cell never reaches past the bisectors with the site's own period copies.
	slackX := d.Width/2 + 1e-9*d.Width
	slackY := d.Height/2 + 1e-9*d.Height
	for _, p := range cell {
		if math.Abs(p.X-site.X) > slackX || math.Abs(p.Y-site.Y) > slackY {
			return nil, false
		}
	}
	return cell, true
}

type ghostCandidate struct {
	p     r2.Point
	dist2 float64
}

// halfPlaneCell intersects the period box of site i with the bisector half-planes of the
// surrounding ghosts, nearest first, until no remaining ghost can cut the cell.
func halfPlaneCell(i int, sites, ghosts []r2.Point, d torus.Domain) polygon.Polygon {
	s := sites[i]
	hw, hh := d.Width/2, d.Height/2
	cell := polygon.Polygon{
		{X: s.X - hw, Y: s.Y - hh},
		{X: s.X + hw, Y: s.Y - hh},
		{X: s.X + hw, Y: s.Y + hh},
		{X: s.X - hw, Y: s.Y + hh},
	}

	cands := make([]ghostCandidate, 0, len(ghosts))
	for j, g := range ghosts {
		if j/torus.NumOffsets == i {
			continue
		}
		cands = append(cands, ghostCandidate{p: g, dist2: norm2(g.Sub(s))})
	}
	slices.SortFunc(cands, func(a, b ghostCandidate) int {
		return cmp.Compare(a.dist2, b.dist2)
	})

	radius2 := maxDist2(cell, s)
	for _, c := range cands {
		if c.dist2 > 4*radius2 {
			break
		}
		n := c.p.Sub(s)
		cell = polygon.ClipHalfPlane(cell, n, n.Dot(s.Add(c.p).Mul(0.5)))
		if len(cell) < 3 {
			return nil
		}
		radius2 = maxDist2(cell, s)
	}
	return cell.Clean(cleanTol(d))
}

func norm2(v r2.Point) float64 {
	return v.Dot(v)
}

func maxDist2(p polygon.Polygon, s r2.Point) float64 {
	var m float64
	for _, v := range p {
		m = math.Max(m, norm2(v.Sub(s)))
	}
	return m
}

func cleanTol(d torus.Domain) float64 {
	return 1e-12 * math.Max(d.Width, d.Height)
}

func tilesDomain(cells []polygon.Polygon, d torus.Domain) bool {
	var sum float64
	for _, c := range cells {
		sum += c.Area()
	}
	return math.Abs(sum-d.Area()) <= tileTol*d.Area()
}

// unionFunc merges the pieces of one cell clipped to rect.
type unionFunc func(pieces []polygon.Polygon, rect r2.Rect) ([]polygon.Polygon, error)

// cutRegion translates a cell by every period offset and keeps what falls in the base
// rectangle. A failed clip drops that piece; a failed union drops the whole region so
// the total area can shrink but never grow.
func cutRegion(site int, cell polygon.Polygon, rect r2.Rect, offs [torus.NumOffsets]r2.Point, union unionFunc, logger *log.Logger) Region {
	if cell == nil {
		logger.Warn("no voronoi cell, region left empty", "site", site)
		return Region{}
	}
	var pieces []polygon.Polygon
	for _, o := range offs {
		clipped, err := polygon.Clip(cell.Translate(o), rect)
		if err != nil {
			logger.Error("clip failed, dropping piece", "site", site, "offset", o, "err", err)
			continue
		}
		pieces = append(pieces, clipped...)
	}
	merged, err := union(pieces, rect)
	if err != nil {
		logger.Warn("union failed, dropping region", "site", site, "err", err)
		return Region{}
	}
	return Region(merged)
}
