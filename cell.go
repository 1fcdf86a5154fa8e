// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"fmt"

	"github.com/Caliban-17/mosaic-new/polygon"
	"github.com/golang/geo/r2"
)

// Cell represents a Voronoi cell. It is a view structure for accessing a cell in a Tessellation.
// The cell's index corresponds to the index of its site in the Tessellation's Sites.
type Cell struct {
	idx int
	t   *Tessellation
}

// SiteIndex returns the index of the site in the Tessellation's Sites.
func (c Cell) SiteIndex() int {
	return c.idx
}

// Site returns the wrapped site point of the cell.
func (c Cell) Site() r2.Point {
	return c.t.Sites[c.idx]
}

// Empty reports whether the site coincides with an earlier site and owns no area.
func (c Cell) Empty() bool {
	return c.t.Cells[c.idx] == nil
}

// NumVertices returns the number of vertices of the unclipped cell.
func (c Cell) NumVertices() int {
	return len(c.t.Cells[c.idx])
}

// Polygon returns the unclipped cell around the site, sorted counter-clockwise.
func (c Cell) Polygon() polygon.Polygon {
	return c.t.Cells[c.idx]
}

// Vertex returns the vertex at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (r2.Point, error) {
	cell := c.t.Cells[c.idx]
	if i < 0 || i >= len(cell) {
		return r2.Point{}, fmt.Errorf("Vertex: index %d out of range [0 %d)", i, len(cell))
	}
	return cell[i], nil
}

// Region returns the cell cut into pieces of the base rectangle.
func (c Cell) Region() Region {
	return c.t.Regions[c.idx]
}

// Area returns the area of the cell's region.
func (c Cell) Area() float64 {
	return c.t.Regions[c.idx].Area()
}
