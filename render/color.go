// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"hash/fnv"
	"image/color"
	"math"

	mosaic "github.com/Caliban-17/mosaic-new"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
)

// Sampler picks the color of a tile from its position in a width x height domain.
type Sampler func(x, y, width, height float64) color.Color

// PaletteSampler blends the palette stops in Lab space along the domain diagonal,
// from the top-left corner (first stop) to the bottom-right corner (last stop).
// An empty palette samples mid grey.
func PaletteSampler(palette []color.Color) Sampler {
	stops := make([]colorful.Color, 0, len(palette))
	for _, c := range palette {
		cf, _ := colorful.MakeColor(c)
		stops = append(stops, cf)
	}
	return func(x, y, width, height float64) color.Color {
		switch len(stops) {
		case 0:
			return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
		case 1:
			return stops[0]
		}
		t := (x/width + y/height) / 2
		if math.IsNaN(t) {
			t = 0
		}
		t = math.Max(0, math.Min(1, t))
		pos := t * float64(len(stops)-1)
		i := min(int(pos), len(stops)-2)
		return stops[i].BlendLab(stops[i+1], pos-float64(i)).Clamped()
	}
}

// ColorFromName returns a stable, moderately saturated color for a label.
func ColorFromName(name string) color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	hue := float64(h.Sum32()%360) + 0.5
	return colorful.Hcl(hue, 0.45, 0.72).Clamped()
}

// Hex formats c as #rrggbb.
func Hex(c color.Color) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Clamped().Hex()
}

// Colorize pairs every region with the color the sampler gives at its site.
func Colorize(regions []mosaic.Region, sites []r2.Point, width, height float64, sample Sampler) []Tile {
	tiles := make([]Tile, 0, len(regions))
	for i, r := range regions {
		var c color.Color = color.White
		if i < len(sites) && sample != nil {
			c = sample(sites[i].X, sites[i].Y, width, height)
		}
		tiles = append(tiles, Tile{Region: r, Color: c})
	}
	return tiles
}
