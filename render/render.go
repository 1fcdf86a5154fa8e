// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package render paints toroidal tessellations as SVG documents and PNG rasters.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	mosaic "github.com/Caliban-17/mosaic-new"
	svg "github.com/ajstarks/svgo"
	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"
)

const (
	defaultStroke      = "#aaaaaa"
	defaultStrokeWidth = 1
	siteRadius         = 3
	siteStyle          = "fill:rgb(255,0,0)"
)

var errInvalidCanvas = errors.New("render: width, height and scale must be positive and finite")

// Tile is one region painted in a single color.
type Tile struct {
	Region mosaic.Region
	Color  color.Color
}

type SVGOptions struct {
	// Scale maps domain units to pixels. Zero means 1.
	Scale float64
	// Stroke is the outline color; empty means a light grey.
	Stroke      string
	StrokeWidth int
	// Sites, when set, are drawn as small dots.
	Sites []r2.Point
}

func validCanvas(width, height, scale float64) bool {
	ok := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
	return ok(width) && ok(height) && ok(scale)
}

// SVG writes the tiles as an SVG document of the width x height domain.
func SVG(w io.Writer, tiles []Tile, width, height float64, opts SVGOptions) error {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	if !validCanvas(width, height, scale) {
		return errInvalidCanvas
	}
	stroke := opts.Stroke
	if stroke == "" {
		stroke = defaultStroke
	}
	strokeWidth := opts.StrokeWidth
	if strokeWidth == 0 {
		strokeWidth = defaultStrokeWidth
	}

	pw, ph := pixels(width, scale), pixels(height, scale)
	canvas := svg.New(w)
	canvas.Start(pw, ph)
	canvas.Rect(0, 0, pw, ph, "fill:rgb(255,255,255)")

	xs := make([]int, 0, 16)
	ys := make([]int, 0, 16)
	for _, tile := range tiles {
		style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%d", Hex(tileColor(tile)), stroke, strokeWidth)
		for _, piece := range tile.Region {
			if len(piece) < 3 {
				continue
			}
			xs, ys = xs[:0], ys[:0]
			for _, v := range piece {
				xs = append(xs, pixels(v.X, scale))
				ys = append(ys, pixels(v.Y, scale))
			}
			canvas.Polygon(xs, ys, style)
		}
	}
	for _, s := range opts.Sites {
		canvas.Circle(pixels(s.X, scale), pixels(s.Y, scale), siteRadius, siteStyle)
	}
	canvas.End()
	return nil
}

// Raster paints the tiles into an image of the domain scaled by scale.
func Raster(tiles []Tile, width, height, scale float64) (image.Image, error) {
	dc, err := paint(tiles, width, height, scale)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dc.Close() }()
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("render: flush: %w", err)
	}
	return dc.Image(), nil
}

// PNG paints the tiles and saves the raster to path.
func PNG(path string, tiles []Tile, width, height, scale float64) error {
	dc, err := paint(tiles, width, height, scale)
	if err != nil {
		return err
	}
	defer func() { _ = dc.Close() }()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

func paint(tiles []Tile, width, height, scale float64) (*gg.Context, error) {
	if !validCanvas(width, height, scale) {
		return nil, errInvalidCanvas
	}
	dc := gg.NewContext(pixels(width, scale), pixels(height, scale))
	dc.ClearWithColor(gg.White)
	dc.SetLineWidth(1)
	for _, tile := range tiles {
		for _, piece := range tile.Region {
			if len(piece) < 3 {
				continue
			}
			dc.MoveTo(piece[0].X*scale, piece[0].Y*scale)
			for _, v := range piece[1:] {
				dc.LineTo(v.X*scale, v.Y*scale)
			}
			dc.ClosePath()
			dc.SetColor(tileColor(tile))
			if err := dc.FillPreserve(); err != nil {
				_ = dc.Close()
				return nil, fmt.Errorf("render: fill: %w", err)
			}
			dc.SetRGB(0.67, 0.67, 0.67)
			if err := dc.Stroke(); err != nil {
				_ = dc.Close()
				return nil, fmt.Errorf("render: stroke: %w", err)
			}
		}
	}
	return dc, nil
}

func tileColor(t Tile) color.Color {
	if t.Color == nil {
		return color.White
	}
	return t.Color
}

func pixels(v, scale float64) int {
	return int(math.Round(v * scale))
}
