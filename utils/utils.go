// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides seeded generator layouts for toroidal tessellations.

package utils

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r2"
)

// GenerateRandomPoints generates cnt uniformly distributed points in [0, width) x [0, height).
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, width, height float64, seed int64) []r2.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r2.Point, cnt)

	for i := range cnt {
		points[i] = r2.Point{
			X: random.Float64() * width,
			Y: random.Float64() * height,
		}
	}

	return points
}

// GenerateJitteredGrid lays out roughly cnt points on a grid matching the domain's aspect ratio
// and moves each one by up to a quarter cell in both directions. It returns exactly cnt points;
// surplus grid cells are skipped from the end.
func GenerateJitteredGrid(cnt int, width, height float64, seed int64) []r2.Point {
	if cnt <= 0 {
		return []r2.Point{}
	}
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))

	rows := max(1, int(math.Round(math.Sqrt(float64(cnt)*height/width))))
	cols := (cnt + rows - 1) / rows
	cellW := width / float64(cols)
	cellH := height / float64(rows)

	points := make([]r2.Point, 0, cnt)
	for row := 0; row < rows && len(points) < cnt; row++ {
		for col := 0; col < cols && len(points) < cnt; col++ {
			jx := (random.Float64()*2 - 1) * cellW * 0.25
			jy := (random.Float64()*2 - 1) * cellH * 0.25
			points = append(points, r2.Point{
				X: (float64(col)+0.5)*cellW + jx,
				Y: (float64(row)+0.5)*cellH + jy,
			})
		}
	}

	return points
}
