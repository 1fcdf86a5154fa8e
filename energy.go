// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"math"

	"github.com/Caliban-17/mosaic-new/polygon"
	"github.com/golang/geo/r2"
)

const (
	// SharpAngle is the interior angle below which a vertex pays the angle penalty.
	SharpAngle = math.Pi / 9
	// activeWeight is the weight below which the centroid and angle terms are skipped.
	activeWeight = 1e-12
)

// Components is the per-term breakdown of an Energy.
type Components struct {
	Area     float64
	Centroid float64
	Angle    float64
	MinArea  float64
}

func (c Components) Sum() float64 {
	return c.Area + c.Centroid + c.Angle + c.MinArea
}

type Energy struct {
	// Total is +Inf when the configuration cannot be evaluated.
	Total      float64
	Components Components
}

// Finite reports whether the energy is a usable score.
func (e Energy) Finite() bool {
	return !math.IsInf(e.Total, 0) && !math.IsNaN(e.Total)
}

func invalidEnergy() Energy {
	return Energy{Total: math.Inf(1)}
}

// CalculateEnergy scores a tessellation. Regions without area contribute nothing.
// Mismatched lengths, nil regions or invalid params give +Inf with zero components.
func CalculateEnergy(regions []Region, points []r2.Point, params *EnergyParams) Energy {
	if regions == nil || params == nil || len(regions) != len(points) || len(points) == 0 {
		return invalidEnergy()
	}
	if err := params.Validate(); err != nil {
		return invalidEnergy()
	}
	targets, err := params.ResolveTargets(points)
	if err != nil {
		return invalidEnergy()
	}

	d := params.Domain()
	var c Components
	areas := make([]float64, len(regions))
	for i, region := range regions {
		area := region.Area()
		areas[i] = area
		if len(region) == 0 || area < negligibleArea {
			continue
		}

		c.Area += finiteOrZero(params.LambdaArea * sq(area-targets[i]))

		if params.LambdaCentroid > activeWeight {
			if centroid, ok := region.Centroid(points[i], d); ok {
				c.Centroid += finiteOrZero(params.LambdaCentroid * d.DistanceSq(points[i], centroid))
			}
		}

		if params.LambdaAngle > activeWeight {
			var penalty float64
			for _, piece := range region {
				penalty += sharpAnglePenalty(piece)
			}
			c.Angle += finiteOrZero(params.LambdaAngle * penalty)
		}
	}

	if params.LambdaMinArea > 0 && params.MinAreaThreshold > 0 {
		for _, area := range areas {
			if area > 0 && area < params.MinAreaThreshold {
				c.MinArea += finiteOrZero(params.LambdaMinArea * sq(params.MinAreaThreshold-area))
			}
		}
	}

	return Energy{Total: c.Sum(), Components: c}
}

// sharpAnglePenalty sums (SharpAngle - angle)² over the vertices of p whose interior
// angle is positive but below SharpAngle.
func sharpAnglePenalty(p polygon.Polygon) float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var penalty float64
	for j := range n {
		cur := p[j]
		v1 := p[(j-1+n)%n].Sub(cur)
		v2 := p[(j+1)%n].Sub(cur)
		n1, n2 := v1.Norm(), v2.Norm()
		if n1 <= 1e-12 || n2 <= 1e-12 {
			continue
		}
		cos := math.Max(-1, math.Min(1, v1.Dot(v2)/(n1*n2)))
		angle := math.Acos(cos)
		if angle > 0 && angle < SharpAngle {
			penalty += sq(SharpAngle - angle)
		}
	}
	return penalty
}

func sq(v float64) float64 {
	return v * v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
