// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"errors"
	"fmt"
	"math"

	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/golang/geo/r2"
)

const (
	// minTarget replaces non-positive target areas.
	minTarget = 1e-9

	defaultLambdaArea   = 2.5
	defaultLambdaAngle  = 0.01
	defaultLearningRate = 0.02
)

// TargetAreaFunc returns the desired region area for a generator point.
type TargetAreaFunc func(p r2.Point) float64

// EnergyParams configures the energy functional and the descent step.
type EnergyParams struct {
	Width  float64
	Height float64

	LambdaArea     float64
	LambdaCentroid float64
	LambdaAngle    float64
	LambdaMinArea  float64
	// MinAreaThreshold is the area below which a region pays the min-area penalty.
	MinAreaThreshold float64

	// TargetArea, when set, takes precedence over Weights.
	TargetArea TargetAreaFunc
	// Weights are positive per-point shares of the domain area.
	Weights []float64
	// Targets are fixed per-point target areas and take precedence over TargetArea and
	// Weights. Optimize fills them from the initial layout.
	Targets []float64

	LearningRate float64
}

// DefaultEnergyParams returns the weights the optimizer is tuned for: a strong area term,
// a light sliver penalty and no centroid or min-area terms.
func DefaultEnergyParams(width, height float64) EnergyParams {
	return EnergyParams{
		Width:        width,
		Height:       height,
		LambdaArea:   defaultLambdaArea,
		LambdaAngle:  defaultLambdaAngle,
		LearningRate: defaultLearningRate,
	}
}

func (p EnergyParams) Domain() torus.Domain {
	return torus.Domain{Width: p.Width, Height: p.Height}
}

func nonNegativeFinite(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// Validate checks the numeric ranges of p. Targets are checked against the point count by
// ResolveTargets.
func (p EnergyParams) Validate() error {
	if !p.Domain().Valid() {
		return ErrInvalidDomain
	}
	weights := []struct {
		name string
		v    float64
	}{
		{"LambdaArea", p.LambdaArea},
		{"LambdaCentroid", p.LambdaCentroid},
		{"LambdaAngle", p.LambdaAngle},
		{"LambdaMinArea", p.LambdaMinArea},
		{"MinAreaThreshold", p.MinAreaThreshold},
		{"LearningRate", p.LearningRate},
	}
	for _, w := range weights {
		if !nonNegativeFinite(w.v) {
			return fmt.Errorf("mosaic: %s must be non-negative and finite, got %v", w.name, w.v)
		}
	}
	for i, t := range p.Targets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("mosaic: Targets[%d] must be finite, got %v", i, t)
		}
	}
	return nil
}

// ResolveTargets returns the target area of every point: fixed Targets first, then the
// TargetArea function, then normalized Weights, then the uniform share of the domain.
// Weights are used only when there is one per point and all are positive and finite;
// otherwise the uniform share applies. Non-positive targets are clamped to a tiny positive value.
func (p EnergyParams) ResolveTargets(points []r2.Point) ([]float64, error) {
	n := len(points)
	if n == 0 {
		return nil, errors.New("mosaic: no points to resolve targets for")
	}
	if p.Targets != nil && len(p.Targets) != n {
		return nil, fmt.Errorf("mosaic: %d targets for %d points", len(p.Targets), n)
	}

	total := p.Width * p.Height
	targets := make([]float64, n)
	switch {
	case p.Targets != nil:
		copy(targets, p.Targets)
	case p.TargetArea != nil:
		for i, pt := range points {
			targets[i] = p.TargetArea(pt)
		}
	case usableWeights(p.Weights, n):
		var sum float64
		for _, w := range p.Weights {
			sum += w
		}
		for i, w := range p.Weights {
			targets[i] = total * w / sum
		}
	default:
		for i := range targets {
			targets[i] = total / float64(n)
		}
	}
	for i, t := range targets {
		if !(t > 0) || math.IsInf(t, 0) {
			targets[i] = minTarget
		}
	}
	return targets, nil
}

func usableWeights(weights []float64, n int) bool {
	if len(weights) != n {
		return false
	}
	for _, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return false
		}
	}
	return true
}
