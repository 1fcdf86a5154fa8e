// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/golang/geo/r2"
)

// Status is the verdict of a gradient norm check.
type Status int

const (
	StatusContinue Status = iota
	StatusConverged
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusContinue:
		return "continue"
	case StatusConverged:
		return "converged"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// StopReason explains why Optimize returned.
type StopReason string

const (
	StopMaxIterations     StopReason = "iteration budget exhausted"
	StopConverged         StopReason = "gradient norm below tolerance"
	StopNonFiniteGradient StopReason = "gradient norm is not finite"
	StopNonFiniteEnergy   StopReason = "energy is not finite"
	StopUnevaluable       StopReason = "region generation failed"
	StopCanceled          StopReason = "canceled"
)

// Step moves every point against its gradient by params.LearningRate and wraps the result
// into the domain. Non-finite gradient components count as 0 and non-finite coordinates
// wrap to the origin.
func Step(points, grad []r2.Point, params *EnergyParams) ([]r2.Point, error) {
	if params == nil {
		return nil, errors.New("mosaic: nil energy params")
	}
	if len(points) != len(grad) {
		return nil, fmt.Errorf("mosaic: %d points but %d gradient entries", len(points), len(grad))
	}
	d := params.Domain()
	if !d.Valid() {
		return nil, ErrInvalidDomain
	}
	lr := params.LearningRate
	if math.IsNaN(lr) || math.IsInf(lr, 0) {
		return nil, fmt.Errorf("mosaic: learning rate must be finite, got %v", lr)
	}

	next := make([]r2.Point, len(points))
	for i, p := range points {
		g := r2.Point{X: finiteOrZero(grad[i].X), Y: finiteOrZero(grad[i].Y)}
		next[i] = d.Wrap(p.Sub(g.Mul(lr)))
	}
	return next, nil
}

// GradientNorm returns sqrt(Σ|g_i|²).
func GradientNorm(grad []r2.Point) float64 {
	var sum float64
	for _, g := range grad {
		sum += g.Dot(g)
	}
	return math.Sqrt(sum)
}

// CheckGradient reports whether a descent loop should stop at this gradient.
func CheckGradient(grad []r2.Point, tol float64) Status {
	norm := GradientNorm(grad)
	switch {
	case math.IsNaN(norm) || math.IsInf(norm, 0):
		return StatusFailed
	case norm < tol:
		return StatusConverged
	}
	return StatusContinue
}

// Progress is reported once per evaluated iteration.
type Progress struct {
	Iteration  int
	Total      int
	Energy     float64
	Components Components
}

type ProgressFunc func(Progress)

// Result is the outcome of Optimize. Points and Regions always hold the last configuration
// that was tessellated successfully.
type Result struct {
	Points  []r2.Point
	Regions []Region
	// Targets are the target areas resolved from the initial layout.
	Targets []float64
	// History holds the energy of every evaluated configuration, the final one included.
	History    []float64
	Energy     float64
	Components Components
	Iterations int
	Converged  bool
	StopReason StopReason
}

// Optimize runs gradient descent from initial for Options.Iterations steps or until the
// gradient norm drops below Options.GradientTolerance.
//
// Target areas are resolved once from initial and held fixed. When a step fails to
// tessellate, Optimize stops and returns the previous configuration. Cancellation of ctx is
// checked between iterations; the partial Result is returned together with ctx.Err().
func Optimize(ctx context.Context, initial []r2.Point, params *EnergyParams, setters ...Option) (*Result, error) {
	opts, err := applyOptions(setters)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, errors.New("mosaic: nil energy params")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	fixed := *params
	if opts.LearningRate > 0 {
		fixed.LearningRate = opts.LearningRate
	}
	targets, err := params.ResolveTargets(initial)
	if err != nil {
		return nil, err
	}
	fixed.Targets = targets
	fixed.TargetArea = nil
	fixed.Weights = nil

	d := fixed.Domain()
	points := make([]r2.Point, len(initial))
	for i, p := range initial {
		if !torus.IsFinite(p) {
			return nil, fmt.Errorf("%w: index %d is %v", ErrInvalidPoint, i, p)
		}
		points[i] = d.Wrap(p)
	}
	t, err := newTessellation(points, d, opts)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	res := &Result{
		Points:     points,
		Regions:    t.Regions,
		Targets:    targets,
		StopReason: StopMaxIterations,
	}
	record := func(e Energy) {
		res.History = append(res.History, e.Total)
		res.Energy = e.Total
		res.Components = e.Components
		if opts.Progress != nil {
			opts.Progress(Progress{
				Iteration:  res.Iterations,
				Total:      opts.Iterations,
				Energy:     e.Total,
				Components: e.Components,
			})
		}
	}

	for res.Iterations < opts.Iterations {
		if err := ctx.Err(); err != nil {
			res.StopReason = StopCanceled
			logger.Info("optimization canceled", "iteration", res.Iterations)
			return res, err
		}

		e := CalculateEnergy(res.Regions, res.Points, &fixed)
		record(e)
		logger.Debug("iteration", "n", res.Iterations, "energy", e.Total,
			"area", e.Components.Area, "centroid", e.Components.Centroid,
			"angle", e.Components.Angle, "minArea", e.Components.MinArea)
		if !e.Finite() {
			res.StopReason = StopNonFiniteEnergy
			logger.Warn("energy is not finite, stopping", "iteration", res.Iterations)
			return res, nil
		}

		grad := gradient(res.Points, &fixed, opts)
		switch CheckGradient(grad, opts.GradientTolerance) {
		case StatusFailed:
			res.StopReason = StopNonFiniteGradient
			logger.Warn("gradient is not finite, stopping", "iteration", res.Iterations)
			return res, nil
		case StatusConverged:
			res.Converged = true
			res.StopReason = StopConverged
			logger.Info("converged", "iteration", res.Iterations, "energy", e.Total)
			return res, nil
		}

		next, err := Step(res.Points, grad, &fixed)
		if err != nil {
			return res, err
		}
		nt, err := newTessellation(next, d, opts)
		if err != nil {
			res.StopReason = StopUnevaluable
			logger.Warn("step could not be tessellated, keeping previous points",
				"iteration", res.Iterations, "err", err)
			return res, nil
		}
		res.Points = next
		res.Regions = nt.Regions
		res.Iterations++
	}

	record(CalculateEnergy(res.Regions, res.Points, &fixed))
	logger.Info("iteration budget exhausted", "iterations", res.Iterations, "energy", res.Energy)
	return res, nil
}
