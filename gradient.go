// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"errors"

	"github.com/Caliban-17/mosaic-new/torus"
	"github.com/golang/geo/r2"
	"golang.org/x/sync/errgroup"
)

// CalculateGradient estimates dE/dp for every point by forward differences, regenerating the
// tessellation once per perturbed coordinate. The 2N evaluations run on up to
// Options.Workers goroutines and each writes only its own slot.
//
// When the unperturbed configuration cannot be evaluated the gradient is all zeros. A single
// failed perturbation zeroes only its component. An error is returned only for invalid
// options or params.
func CalculateGradient(points []r2.Point, params *EnergyParams, setters ...Option) ([]r2.Point, error) {
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
	return gradient(points, params, opts), nil
}

func gradient(points []r2.Point, params *EnergyParams, opts Options) []r2.Point {
	grad := make([]r2.Point, len(points))
	d := params.Domain()

	base, ok := evaluate(points, params, d, opts)
	if !ok {
		opts.Logger.Debug("baseline energy unavailable, returning zero gradient")
		return grad
	}

	// Slot k holds d/dx of point k/2 for even k and d/dy for odd k.
	slots := make([]float64, 2*len(points))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for k := range slots {
		g.Go(func() error {
			perturbed := make([]r2.Point, len(points))
			copy(perturbed, points)
			i := k / 2
			if k%2 == 0 {
				perturbed[i].X += opts.Delta
			} else {
				perturbed[i].Y += opts.Delta
			}
			e, ok := evaluate(perturbed, params, d, opts)
			if !ok {
				return nil
			}
			slots[k] = finiteOrZero((e - base) / opts.Delta)
			return nil
		})
	}
	_ = g.Wait()

	for i := range grad {
		grad[i] = r2.Point{X: slots[2*i], Y: slots[2*i+1]}
	}
	return grad
}

func evaluate(points []r2.Point, params *EnergyParams, d torus.Domain, opts Options) (float64, bool) {
	t, err := newTessellation(points, d, opts)
	if err != nil {
		return 0, false
	}
	e := CalculateEnergy(t.Regions, points, params)
	return e.Total, e.Finite()
}
