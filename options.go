// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"errors"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
)

const (
	defaultEps               = 1e-12
	defaultDelta             = 1e-6
	defaultIterations        = 80
	defaultGradientTolerance = 1e-9
)

// Options configures tessellation, gradient and optimizer calls.
// The zero value is not usable; start from defaultOptions.
type Options struct {
	// Eps is the tolerance handed to the Delaunay hull.
	Eps float64
	// Logger receives warnings about dropped regions and optimizer progress.
	Logger *log.Logger
	// Delta is the forward-difference step of CalculateGradient.
	Delta float64
	// Workers bounds the number of concurrent perturbation evaluations.
	Workers int
	// Iterations is the iteration budget of Optimize.
	Iterations int
	// LearningRate overrides EnergyParams.LearningRate in Optimize when positive.
	LearningRate float64
	// Progress is called by Optimize once per evaluated iteration.
	Progress ProgressFunc
	// GradientTolerance is the gradient norm below which Optimize reports convergence.
	GradientTolerance float64
}

type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		Eps:               defaultEps,
		Logger:            log.Default(),
		Delta:             defaultDelta,
		Workers:           runtime.GOMAXPROCS(0),
		Iterations:        defaultIterations,
		GradientTolerance: defaultGradientTolerance,
	}
}

func applyOptions(setters []Option) (Options, error) {
	opts := defaultOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func WithEps(eps float64) Option {
	return func(o *Options) error {
		if !positiveFinite(eps) {
			return errors.New("mosaic: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return errors.New("mosaic: logger must not be nil")
		}
		o.Logger = logger
		return nil
	}
}

func WithDelta(delta float64) Option {
	return func(o *Options) error {
		if !positiveFinite(delta) {
			return errors.New("mosaic: delta must be positive")
		}
		o.Delta = delta
		return nil
	}
}

func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return errors.New("mosaic: workers must be at least 1")
		}
		o.Workers = n
		return nil
	}
}

func WithIterations(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return errors.New("mosaic: iterations must be non-negative")
		}
		o.Iterations = n
		return nil
	}
}

func WithLearningRate(lr float64) Option {
	return func(o *Options) error {
		if !positiveFinite(lr) {
			return errors.New("mosaic: learning rate must be positive")
		}
		o.LearningRate = lr
		return nil
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *Options) error {
		o.Progress = fn
		return nil
	}
}

func WithGradientTolerance(tol float64) Option {
	return func(o *Options) error {
		if !(tol >= 0) || math.IsInf(tol, 0) {
			return errors.New("mosaic: gradient tolerance must be non-negative")
		}
		o.GradientTolerance = tol
		return nil
	}
}
