// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"math"
	"testing"
)

// Options

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		check   func(o Options) bool
		wantErr bool
	}{
		{"eps positive", WithEps(0.5), func(o Options) bool { return o.Eps == 0.5 }, false},
		{"eps zero", WithEps(0), nil, true},
		{"eps negative", WithEps(-1), nil, true},
		{"eps infinite", WithEps(math.Inf(1)), nil, true},
		{"logger", WithLogger(quietLogger()), func(o Options) bool { return o.Logger != nil }, false},
		{"logger nil", WithLogger(nil), nil, true},
		{"delta", WithDelta(1e-5), func(o Options) bool { return o.Delta == 1e-5 }, false},
		{"delta NaN", WithDelta(math.NaN()), nil, true},
		{"workers", WithWorkers(3), func(o Options) bool { return o.Workers == 3 }, false},
		{"workers zero", WithWorkers(0), nil, true},
		{"iterations zero", WithIterations(0), func(o Options) bool { return o.Iterations == 0 }, false},
		{"iterations negative", WithIterations(-1), nil, true},
		{"learning rate", WithLearningRate(0.1), func(o Options) bool { return o.LearningRate == 0.1 }, false},
		{"learning rate zero", WithLearningRate(0), nil, true},
		{"progress", WithProgress(func(Progress) {}), func(o Options) bool { return o.Progress != nil }, false},
		{"gradient tolerance", WithGradientTolerance(0), func(o Options) bool { return o.GradientTolerance == 0 }, false},
		{"gradient tolerance negative", WithGradientTolerance(-1), nil, true},
		{"gradient tolerance NaN", WithGradientTolerance(math.NaN()), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			err := tt.opt(&opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("option error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(opts) {
				t.Errorf("option not applied: %+v", opts)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := defaultOptions()
	if opts.Eps != defaultEps || opts.Delta != defaultDelta || opts.Iterations != defaultIterations {
		t.Errorf("defaultOptions() = %+v, want eps %v, delta %v, iterations %v",
			opts, defaultEps, defaultDelta, defaultIterations)
	}
	if opts.Workers < 1 {
		t.Errorf("defaultOptions().Workers = %v, want >= 1", opts.Workers)
	}
	if opts.Logger == nil {
		t.Errorf("defaultOptions().Logger = nil, want non-nil")
	}
}
