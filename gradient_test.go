// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"math"
	"testing"

	"github.com/Caliban-17/mosaic-new/utils"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

func TestCalculateGradient_InvalidArguments(t *testing.T) {
	points := utils.GenerateRandomPoints(6, testWidth, testHeight, 0)
	params := DefaultEnergyParams(testWidth, testHeight)
	bad := params
	bad.Width = 0

	if _, err := CalculateGradient(points, nil); err == nil {
		t.Errorf("CalculateGradient(..., nil) error = nil, want non-nil")
	}
	if _, err := CalculateGradient(points, &bad); err == nil {
		t.Errorf("CalculateGradient(..., zero width) error = nil, want non-nil")
	}
	if _, err := CalculateGradient(points, &params, WithDelta(-1)); err == nil {
		t.Errorf("CalculateGradient(..., WithDelta(-1)) error = nil, want non-nil")
	}
}

func TestCalculateGradient_UnevaluableBaseline(t *testing.T) {
	params := DefaultEnergyParams(testWidth, testHeight)
	tests := []struct {
		name   string
		points []r2.Point
	}{
		{"too few points", []r2.Point{{X: 1, Y: 1}, {X: 5, Y: 5}}},
		{"non-finite point", []r2.Point{{X: 1, Y: 1}, {X: 5, Y: 5}, {X: math.NaN(), Y: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateGradient(tt.points, &params, WithLogger(quietLogger()))
			if err != nil {
				t.Fatalf("CalculateGradient(...) error = %v, want nil", err)
			}
			want := make([]r2.Point, len(tt.points))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("CalculateGradient(...) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculateGradient_Finite(t *testing.T) {
	points := utils.GenerateRandomPoints(12, testWidth, testHeight, 5)
	params := DefaultEnergyParams(testWidth, testHeight)
	params.LambdaCentroid = 1

	grad, err := CalculateGradient(points, &params, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("CalculateGradient(...) error = %v, want nil", err)
	}
	if len(grad) != len(points) {
		t.Fatalf("len(grad) = %v, want %v", len(grad), len(points))
	}
	for i, g := range grad {
		if math.IsNaN(g.X) || math.IsInf(g.X, 0) || math.IsNaN(g.Y) || math.IsInf(g.Y, 0) {
			t.Errorf("grad[%d] = %v, want finite", i, g)
		}
	}
	if GradientNorm(grad) == 0 {
		t.Errorf("GradientNorm(grad) = 0, want > 0 for a random layout")
	}
}

func TestCalculateGradient_WorkerCountIndependent(t *testing.T) {
	points := utils.GenerateRandomPoints(10, testWidth, testHeight, 9)
	params := DefaultEnergyParams(testWidth, testHeight)

	serial, err := CalculateGradient(points, &params, WithWorkers(1), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("CalculateGradient(..., WithWorkers(1)) error = %v, want nil", err)
	}
	parallel, err := CalculateGradient(points, &params, WithWorkers(8), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("CalculateGradient(..., WithWorkers(8)) error = %v, want nil", err)
	}
	if diff := cmp.Diff(serial, parallel); diff != "" {
		t.Errorf("gradient depends on worker count (-serial +parallel):\n%s", diff)
	}
}

func TestCalculateGradient_DescentMonotonicity(t *testing.T) {
	params := DefaultEnergyParams(testWidth, testHeight)
	for seed := range int64(3) {
		points := utils.GenerateRandomPoints(10, testWidth, testHeight, seed+20)
		regions, err := GenerateRegions(points, testWidth, testHeight, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("GenerateRegions(seed %d) error = %v, want nil", seed, err)
		}
		initial := CalculateEnergy(regions, points, &params)
		if !initial.Finite() {
			t.Skipf("seed %d: initial energy %v is not finite", seed, initial.Total)
		}

		grad, err := CalculateGradient(points, &params, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("CalculateGradient(seed %d) error = %v, want nil", seed, err)
		}
		norm := GradientNorm(grad)
		if norm < 1e-9 {
			t.Skipf("seed %d: degenerate gradient norm %v", seed, norm)
		}

		step := params
		step.LearningRate = 1e-4 / norm
		next, err := Step(points, grad, &step)
		if err != nil {
			t.Fatalf("Step(seed %d) error = %v, want nil", seed, err)
		}
		nextRegions, err := GenerateRegions(next, testWidth, testHeight, WithLogger(quietLogger()))
		if err != nil {
			t.Fatalf("GenerateRegions(next, seed %d) error = %v, want nil", seed, err)
		}
		got := CalculateEnergy(nextRegions, next, &params)
		limit := initial.Total + math.Max(1e-6, initial.Total*1e-5)
		if got.Total > limit {
			t.Errorf("seed %d: energy after step = %v, want <= %v", seed, got.Total, limit)
		}
	}
}

func BenchmarkCalculateGradient(b *testing.B) {
	points := utils.GenerateRandomPoints(30, testWidth, testHeight, 0)
	params := DefaultEnergyParams(testWidth, testHeight)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, err := CalculateGradient(points, &params, WithLogger(quietLogger())); err != nil {
			b.Fatalf("CalculateGradient(...) error = %v, want nil", err)
		}
	}
}
