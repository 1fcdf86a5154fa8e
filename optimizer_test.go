// Copyright (c) 2026 Caliban-17
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mosaic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/Caliban-17/mosaic-new/utils"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Step

func TestStep(t *testing.T) {
	params := DefaultEnergyParams(testWidth, testHeight)
	params.LearningRate = 0.5

	tests := []struct {
		name   string
		points []r2.Point
		grad   []r2.Point
		want   []r2.Point
	}{
		{
			"plain descent",
			[]r2.Point{{X: 5, Y: 4}},
			[]r2.Point{{X: 2, Y: -2}},
			[]r2.Point{{X: 4, Y: 5}},
		},
		{
			"wraps across edges",
			[]r2.Point{{X: 0.5, Y: 7.5}},
			[]r2.Point{{X: 2, Y: -2}},
			[]r2.Point{{X: 9.5, Y: 0.5}},
		},
		{
			"non-finite gradient ignored",
			[]r2.Point{{X: 3, Y: 3}, {X: 6, Y: 2}},
			[]r2.Point{{X: math.NaN(), Y: 2}, {X: math.Inf(1), Y: math.Inf(-1)}},
			[]r2.Point{{X: 3, Y: 2}, {X: 6, Y: 2}},
		},
		{
			"non-finite point wraps to origin",
			[]r2.Point{{X: math.NaN(), Y: 3}},
			[]r2.Point{{X: 0, Y: 0}},
			[]r2.Point{{X: 0, Y: 0}},
		},
		{"empty", []r2.Point{}, []r2.Point{}, []r2.Point{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Step(tt.points, tt.grad, &params)
			if err != nil {
				t.Fatalf("Step(...) error = %v, want nil", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("Step(...) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStep_Invalid(t *testing.T) {
	params := DefaultEnergyParams(testWidth, testHeight)
	zeroWidth := params
	zeroWidth.Width = 0
	nanRate := params
	nanRate.LearningRate = math.NaN()
	points := []r2.Point{{X: 1, Y: 1}}

	tests := []struct {
		name   string
		grad   []r2.Point
		params *EnergyParams
	}{
		{"nil params", points, nil},
		{"length mismatch", []r2.Point{{}, {}}, &params},
		{"zero width", points, &zeroWidth},
		{"NaN learning rate", points, &nanRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Step(points, tt.grad, tt.params); err == nil {
				t.Errorf("Step(...) error = nil, want non-nil")
			}
		})
	}
}

func TestGradientNorm(t *testing.T) {
	tests := []struct {
		name string
		grad []r2.Point
		want float64
	}{
		{"empty", nil, 0},
		{"single", []r2.Point{{X: 3, Y: 4}}, 5},
		{"several", []r2.Point{{X: 1, Y: 2}, {X: 2, Y: 4}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradientNorm(tt.grad); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("GradientNorm(%v) = %v, want %v", tt.grad, got, tt.want)
			}
		})
	}
}

func TestCheckGradient(t *testing.T) {
	tests := []struct {
		name string
		grad []r2.Point
		want Status
	}{
		{"zero", []r2.Point{{}, {}}, StatusConverged},
		{"tiny", []r2.Point{{X: 1e-12}}, StatusConverged},
		{"large", []r2.Point{{X: 1}}, StatusContinue},
		{"NaN", []r2.Point{{X: math.NaN()}}, StatusFailed},
		{"Inf", []r2.Point{{Y: math.Inf(-1)}}, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckGradient(tt.grad, 1e-9); got != tt.want {
				t.Errorf("CheckGradient(%v) = %v, want %v", tt.grad, got, tt.want)
			}
		})
	}
}

// Optimize

func TestOptimize_Budget(t *testing.T) {
	points := utils.GenerateJitteredGrid(9, testWidth, testHeight, 1)
	params := DefaultEnergyParams(testWidth, testHeight)

	var calls int
	res, err := Optimize(context.Background(), points, &params,
		WithIterations(3),
		WithLearningRate(0.005),
		WithLogger(quietLogger()),
		WithProgress(func(p Progress) {
			calls++
			if p.Total != 3 {
				t.Errorf("Progress.Total = %v, want 3", p.Total)
			}
		}),
	)
	if err != nil {
		t.Fatalf("Optimize(...) error = %v, want nil", err)
	}
	if len(res.Points) != len(points) || len(res.Regions) != len(points) {
		t.Fatalf("Optimize(...) returned %d points and %d regions, want %d", len(res.Points), len(res.Regions), len(points))
	}
	for i, p := range res.Points {
		if p.X < 0 || p.X >= testWidth || p.Y < 0 || p.Y >= testHeight {
			t.Errorf("res.Points[%d] = %v, outside the domain", i, p)
		}
	}
	if res.Iterations > 3 {
		t.Errorf("res.Iterations = %v, want <= 3", res.Iterations)
	}
	if res.StopReason == StopMaxIterations && len(res.History) != res.Iterations+1 {
		t.Errorf("len(res.History) = %v, want %v", len(res.History), res.Iterations+1)
	}
	if calls != len(res.History) {
		t.Errorf("progress called %d times, want %d", calls, len(res.History))
	}
	if res.Energy != res.History[len(res.History)-1] {
		t.Errorf("res.Energy = %v, want last history entry %v", res.Energy, res.History[len(res.History)-1])
	}
	if total := TotalArea(res.Regions); math.Abs(total-80) > 1e-3 {
		t.Errorf("TotalArea(res.Regions) = %v, want 80", total)
	}
}

func TestOptimize_Converged(t *testing.T) {
	points := []r2.Point{{X: 12, Y: 3}, {X: 5, Y: 4}, {X: 8, Y: -1}}
	params := DefaultEnergyParams(testWidth, testHeight)

	res, err := Optimize(context.Background(), points, &params,
		WithGradientTolerance(math.MaxFloat64),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("Optimize(...) error = %v, want nil", err)
	}
	if !res.Converged || res.StopReason != StopConverged || res.Iterations != 0 {
		t.Errorf("Optimize(...) = {Converged: %v, StopReason: %q, Iterations: %d}, want converged at 0",
			res.Converged, res.StopReason, res.Iterations)
	}
	want := []r2.Point{{X: 2, Y: 3}, {X: 5, Y: 4}, {X: 8, Y: 7}}
	if diff := cmp.Diff(want, res.Points); diff != "" {
		t.Errorf("res.Points mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimize_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	points := utils.GenerateRandomPoints(5, testWidth, testHeight, 0)
	params := DefaultEnergyParams(testWidth, testHeight)

	res, err := Optimize(ctx, points, &params, WithLogger(quietLogger()))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Optimize(...) error = %v, want %v", err, context.Canceled)
	}
	if res == nil || res.StopReason != StopCanceled {
		t.Fatalf("Optimize(...) = %+v, want StopCanceled", res)
	}
	if len(res.Regions) != len(points) {
		t.Errorf("len(res.Regions) = %v, want %v", len(res.Regions), len(points))
	}
}

func TestOptimize_FixedTargets(t *testing.T) {
	points := []r2.Point{{X: 1, Y: 1}, {X: 4, Y: 2}, {X: 8, Y: 6}, {X: 3, Y: 7}}
	params := DefaultEnergyParams(testWidth, testHeight)
	params.TargetArea = func(p r2.Point) float64 { return 10 + p.X }

	res, err := Optimize(context.Background(), points, &params,
		WithIterations(1),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("Optimize(...) error = %v, want nil", err)
	}
	want := []float64{11, 14, 18, 13}
	if diff := cmp.Diff(want, res.Targets); diff != "" {
		t.Errorf("res.Targets mismatch (-want +got):\n%s", diff)
	}
	if params.Targets != nil {
		t.Errorf("Optimize modified params.Targets = %v, want nil", params.Targets)
	}
}

func TestOptimize_InvalidInput(t *testing.T) {
	params := DefaultEnergyParams(testWidth, testHeight)
	tests := []struct {
		name    string
		points  []r2.Point
		setters []Option
		wantErr error
	}{
		{"too few points", []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, nil, ErrTooFewPoints},
		{"NaN point", []r2.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: math.NaN(), Y: 0}}, nil, ErrInvalidPoint},
		{"bad option", scenarioPoints, []Option{WithIterations(-1)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setters := append([]Option{WithLogger(quietLogger())}, tt.setters...)
			res, err := Optimize(context.Background(), tt.points, &params, setters...)
			if err == nil {
				t.Fatalf("Optimize(...) error = nil, want non-nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Optimize(...) error = %v, want %v", err, tt.wantErr)
			}
			if res != nil {
				t.Errorf("Optimize(...) result = %+v, want nil", res)
			}
		})
	}
	if _, err := Optimize(context.Background(), scenarioPoints, nil); err == nil {
		t.Errorf("Optimize(..., nil params) error = nil, want non-nil")
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusContinue, "continue"},
		{StatusConverged, "converged"},
		{StatusFailed, "failed"},
		{Status(7), "Status(7)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}
