package domain

import (
	"errors"
	"math"
	"testing"
)

func TestSplineRecoversLinearFunction(t *testing.T) {
	reg := &SmoothingSplineRegressor{Knots: 6, Penalty: 1e-4}
	inputs := make([][]float64, 30)
	outputs := make([]float64, 30)
	for i := range inputs {
		x := float64(i) / 3
		inputs[i] = []float64{x}
		outputs[i] = 1.5 - 0.4*x
	}

	surr, err := reg.Fit(inputs, outputs, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	// 线性基不受岭罚约束，线性信号应几乎精确还原
	for _, x := range []float64{0.5, 3.3, 8.1} {
		want := 1.5 - 0.4*x
		if got := surr.Mean([]float64{x}); math.Abs(got-want) > 1e-3 {
			t.Errorf("Mean(%v) = %v, want ~%v", x, got, want)
		}
	}
}

func TestSplineApproximatesSmoothCurve(t *testing.T) {
	reg := &SmoothingSplineRegressor{Knots: 10, Penalty: 1e-6}
	inputs := make([][]float64, 60)
	outputs := make([]float64, 60)
	for i := range inputs {
		x := float64(i) / 10
		inputs[i] = []float64{x}
		outputs[i] = math.Sin(x)
	}

	surr, err := reg.Fit(inputs, outputs, nil)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, x := range []float64{1.1, 2.7, 4.4} {
		if got, want := surr.Mean([]float64{x}), math.Sin(x); math.Abs(got-want) > 5e-2 {
			t.Errorf("Mean(%v) = %v, want ~%v", x, got, want)
		}
	}
	if _, variance := surr.Predict(inputs[:3]); variance != nil {
		t.Error("spline surrogate should not report predictive variance")
	}
}

func TestSplineRejectsMultivariateInputs(t *testing.T) {
	reg := &SmoothingSplineRegressor{Knots: 6}
	inputs := [][]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 7}}
	outputs := []float64{1, 2, 3, 4, 5, 6}
	if _, err := reg.Fit(inputs, outputs, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestSplineRejectsTooFewPoints(t *testing.T) {
	reg := &SmoothingSplineRegressor{Knots: 8}
	inputs := [][]float64{{1}, {2}, {3}}
	outputs := []float64{1, 2, 3}
	if _, err := reg.Fit(inputs, outputs, nil); !errors.Is(err, ErrUnderdeterminedFit) {
		t.Fatalf("err = %v, want ErrUnderdeterminedFit", err)
	}
}

func TestQuantileKnotsDeduplicates(t *testing.T) {
	xs := []float64{1, 1, 1, 1, 2, 2, 3, 3, 3, 4}
	knots := quantileKnots(xs, 8)
	for i := 1; i < len(knots); i++ {
		if knots[i] <= knots[i-1] {
			t.Fatalf("knots not strictly increasing: %v", knots)
		}
	}
}
