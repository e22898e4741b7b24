package domain

import (
	"math"
	"testing"
)

func TestKernelValueAtZeroDistance(t *testing.T) {
	for _, family := range []KernelFamily{KernelSquaredExp, KernelMatern52} {
		k, err := newKernel(family, []float64{2, 3}, 1.7)
		if err != nil {
			t.Fatalf("newKernel(%s): %v", family, err)
		}
		x := []float64{1.5, -0.5}
		if got := k.Value(x, x); math.Abs(got-1.7) > 1e-12 {
			t.Errorf("%s: k(x,x) = %v, want 1.7", family, got)
		}
	}
}

func TestKernelSymmetryAndDecay(t *testing.T) {
	for _, family := range []KernelFamily{KernelSquaredExp, KernelMatern52} {
		k, _ := newKernel(family, []float64{1}, 1)
		a, b := []float64{0}, []float64{0.7}
		if got, want := k.Value(a, b), k.Value(b, a); math.Abs(got-want) > 1e-14 {
			t.Errorf("%s: kernel not symmetric: %v vs %v", family, got, want)
		}
		near := k.Value([]float64{0}, []float64{0.5})
		far := k.Value([]float64{0}, []float64{2})
		if near <= far {
			t.Errorf("%s: correlation should decay with distance: near=%v far=%v", family, near, far)
		}
	}
}

func TestKernelPartialXMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	for _, family := range []KernelFamily{KernelSquaredExp, KernelMatern52} {
		k, _ := newKernel(family, []float64{1.3, 0.8}, 2.1)
		a := []float64{0.4, -0.2}
		b := []float64{1.1, 0.6}
		for coord := 0; coord < 2; coord++ {
			ap := append([]float64(nil), a...)
			am := append([]float64(nil), a...)
			ap[coord] += h
			am[coord] -= h
			fd := (k.Value(ap, b) - k.Value(am, b)) / (2 * h)
			got := k.PartialX(a, b, coord)
			if math.Abs(got-fd) > 1e-5 {
				t.Errorf("%s coord %d: PartialX = %v, finite diff = %v", family, coord, got, fd)
			}
		}
	}
}

func TestKernelDerivVariance(t *testing.T) {
	ells := []float64{0.9, 2.4}
	for _, family := range []KernelFamily{KernelSquaredExp, KernelMatern52} {
		k, _ := newKernel(family, ells, 1.5)
		for coord := range ells {
			v := k.DerivVariance(coord)
			if v <= 0 {
				t.Errorf("%s coord %d: DerivVariance = %v, want positive", family, coord, v)
			}
		}
		// 长度尺度越大，导数过程方差越小
		if k.DerivVariance(0) <= k.DerivVariance(1) {
			t.Errorf("%s: expected larger derivative variance for shorter lengthscale", family)
		}
	}
}
