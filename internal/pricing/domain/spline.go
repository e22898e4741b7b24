package domain

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SmoothingSplineRegressor 一维三次平滑样条：自然三次样条基（结点取输入分位数）
// 加岭罚，加权最小二乘求解。不提供预测方差。
type SmoothingSplineRegressor struct {
	Knots   int
	Penalty float64
}

// Fit 拟合平滑样条。输入必须是一维状态。
func (r *SmoothingSplineRegressor) Fit(inputs [][]float64, outputs []float64, noiseVar []float64) (Surrogate, error) {
	n := len(inputs)
	if n != len(outputs) {
		return nil, fmt.Errorf("%w: %d inputs vs %d outputs", ErrInvalidConfig, n, len(outputs))
	}
	if n == 0 || len(inputs[0]) != 1 {
		return nil, fmt.Errorf("%w: smoothing spline requires one-dimensional inputs", ErrInvalidConfig)
	}
	m := r.Knots
	if m < 4 {
		m = 4
	}
	if n < m {
		return nil, fmt.Errorf("%w: spline fit needs at least %d points, got %d", ErrUnderdeterminedFit, m, n)
	}

	xs := make([]float64, n)
	for i, x := range inputs {
		xs[i] = x[0]
	}
	knots := quantileKnots(xs, m)
	if len(knots) < 4 {
		return nil, fmt.Errorf("%w: degenerate design, fewer than 4 distinct knots", ErrUnderdeterminedFit)
	}

	basis := naturalSplineBasis{knots: knots}
	p := basis.size()
	lambda := r.Penalty
	if lambda <= 0 {
		lambda = 1e-6
	}

	// 正规方程 (BᵀWB + λD) c = BᵀWy，D 只惩罚非线性基
	btb := mat.NewSymDense(p, nil)
	bty := make([]float64, p)
	row := make([]float64, p)
	for i, x := range xs {
		basis.eval(x, row)
		w := 1.0
		if noiseVar != nil && noiseVar[i] > 0 {
			w = 1 / noiseVar[i]
		}
		for a := 0; a < p; a++ {
			bty[a] += w * row[a] * outputs[i]
			for b := a; b < p; b++ {
				btb.SetSym(a, b, btb.At(a, b)+w*row[a]*row[b])
			}
		}
	}
	for a := 2; a < p; a++ {
		btb.SetSym(a, a, btb.At(a, a)+lambda)
	}

	var chol mat.Cholesky
	if !chol.Factorize(btb) {
		return nil, fmt.Errorf("%w: spline normal equations are singular", ErrFitFailure)
	}
	var coef mat.VecDense
	if err := chol.SolveVecTo(&coef, mat.NewVecDense(p, bty)); err != nil {
		return nil, fmt.Errorf("%w: spline solve: %v", ErrFitFailure, err)
	}
	return &splineSurrogate{basis: basis, coef: append([]float64(nil), coef.RawVector().Data...)}, nil
}

// quantileKnots 取经验分位数作为结点并去重。
func quantileKnots(xs []float64, m int) []float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	knots := make([]float64, 0, m)
	for i := 0; i < m; i++ {
		q := float64(i) / float64(m-1)
		idx := int(q * float64(len(sorted)-1))
		v := sorted[idx]
		if len(knots) == 0 || v > knots[len(knots)-1] {
			knots = append(knots, v)
		}
	}
	return knots
}

// naturalSplineBasis 自然三次样条基（截断幂构造，边界外线性）。
type naturalSplineBasis struct {
	knots []float64
}

func (b naturalSplineBasis) size() int { return len(b.knots) }

// eval 在 x 处求全部基函数值，写入 out（长度 size）。
func (b naturalSplineBasis) eval(x float64, out []float64) {
	k := b.knots
	m := len(k)
	out[0] = 1
	out[1] = x
	dLast := truncCubicDiff(x, k[m-2], k[m-1])
	for i := 0; i < m-2; i++ {
		out[i+2] = truncCubicDiff(x, k[i], k[m-1]) - dLast
	}
}

// truncCubicDiff d_i(x) = [(x−t_i)_+³ − (x−t_m)_+³] / (t_m − t_i)
func truncCubicDiff(x, ti, tm float64) float64 {
	return (cubePlus(x-ti) - cubePlus(x-tm)) / (tm - ti)
}

func cubePlus(u float64) float64 {
	if u <= 0 {
		return 0
	}
	return u * u * u
}

type splineSurrogate struct {
	basis naturalSplineBasis
	coef  []float64
}

func (s *splineSurrogate) Mean(x []float64) float64 {
	row := make([]float64, s.basis.size())
	s.basis.eval(x[0], row)
	var v float64
	for j, b := range row {
		v += s.coef[j] * b
	}
	return v
}

func (s *splineSurrogate) Predict(xs [][]float64) ([]float64, []float64) {
	mean := make([]float64, len(xs))
	for i, x := range xs {
		mean[i] = s.Mean(x)
	}
	return mean, nil
}
