package domain

import (
	"fmt"
	"math"

	algomath "github.com/wyfcoding/pkg/algos/math"
)

// PolynomialRegressor 线性基（多项式）回归：各坐标的 1..Degree 次单项式
// 加二阶交叉项，正规方程用 Cholesky 求解。不提供预测方差。
type PolynomialRegressor struct {
	Dim    int
	Degree int
}

// basisSize 基函数个数：常数 + d*Degree 个单项式 + d(d-1)/2 个交叉项。
func (p *PolynomialRegressor) basisSize() int {
	m := 1 + p.Dim*p.Degree
	if p.Dim > 1 {
		m += p.Dim * (p.Dim - 1) / 2
	}
	return m
}

func (p *PolynomialRegressor) basis(x []float64) []float64 {
	b := make([]float64, 0, p.basisSize())
	b = append(b, 1)
	for i := 0; i < p.Dim; i++ {
		v := 1.0
		for d := 1; d <= p.Degree; d++ {
			v *= x[i]
			b = append(b, v)
		}
	}
	for i := 0; i < p.Dim; i++ {
		for j := i + 1; j < p.Dim; j++ {
			b = append(b, x[i]*x[j])
		}
	}
	return b
}

// Fit 加权最小二乘拟合；noiseVar 给定时按 1/σ² 加权。
func (p *PolynomialRegressor) Fit(inputs [][]float64, outputs []float64, noiseVar []float64) (Surrogate, error) {
	n := len(inputs)
	if n != len(outputs) {
		return nil, fmt.Errorf("%w: %d inputs vs %d outputs", ErrInvalidConfig, n, len(outputs))
	}
	m := p.basisSize()
	if n < m {
		return nil, fmt.Errorf("%w: polynomial fit needs at least %d points, got %d", ErrUnderdeterminedFit, m, n)
	}

	// 设计矩阵（按噪声标准差缩放行实现加权）
	a := algomath.NewMatrix(n, m)
	y := make([]float64, n)
	for i, x := range inputs {
		w := 1.0
		if noiseVar != nil && noiseVar[i] > 0 {
			w = 1 / math.Sqrt(noiseVar[i])
		}
		for j, v := range p.basis(x) {
			a.Set(i, j, w*v)
		}
		y[i] = w * outputs[i]
	}

	at := a.Transpose()
	ata, err := at.Multiply(a)
	if err != nil {
		return nil, fmt.Errorf("%w: normal equations: %v", ErrFitFailure, err)
	}
	aty, err := at.MultiplyVector(y)
	if err != nil {
		return nil, fmt.Errorf("%w: normal equations: %v", ErrFitFailure, err)
	}
	coef, err := ata.SolveCholesky(aty)
	if err != nil {
		return nil, fmt.Errorf("%w: cholesky solve: %v", ErrFitFailure, err)
	}
	return &polySurrogate{reg: p, coef: coef}, nil
}

type polySurrogate struct {
	reg  *PolynomialRegressor
	coef []float64
}

func (s *polySurrogate) Mean(x []float64) float64 {
	var v float64
	for j, b := range s.reg.basis(x) {
		v += s.coef[j] * b
	}
	return v
}

// Predict 点预测；线性基模型不提供方差。
func (s *polySurrogate) Predict(xs [][]float64) ([]float64, []float64) {
	mean := make([]float64, len(xs))
	for i, x := range xs {
		mean[i] = s.Mean(x)
	}
	return mean, nil
}
