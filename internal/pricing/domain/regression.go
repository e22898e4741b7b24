package domain

import "fmt"

// Surrogate 绑定到某一时间步的已拟合回归代理模型，拟合后只读。
type Surrogate interface {
	// Mean 单点后验/点预测均值
	Mean(x []float64) float64
	// Predict 批量预测，GP 变体返回预测方差，样条/多项式变体方差为 nil
	Predict(xs [][]float64) (mean []float64, variance []float64)
}

// GradientSurrogate 支持沿单个坐标方向的后验导数估计（仅可微核的 GP 变体）。
type GradientSurrogate interface {
	Surrogate
	Gradient(xs [][]float64, coord int) (mean []float64, stderr []float64, err error)
}

// Regressor 回归模块的多态接口：从（输入、含噪输出、可选噪声方差）拟合代理模型。
// noiseVar 为 nil 表示同方差；长度与 outputs 相同时表示各点噪声方差（重复设计预均值后的方差）。
type Regressor interface {
	Fit(inputs [][]float64, outputs []float64, noiseVar []float64) (Surrogate, error)
}

// NewRegressor 按配置解析一次回归方法，返回对应实现（接口分派，引擎内不再做字符串分支）。
func NewRegressor(cfg *ModelConfig) (Regressor, error) {
	r := cfg.Regression
	switch r.Method {
	case RegressPolynomial:
		return &PolynomialRegressor{Dim: cfg.Dim, Degree: r.Degree}, nil
	case RegressSpline:
		return &SmoothingSplineRegressor{Knots: r.Knots, Penalty: r.SplinePenalty}, nil
	case RegressGPFixed:
		return newGPRegressor(cfg, false, false)
	case RegressGPMLE:
		return newGPRegressor(cfg, true, false)
	case RegressHetGP:
		return newGPRegressor(cfg, true, true)
	default:
		return nil, fmt.Errorf("%w: unknown regression method %q", ErrInvalidConfig, r.Method)
	}
}
