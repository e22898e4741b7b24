package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// gpHyper 高斯过程超参数（原值尺度）。
type gpHyper struct {
	Lengthscales []float64
	SignalVar    float64
	Nugget       float64
}

// GPRegressor 高斯过程回归。estimate 为真时通过极大似然估计超参数，
// hetero 为真时使用调用方提供的各点噪声方差（重复设计的预均值方差）。
type GPRegressor struct {
	dim      int
	cfg      RegressionConfig
	estimate bool
	hetero   bool

	// 序贯设计的周期性重优化：非空时跳过 MLE，直接用给定超参数拟合
	override *gpHyper
}

func newGPRegressor(cfg *ModelConfig, estimate, hetero bool) (*GPRegressor, error) {
	if len(cfg.Regression.Lengthscales) != cfg.Dim {
		return nil, fmt.Errorf("%w: lengthscales length %d != dim %d", ErrInvalidConfig, len(cfg.Regression.Lengthscales), cfg.Dim)
	}
	return &GPRegressor{dim: cfg.Dim, cfg: cfg.Regression, estimate: estimate, hetero: hetero}, nil
}

func (g *GPRegressor) trendSize() int {
	if g.cfg.Trend == TrendLinear {
		return g.dim + 1
	}
	return 1
}

// Fit 拟合高斯过程代理模型。
func (g *GPRegressor) Fit(inputs [][]float64, outputs []float64, noiseVar []float64) (Surrogate, error) {
	n := len(inputs)
	if n != len(outputs) {
		return nil, fmt.Errorf("%w: %d inputs vs %d outputs", ErrInvalidConfig, n, len(outputs))
	}
	if noiseVar != nil && len(noiseVar) != n {
		return nil, fmt.Errorf("%w: noise variance length %d != %d", ErrInvalidConfig, len(noiseVar), n)
	}
	if min := g.trendSize() + 2; n < min {
		return nil, fmt.Errorf("%w: gp fit needs at least %d points, got %d", ErrUnderdeterminedFit, min, n)
	}
	if !g.hetero {
		noiseVar = nil
	}

	hyper := gpHyper{
		Lengthscales: append([]float64(nil), g.cfg.Lengthscales...),
		SignalVar:    g.cfg.SignalVar,
		Nugget:       g.cfg.Nugget,
	}
	switch {
	case g.override != nil:
		hyper = *g.override
	case g.estimate:
		est, err := g.maximizeLikelihood(inputs, outputs, noiseVar, hyper)
		if err != nil {
			return nil, err
		}
		hyper = est
	}
	return g.fitWith(inputs, outputs, noiseVar, hyper)
}

func (g *GPRegressor) fitWith(inputs [][]float64, outputs []float64, noiseVar []float64, hyper gpHyper) (*gpSurrogate, error) {
	kern, err := newKernel(g.cfg.Kernel, hyper.Lengthscales, hyper.SignalVar)
	if err != nil {
		return nil, err
	}
	n := len(inputs)
	cov := buildCovariance(kern, inputs, hyper.Nugget, noiseVar)

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return nil, fmt.Errorf("%w: covariance matrix is not positive definite", ErrFitFailure)
	}

	m := g.trendSize()
	trendF := trendBasis(g.cfg.Trend, inputs)
	y := mat.NewVecDense(n, append([]float64(nil), outputs...))

	// GLS 趋势系数 β = (FᵀK⁻¹F)⁻¹ FᵀK⁻¹y
	kinvF := mat.NewDense(n, m, nil)
	var col mat.VecDense
	for j := 0; j < m; j++ {
		if err := chol.SolveVecTo(&col, trendF.ColView(j)); err != nil {
			return nil, fmt.Errorf("%w: trend solve: %v", ErrFitFailure, err)
		}
		for i := 0; i < n; i++ {
			kinvF.Set(i, j, col.AtVec(i))
		}
	}
	var ftKinvF mat.Dense
	ftKinvF.Mul(trendF.T(), kinvF)
	var ftKinvY mat.VecDense
	ftKinvY.MulVec(kinvF.T(), y)
	var beta mat.VecDense
	if err := beta.SolveVec(&ftKinvF, &ftKinvY); err != nil {
		return nil, fmt.Errorf("%w: trend coefficients: %v", ErrFitFailure, err)
	}

	// α = K⁻¹(y − Fβ)
	var trendFit mat.VecDense
	trendFit.MulVec(trendF, &beta)
	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, &trendFit)
	var alpha mat.VecDense
	if err := chol.SolveVecTo(&alpha, resid); err != nil {
		return nil, fmt.Errorf("%w: weight solve: %v", ErrFitFailure, err)
	}

	s := &gpSurrogate{
		x:     copyPoints(inputs),
		alpha: append([]float64(nil), alpha.RawVector().Data...),
		beta:  append([]float64(nil), beta.RawVector().Data...),
		trend: g.cfg.Trend,
		kern:  kern,
		hyper: hyper,
		chol:  &chol,
	}
	return s, nil
}

// maximizeLikelihood 在箱式约束下用 Nelder–Mead 最大化（对数）似然。
// 优化变量是超参数的对数，越界部分以二次罚项拉回。
func (g *GPRegressor) maximizeLikelihood(inputs [][]float64, outputs []float64, noiseVar []float64, init gpHyper) (gpHyper, error) {
	d := g.dim
	x0 := make([]float64, d+2)
	for i, l := range init.Lengthscales {
		x0[i] = math.Log(l)
	}
	x0[d] = math.Log(init.SignalVar)
	nug := init.Nugget
	if nug <= 0 {
		nug = 1e-6
	}
	x0[d+1] = math.Log(nug)

	lb, ub := g.logBounds()
	objective := func(params []float64) float64 {
		penalty := 0.0
		for i, p := range params {
			if p < lb[i] {
				penalty += 1e6 * (lb[i] - p) * (lb[i] - p)
			}
			if p > ub[i] {
				penalty += 1e6 * (p - ub[i]) * (p - ub[i])
			}
		}
		hyper := g.decode(params)
		nll, ok := negLogLikelihood(g.cfg.Kernel, g.cfg.Trend, inputs, outputs, noiseVar, hyper)
		if !ok {
			return math.Inf(1)
		}
		return nll + penalty
	}

	maxIter := g.cfg.MaxIter
	if maxIter <= 0 {
		maxIter = 200
	}
	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, x0, &optimize.Settings{MajorIterations: maxIter}, &optimize.NelderMead{})
	if err != nil && result == nil {
		return gpHyper{}, fmt.Errorf("%w: hyperparameter optimization: %v", ErrFitFailure, err)
	}
	if result == nil || math.IsInf(result.F, 1) || math.IsNaN(result.F) {
		return gpHyper{}, fmt.Errorf("%w: hyperparameter optimization did not converge", ErrFitFailure)
	}
	return g.decode(clamp(result.X, lb, ub)), nil
}

func (g *GPRegressor) decode(params []float64) gpHyper {
	d := g.dim
	h := gpHyper{Lengthscales: make([]float64, d)}
	for i := 0; i < d; i++ {
		h.Lengthscales[i] = math.Exp(params[i])
	}
	h.SignalVar = math.Exp(params[d])
	h.Nugget = math.Exp(params[d+1])
	return h
}

func (g *GPRegressor) logBounds() (lb, ub []float64) {
	d := g.dim
	lb = make([]float64, d+2)
	ub = make([]float64, d+2)
	lsb := orDefault(g.cfg.LengthscaleBounds, 1e-2, 1e4)
	svb := orDefault(g.cfg.SignalVarBounds, 1e-6, 1e6)
	ngb := orDefault(g.cfg.NuggetBounds, 1e-8, 1e2)
	for i := 0; i < d; i++ {
		lb[i], ub[i] = math.Log(lsb[0]), math.Log(lsb[1])
	}
	lb[d], ub[d] = math.Log(svb[0]), math.Log(svb[1])
	lb[d+1], ub[d+1] = math.Log(ngb[0]), math.Log(ngb[1])
	return lb, ub
}

func orDefault(b [2]float64, lo, hi float64) [2]float64 {
	if b[0] > 0 && b[1] > b[0] {
		return b
	}
	return [2]float64{lo, hi}
}

func clamp(xs, lb, ub []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Min(math.Max(x, lb[i]), ub[i])
	}
	return out
}

// negLogLikelihood 给定超参数下的负对数似然（趋势系数按 GLS 剖面化）。
func negLogLikelihood(family KernelFamily, trend TrendForm, inputs [][]float64, outputs, noiseVar []float64, hyper gpHyper) (float64, bool) {
	kern, err := newKernel(family, hyper.Lengthscales, hyper.SignalVar)
	if err != nil {
		return 0, false
	}
	n := len(inputs)
	cov := buildCovariance(kern, inputs, hyper.Nugget, noiseVar)
	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return 0, false
	}

	m := 1
	if trend == TrendLinear {
		m = len(inputs[0]) + 1
	}
	trendF := trendBasis(trend, inputs)
	y := mat.NewVecDense(n, append([]float64(nil), outputs...))

	kinvF := mat.NewDense(n, m, nil)
	var col mat.VecDense
	for j := 0; j < m; j++ {
		if err := chol.SolveVecTo(&col, trendF.ColView(j)); err != nil {
			return 0, false
		}
		for i := 0; i < n; i++ {
			kinvF.Set(i, j, col.AtVec(i))
		}
	}
	var ftKinvF mat.Dense
	ftKinvF.Mul(trendF.T(), kinvF)
	var ftKinvY mat.VecDense
	ftKinvY.MulVec(kinvF.T(), y)
	var beta mat.VecDense
	if err := beta.SolveVec(&ftKinvF, &ftKinvY); err != nil {
		return 0, false
	}
	var trendFit mat.VecDense
	trendFit.MulVec(trendF, &beta)
	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, &trendFit)
	var kinvResid mat.VecDense
	if err := chol.SolveVecTo(&kinvResid, resid); err != nil {
		return 0, false
	}
	quad := mat.Dot(resid, &kinvResid)
	nll := 0.5*quad + 0.5*chol.LogDet() + 0.5*float64(n)*math.Log(2*math.Pi)
	if math.IsNaN(nll) {
		return 0, false
	}
	return nll, true
}

func buildCovariance(kern *Kernel, inputs [][]float64, nugget float64, noiseVar []float64) *mat.SymDense {
	n := len(inputs)
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := kern.Value(inputs[i], inputs[j])
			if i == j {
				v += nugget
				if noiseVar != nil {
					v += noiseVar[i]
				}
			}
			cov.SetSym(i, j, v)
		}
	}
	return cov
}

func trendBasis(trend TrendForm, inputs [][]float64) *mat.Dense {
	n := len(inputs)
	if trend != TrendLinear {
		f := mat.NewDense(n, 1, nil)
		for i := 0; i < n; i++ {
			f.Set(i, 0, 1)
		}
		return f
	}
	d := len(inputs[0])
	f := mat.NewDense(n, d+1, nil)
	for i, x := range inputs {
		f.Set(i, 0, 1)
		for j, v := range x {
			f.Set(i, j+1, v)
		}
	}
	return f
}

func copyPoints(xs [][]float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = append([]float64(nil), x...)
	}
	return out
}

// gpSurrogate 已拟合的高斯过程代理模型，创建后只读，可被多个 goroutine 并发读取。
type gpSurrogate struct {
	x     [][]float64
	alpha []float64
	beta  []float64
	trend TrendForm
	kern  *Kernel
	hyper gpHyper
	chol  *mat.Cholesky
}

func (s *gpSurrogate) trendValue(x []float64) float64 {
	v := s.beta[0]
	if s.trend == TrendLinear {
		for i, xi := range x {
			v += s.beta[i+1] * xi
		}
	}
	return v
}

// Mean 后验均值。
func (s *gpSurrogate) Mean(x []float64) float64 {
	v := s.trendValue(x)
	for j, xj := range s.x {
		v += s.alpha[j] * s.kern.Value(x, xj)
	}
	return v
}

// Predict 后验均值与预测方差。
func (s *gpSurrogate) Predict(xs [][]float64) ([]float64, []float64) {
	n := len(s.x)
	mean := make([]float64, len(xs))
	variance := make([]float64, len(xs))
	kstar := mat.NewVecDense(n, nil)
	var kinvK mat.VecDense
	for i, x := range xs {
		for j, xj := range s.x {
			kstar.SetVec(j, s.kern.Value(x, xj))
		}
		mean[i] = s.trendValue(x)
		for j := 0; j < n; j++ {
			mean[i] += s.alpha[j] * kstar.AtVec(j)
		}
		variance[i] = s.kern.Value(x, x)
		if err := s.chol.SolveVecTo(&kinvK, kstar); err == nil {
			variance[i] -= mat.Dot(kstar, &kinvK)
		}
		if variance[i] < 0 {
			variance[i] = 0
		}
	}
	return mean, variance
}

// Gradient 沿单个坐标的后验导数均值与标准误。
// 值与导数的互协方差是核函数对测试坐标的偏导；导数的预测方差
// 再减去经训练互协方差解释的部分。趋势为线性时补回趋势自身的导数。
func (s *gpSurrogate) Gradient(xs [][]float64, coord int) ([]float64, []float64, error) {
	d := len(s.kern.Lengthscales)
	if coord < 0 || coord >= d {
		return nil, nil, fmt.Errorf("%w: gradient coordinate %d outside [0,%d)", ErrInvalidConfig, coord, d)
	}
	n := len(s.x)
	mean := make([]float64, len(xs))
	stderr := make([]float64, len(xs))
	cstar := mat.NewVecDense(n, nil)
	var kinvC mat.VecDense
	for i, x := range xs {
		for j, xj := range s.x {
			cstar.SetVec(j, s.kern.PartialX(x, xj, coord))
		}
		m := 0.0
		if s.trend == TrendLinear {
			m = s.beta[coord+1]
		}
		for j := 0; j < n; j++ {
			m += s.alpha[j] * cstar.AtVec(j)
		}
		mean[i] = m
		v := s.kern.DerivVariance(coord)
		if err := s.chol.SolveVecTo(&kinvC, cstar); err == nil {
			v -= mat.Dot(cstar, &kinvC)
		}
		if v < 0 {
			v = 0
		}
		stderr[i] = math.Sqrt(v)
	}
	return mean, stderr, nil
}

// Hyper 返回拟合所用的超参数，序贯设计的周期性重优化会复用。
func (s *gpSurrogate) Hyper() gpHyper {
	return gpHyper{
		Lengthscales: append([]float64(nil), s.hyper.Lengthscales...),
		SignalVar:    s.hyper.SignalVar,
		Nugget:       s.hyper.Nugget,
	}
}
