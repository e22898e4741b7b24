// Package domain 包含百慕大期权回归蒙特卡洛（RMC）定价引擎的领域模型：
// 状态过程模拟、收益计算、回归代理模型、仿真设计生成、逆向归纳与前向策略评估。
package domain

import "fmt"

// PayoffType 期权收益类型
type PayoffType string

const (
	PayoffPut       PayoffType = "PUT"
	PayoffCall      PayoffType = "CALL"
	PayoffBasketPut PayoffType = "BASKET_PUT"
	PayoffMaxCall   PayoffType = "MAX_CALL"
)

// RegressMethod 回归代理模型方法
type RegressMethod string

const (
	RegressPolynomial RegressMethod = "POLYNOMIAL"
	RegressSpline     RegressMethod = "SPLINE"
	RegressGPFixed    RegressMethod = "GP_FIXED"
	RegressGPMLE      RegressMethod = "GP_MLE"
	RegressHetGP      RegressMethod = "HET_GP"
)

// DesignMethod 仿真设计生成方法
type DesignMethod string

const (
	DesignFixedGrid  DesignMethod = "FIXED_GRID"
	DesignQMC        DesignMethod = "QMC"
	DesignPaths      DesignMethod = "PATHS"
	DesignSequential DesignMethod = "SEQUENTIAL"
	DesignAdaptive   DesignMethod = "ADAPTIVE_BATCH"
)

// KernelFamily 高斯过程核函数族
type KernelFamily string

const (
	KernelSquaredExp KernelFamily = "SQUARED_EXP"
	KernelMatern52   KernelFamily = "MATERN_52"
)

// TrendForm 高斯过程先验均值（趋势）形式
type TrendForm string

const (
	TrendConstant TrendForm = "CONSTANT"
	TrendLinear   TrendForm = "LINEAR"
)

// RegressionConfig 回归模块调优参数
type RegressionConfig struct {
	Method RegressMethod

	// 多项式基（POLYNOMIAL）
	Degree int

	// 平滑样条（SPLINE，仅一维）
	Knots         int
	SplinePenalty float64

	// 高斯过程（GP_FIXED / GP_MLE / HET_GP）
	Kernel       KernelFamily
	Trend        TrendForm
	Lengthscales []float64
	SignalVar    float64
	Nugget       float64

	// MLE 超参数箱式约束（对数尺度外按原值给出）
	LengthscaleBounds [2]float64
	SignalVarBounds   [2]float64
	NuggetBounds      [2]float64
	MaxIter           int
}

// DesignConfig 仿真设计参数
type DesignConfig struct {
	Method DesignMethod

	// FIXED_GRID：用户指定的输入点
	GridPoints [][]float64

	// 目标唯一设计点数量
	Size int
	// 每个设计点的重复仿真次数
	Replications int

	// SEQUENTIAL / ADAPTIVE_BATCH
	InitSize      int
	CandidatePool int
	UpdateFreq    int

	// ADAPTIVE_BATCH：仿真总预算与单轮追加重复数
	Budget    int
	BatchSize int

	// QMC 映射区域（价内约束在生成时另行施加）
	LowerBound []float64
	UpperBound []float64

	// PATHS：前向训练路径条数
	TrainPaths int
}

// ModelConfig 一次实验的全部模型配置，构造后只读。
type ModelConfig struct {
	// 状态过程维度
	Dim int
	// 各资产初始价格
	Spot []float64
	// 行权价
	Strike float64
	// 无风险利率（年化）
	Rate float64
	// 红利率（年化）
	Dividend float64
	// 各资产年化波动率
	Volatility []float64
	// 两两相关系数（0 表示独立）
	Correlation float64

	Payoff PayoffType

	// 离散化步长（年）与行权机会数 K
	Dt      float64
	Horizon int
	// 逆向归纳中的前瞻步数 w（0 视为 1）
	Lookahead int

	Regression RegressionConfig
	Design     DesignConfig

	// 训练与测试路径必须使用不同的随机流
	TrainSeed uint64
	TestSeed  uint64
	// 测试路径条数
	TestPaths int

	// 单步内并行 worker 数（0 视为 1）
	Workers int
}

// Validate 校验配置的维度一致性与取值范围，非法时返回 ErrInvalidConfig。
func (c *ModelConfig) Validate() error {
	if c.Dim <= 0 {
		return fmt.Errorf("%w: dim must be positive, got %d", ErrInvalidConfig, c.Dim)
	}
	if len(c.Spot) != c.Dim {
		return fmt.Errorf("%w: spot length %d != dim %d", ErrInvalidConfig, len(c.Spot), c.Dim)
	}
	if len(c.Volatility) != c.Dim {
		return fmt.Errorf("%w: volatility length %d != dim %d", ErrInvalidConfig, len(c.Volatility), c.Dim)
	}
	for i, v := range c.Volatility {
		if v <= 0 {
			return fmt.Errorf("%w: volatility[%d] must be positive", ErrInvalidConfig, i)
		}
	}
	if c.Correlation < -1 || c.Correlation > 1 {
		return fmt.Errorf("%w: correlation %v outside [-1,1]", ErrInvalidConfig, c.Correlation)
	}
	if c.Strike <= 0 {
		return fmt.Errorf("%w: strike must be positive", ErrInvalidConfig)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive", ErrInvalidConfig)
	}
	if c.Horizon < 2 {
		return fmt.Errorf("%w: horizon must be at least 2, got %d", ErrInvalidConfig, c.Horizon)
	}
	if c.Lookahead < 0 {
		return fmt.Errorf("%w: lookahead must be non-negative", ErrInvalidConfig)
	}
	switch c.Payoff {
	case PayoffPut, PayoffCall:
		if c.Dim != 1 {
			return fmt.Errorf("%w: payoff %s requires dim 1", ErrInvalidConfig, c.Payoff)
		}
	case PayoffBasketPut, PayoffMaxCall:
	default:
		return fmt.Errorf("%w: unknown payoff type %q", ErrInvalidConfig, c.Payoff)
	}
	switch c.Regression.Method {
	case RegressPolynomial:
		if c.Regression.Degree <= 0 {
			return fmt.Errorf("%w: polynomial degree must be positive", ErrInvalidConfig)
		}
	case RegressSpline:
		if c.Dim != 1 {
			return fmt.Errorf("%w: spline regression requires dim 1", ErrInvalidConfig)
		}
		if c.Regression.Knots < 4 {
			return fmt.Errorf("%w: spline needs at least 4 knots, got %d", ErrInvalidConfig, c.Regression.Knots)
		}
	case RegressGPFixed, RegressGPMLE, RegressHetGP:
		if err := c.validateGP(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown regression method %q", ErrInvalidConfig, c.Regression.Method)
	}
	if err := c.validateDesign(); err != nil {
		return err
	}
	if c.TrainSeed == c.TestSeed {
		return fmt.Errorf("%w: train and test seeds must differ", ErrInvalidConfig)
	}
	if c.TestPaths <= 0 {
		return fmt.Errorf("%w: test paths must be positive", ErrInvalidConfig)
	}
	return nil
}

func (c *ModelConfig) validateGP() error {
	r := c.Regression
	switch r.Kernel {
	case KernelSquaredExp, KernelMatern52:
	default:
		return fmt.Errorf("%w: unknown kernel family %q", ErrInvalidConfig, r.Kernel)
	}
	switch r.Trend {
	case TrendConstant, TrendLinear:
	default:
		return fmt.Errorf("%w: unknown trend form %q", ErrInvalidConfig, r.Trend)
	}
	if len(r.Lengthscales) != c.Dim {
		return fmt.Errorf("%w: lengthscales length %d != dim %d", ErrInvalidConfig, len(r.Lengthscales), c.Dim)
	}
	for i, l := range r.Lengthscales {
		if l <= 0 {
			return fmt.Errorf("%w: lengthscales[%d] must be positive", ErrInvalidConfig, i)
		}
	}
	if r.SignalVar <= 0 {
		return fmt.Errorf("%w: signal variance must be positive", ErrInvalidConfig)
	}
	if r.Nugget < 0 {
		return fmt.Errorf("%w: nugget must be non-negative", ErrInvalidConfig)
	}
	return nil
}

func (c *ModelConfig) validateDesign() error {
	d := c.Design
	switch d.Method {
	case DesignFixedGrid:
		if len(d.GridPoints) == 0 {
			return fmt.Errorf("%w: fixed grid design requires grid points", ErrInvalidConfig)
		}
		for i, p := range d.GridPoints {
			if len(p) != c.Dim {
				return fmt.Errorf("%w: grid point %d has dim %d, want %d", ErrInvalidConfig, i, len(p), c.Dim)
			}
		}
		if d.Replications < 1 {
			return fmt.Errorf("%w: replications must be at least 1", ErrInvalidConfig)
		}
	case DesignQMC:
		if d.Size <= 0 {
			return fmt.Errorf("%w: qmc design size must be positive", ErrInvalidConfig)
		}
		if d.Replications < 1 {
			return fmt.Errorf("%w: replications must be at least 1", ErrInvalidConfig)
		}
		if err := c.validateBounds(); err != nil {
			return err
		}
	case DesignPaths:
		if d.TrainPaths <= 0 {
			return fmt.Errorf("%w: path design requires train paths", ErrInvalidConfig)
		}
	case DesignSequential:
		if d.InitSize <= 0 || d.Size <= d.InitSize {
			return fmt.Errorf("%w: sequential design needs 0 < init size < target size", ErrInvalidConfig)
		}
		if d.CandidatePool <= 0 {
			return fmt.Errorf("%w: sequential design requires a candidate pool", ErrInvalidConfig)
		}
		if d.Replications < 1 {
			return fmt.Errorf("%w: replications must be at least 1", ErrInvalidConfig)
		}
		if !c.Regression.Method.providesVariance() {
			return fmt.Errorf("%w: sequential design requires a GP regression method", ErrInvalidConfig)
		}
		if err := c.validateBounds(); err != nil {
			return err
		}
	case DesignAdaptive:
		if d.InitSize <= 0 || d.Size <= d.InitSize {
			return fmt.Errorf("%w: adaptive design needs 0 < init size < target size", ErrInvalidConfig)
		}
		if d.CandidatePool <= 0 {
			return fmt.Errorf("%w: adaptive design requires a candidate pool", ErrInvalidConfig)
		}
		if d.Replications < 1 || d.BatchSize < 1 {
			return fmt.Errorf("%w: replications and batch size must be at least 1", ErrInvalidConfig)
		}
		if d.Budget <= 0 {
			return fmt.Errorf("%w: adaptive design requires a simulation budget", ErrInvalidConfig)
		}
		if !c.Regression.Method.providesVariance() {
			return fmt.Errorf("%w: adaptive design requires a GP regression method", ErrInvalidConfig)
		}
		if err := c.validateBounds(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown design method %q", ErrInvalidConfig, d.Method)
	}
	return nil
}

func (c *ModelConfig) validateBounds() error {
	d := c.Design
	if len(d.LowerBound) != c.Dim || len(d.UpperBound) != c.Dim {
		return fmt.Errorf("%w: design bounds must have dim %d", ErrInvalidConfig, c.Dim)
	}
	for i := range d.LowerBound {
		if d.LowerBound[i] >= d.UpperBound[i] {
			return fmt.Errorf("%w: design bound %d is empty", ErrInvalidConfig, i)
		}
	}
	return nil
}

func (m RegressMethod) providesVariance() bool {
	switch m {
	case RegressGPFixed, RegressGPMLE, RegressHetGP:
		return true
	}
	return false
}

// EffectiveLookahead 返回步 k 处实际可用的前瞻步数。
func (c *ModelConfig) EffectiveLookahead(k int) int {
	w := c.Lookahead
	if w < 1 {
		w = 1
	}
	if k+w > c.Horizon {
		w = c.Horizon - k
	}
	return w
}

func (c *ModelConfig) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
