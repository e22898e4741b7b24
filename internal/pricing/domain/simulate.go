package domain

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// GBMSimulator 几何布朗运动状态模拟器。
// 除消耗自身随机源的熵外无其它状态，Advance 对给定随机源是确定的。
type GBMSimulator struct {
	dim   int
	drift []float64
	vol   []float64
	rng   *rand.Rand
	// dim > 1 且相关系数非零时使用相关正态分布采样
	normal *distmv.Normal
	z      []float64
}

// NewGBMSimulator 构造 GBM 模拟器，随机源由调用方提供（按流分离训练/测试/worker）。
func NewGBMSimulator(cfg *ModelConfig, seed uint64) (*GBMSimulator, error) {
	if len(cfg.Volatility) != cfg.Dim {
		return nil, fmt.Errorf("%w: volatility length %d != dim %d", ErrInvalidConfig, len(cfg.Volatility), cfg.Dim)
	}
	drift := make([]float64, cfg.Dim)
	for i := range drift {
		drift[i] = cfg.Rate - cfg.Dividend
	}
	s := &GBMSimulator{
		dim:   cfg.Dim,
		drift: drift,
		vol:   append([]float64(nil), cfg.Volatility...),
		rng:   rand.New(rand.NewSource(seed)),
	}
	if cfg.Dim > 1 && cfg.Correlation != 0 {
		corr := mat.NewSymDense(cfg.Dim, nil)
		for i := 0; i < cfg.Dim; i++ {
			for j := 0; j < cfg.Dim; j++ {
				if i == j {
					corr.SetSym(i, j, 1)
				} else {
					corr.SetSym(i, j, cfg.Correlation)
				}
			}
		}
		normal, ok := distmv.NewNormal(make([]float64, cfg.Dim), corr, rand.NewSource(seed))
		if !ok {
			return nil, fmt.Errorf("%w: correlation matrix is not positive definite", ErrInvalidConfig)
		}
		s.normal = normal
		s.z = make([]float64, cfg.Dim)
	}
	return s, nil
}

// Step 将单个状态向前推进一个时间步。
func (s *GBMSimulator) Step(state []float64, dt float64) []float64 {
	next := make([]float64, s.dim)
	z := s.draw()
	for i := 0; i < s.dim; i++ {
		v := s.vol[i]
		next[i] = state[i] * math.Exp((s.drift[i]-0.5*v*v)*dt+v*math.Sqrt(dt)*z[i])
	}
	return next
}

// Advance 将一批状态向前推进一个时间步，返回新矩阵，不修改入参。
func (s *GBMSimulator) Advance(states [][]float64, dt float64) [][]float64 {
	out := make([][]float64, len(states))
	for i, st := range states {
		out[i] = s.Step(st, dt)
	}
	return out
}

func (s *GBMSimulator) draw() []float64 {
	if s.normal != nil {
		return s.normal.Rand(s.z)
	}
	if s.z == nil {
		s.z = make([]float64, s.dim)
	}
	for i := range s.z {
		s.z[i] = s.rng.NormFloat64()
	}
	return s.z
}

// PathBatch 逐步生成的路径批：[step][path][dim]，step 0 为初始状态。
// 生成后不再修改。
type PathBatch [][][]float64

// Steps 返回含初始状态在内的时间步数。
func (b PathBatch) Steps() int { return len(b) }

// N 返回路径条数。
func (b PathBatch) N() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// GeneratePaths 用给定随机流生成 n 条从 Spot 出发、覆盖 0..K 全部时间步的前向路径。
func GeneratePaths(cfg *ModelConfig, n int, seed uint64) (PathBatch, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: path count must be positive", ErrInvalidConfig)
	}
	sim, err := NewGBMSimulator(cfg, seed)
	if err != nil {
		return nil, err
	}
	batch := make(PathBatch, cfg.Horizon+1)
	batch[0] = make([][]float64, n)
	for i := range batch[0] {
		batch[0][i] = append([]float64(nil), cfg.Spot...)
	}
	for k := 1; k <= cfg.Horizon; k++ {
		batch[k] = sim.Advance(batch[k-1], cfg.Dt)
	}
	return batch, nil
}
