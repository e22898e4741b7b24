package domain

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// SurrogateSet 逆向归纳产出的按步有序代理模型集合：步 1..K−1 各一个，
// 到期步 K 的动作是确定的（价内即行权），不需要代理模型。
// 归纳完成后只读，可被并行读者安全共享。
type SurrogateSet struct {
	horizon int
	fits    []Surrogate
}

// NewSurrogateSet 创建空集合。
func NewSurrogateSet(horizon int) *SurrogateSet {
	return &SurrogateSet{horizon: horizon, fits: make([]Surrogate, horizon)}
}

// Horizon 行权机会数 K。
func (s *SurrogateSet) Horizon() int { return s.horizon }

// At 步 k 的代理模型；k 越界或未拟合时返回 nil。
func (s *SurrogateSet) At(k int) Surrogate {
	if k < 1 || k >= s.horizon {
		return nil
	}
	return s.fits[k]
}

// Count 已拟合的步数。
func (s *SurrogateSet) Count() int {
	c := 0
	for _, f := range s.fits {
		if f != nil {
			c++
		}
	}
	return c
}

func (s *SurrogateSet) set(k int, f Surrogate) { s.fits[k] = f }

// BackwardInduction 逆向归纳引擎：从步 K−1 递减到步 1，逐步生成设计、
// 模拟前瞻、计算逐路径时序价值样本并拟合代理模型。
type BackwardInduction struct {
	cfg       *ModelConfig
	payoff    *Payoff
	regressor Regressor
}

// NewBackwardInduction 校验配置并构造引擎（回归方法在此一次性解析）。
func NewBackwardInduction(cfg *ModelConfig) (*BackwardInduction, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	payoff, err := NewPayoff(cfg)
	if err != nil {
		return nil, err
	}
	reg, err := NewRegressor(cfg)
	if err != nil {
		return nil, err
	}
	return &BackwardInduction{cfg: cfg, payoff: payoff, regressor: reg}, nil
}

// Payoff 返回引擎使用的收益计算器。
func (e *BackwardInduction) Payoff() *Payoff { return e.payoff }

// Run 执行整个逆向归纳，返回步 1..K−1 的代理模型集合。
// 任一步拟合失败即整体失败，不返回部分结果。
func (e *BackwardInduction) Run(ctx context.Context, rctx *RunContext) (*SurrogateSet, error) {
	start := time.Now()
	cfg := e.cfg
	fits := NewSurrogateSet(cfg.Horizon)

	var trainBatch PathBatch
	if cfg.Design.Method == DesignPaths {
		batch, err := GeneratePaths(cfg, cfg.Design.TrainPaths, cfg.TrainSeed)
		if err != nil {
			return nil, err
		}
		trainBatch = batch
	}

	for k := cfg.Horizon - 1; k >= 1; k-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := time.Now()

		var (
			design *Design
			fit    Surrogate
			err    error
		)
		switch cfg.Design.Method {
		case DesignSequential:
			design, fit, err = e.sequentialDesign(k, fits)
		case DesignAdaptive:
			design, fit, err = e.adaptiveDesign(k, fits)
		default:
			design, fit, err = e.staticDesign(k, fits, trainBatch)
		}
		if err != nil {
			return nil, fmt.Errorf("backward induction step %d: %w", k, err)
		}
		fits.set(k, fit)

		sd := StepDiagnostics{
			Step:            k,
			UniquePoints:    design.Unique(),
			TotalSims:       design.TotalSims,
			Replications:    design.Reps,
			Elapsed:         time.Since(stepStart),
			BudgetExhausted: design.BudgetExhausted,
		}
		rctx.Diag.record(sd)
		rctx.Logger.Debug("step fitted",
			"step", k,
			"unique_points", sd.UniquePoints,
			"total_sims", sd.TotalSims,
			"elapsed", sd.Elapsed,
		)
	}
	rctx.Diag.Elapsed = time.Since(start)
	rctx.Logger.Info("backward induction complete",
		"steps", fits.Count(),
		"total_sims", rctx.Diag.TotalSims,
		"elapsed", rctx.Diag.Elapsed,
	)
	return fits, nil
}

// staticDesign 固定网格 / QMC / 路径设计：一次生成全部点并拟合。
func (e *BackwardInduction) staticDesign(k int, fits *SurrogateSet, trainBatch PathBatch) (*Design, Surrogate, error) {
	cfg := e.cfg
	var (
		points [][]float64
		reps   []int
		err    error
	)
	switch cfg.Design.Method {
	case DesignFixedGrid:
		points, err = fixedGridPoints(cfg, e.payoff)
		if err != nil {
			return nil, nil, err
		}
		reps = uniformReps(len(points), cfg.Design.Replications)
	case DesignQMC:
		points, _, err = qmcPoints(cfg, e.payoff, cfg.Design.Size, 0)
		if err != nil {
			return nil, nil, err
		}
		reps = uniformReps(len(points), cfg.Design.Replications)
	case DesignPaths:
		points, err = pathDesignPoints(trainBatch, e.payoff, k)
		if err != nil {
			return nil, nil, err
		}
		reps = uniformReps(len(points), 1)
	default:
		return nil, nil, fmt.Errorf("%w: design method %q is not static", ErrInvalidConfig, cfg.Design.Method)
	}

	design, err := e.sampleResponses(k, points, reps, fits)
	if err != nil {
		return nil, nil, err
	}
	fit, err := e.regressor.Fit(design.Points, design.Resp, design.NoiseVar)
	if err != nil {
		return nil, nil, err
	}
	return design, fit, nil
}

// sampleResponses 对每个设计点模拟 reps 条前瞻路径，返回预均值响应与噪声方差。
// 设计点之间相互独立，按 worker 切分并行计算；每个 worker 使用独立随机流。
// 任一 worker 的模拟器构造失败都会使整个采样失败，绝不返回部分响应。
func (e *BackwardInduction) sampleResponses(k int, points [][]float64, reps []int, fits *SurrogateSet) (*Design, error) {
	cfg := e.cfg
	n := len(points)
	resp := make([]float64, n)
	noise := make([]float64, n)
	total := 0
	for _, r := range reps {
		total += r
	}

	workers := cfg.workers()
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			sim, err := NewGBMSimulator(cfg, stepSeed(cfg.TrainSeed, k, worker))
			if err != nil {
				errs[worker] = err
				return
			}
			for i := worker; i < n; i += workers {
				resp[i], noise[i] = e.replicate(sim, k, points[i], reps[i], fits)
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	replicated := false
	for _, r := range reps {
		if r > 1 {
			replicated = true
			break
		}
	}
	var noiseVar []float64
	if replicated {
		noiseVar = noise
	}
	return &Design{
		Points:    points,
		Reps:      reps,
		Resp:      resp,
		NoiseVar:  noiseVar,
		TotalSims: total,
	}, nil
}

// replicate 在单个设计点重复 r 次前瞻模拟，返回样本均值与均值的方差估计 s²/r。
func (e *BackwardInduction) replicate(sim *GBMSimulator, k int, x []float64, r int, fits *SurrogateSet) (mean, meanVar float64) {
	var sum, sumSq float64
	for i := 0; i < r; i++ {
		v := e.pathwiseSample(sim, k, x, fits)
		sum += v
		sumSq += v * v
	}
	mean = sum / float64(r)
	if r > 1 {
		s2 := (sumSq - float64(r)*mean*mean) / float64(r-1)
		if s2 < 0 {
			s2 = 0
		}
		meanVar = s2 / float64(r)
	}
	return mean, meanVar
}

// pathwiseSample 从步 k 的状态 x 出发模拟最多 w 步前瞻，返回一个
// 时序价值（延续减行权）的逐路径无偏样本。前瞻内首个价内且已拟合
// 代理模型预测为负的步即停；到达前瞻边界时用该步已拟合的时序价值
// 桥接；到达到期步 K 时直接使用终端收益，绝不使用拟合值。
func (e *BackwardInduction) pathwiseSample(sim *GBMSimulator, k int, x []float64, fits *SurrogateSet) float64 {
	cfg := e.cfg
	w := cfg.EffectiveLookahead(k)
	hk := e.payoff.Value(x)
	df := math.Exp(-cfg.Rate * cfg.Dt)

	state := x
	disc := 1.0
	for j := k + 1; j <= k+w; j++ {
		state = sim.Step(state, cfg.Dt)
		disc *= df
		hj := e.payoff.Value(state)
		if j == cfg.Horizon {
			return disc*hj - hk
		}
		if j < k+w {
			if hj > 0 && fits.At(j).Mean(state) < 0 {
				return disc*hj - hk
			}
			continue
		}
		// j == k+w < K：用已拟合的时序价值桥接
		return disc*(fits.At(j).Mean(state)+hj) - hk
	}
	return -hk
}

// stepSeed 按（训练流、步、worker）推导互不重合的随机流种子。
func stepSeed(base uint64, k, worker int) uint64 {
	s := base + uint64(k)*0x9E3779B97F4A7C15 + uint64(worker)*0xBF58476D1CE4E5B9
	// splitmix64 终混
	s ^= s >> 30
	s *= 0xBF58476D1CE4E5B9
	s ^= s >> 27
	s *= 0x94D049BB133111EB
	s ^= s >> 31
	return s
}
