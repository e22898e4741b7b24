package domain

import (
	"fmt"
	"math"
)

// PolicyResult 前向策略评估结果：逐路径贴现收益与停时（步下标）。
type PolicyResult struct {
	Payoffs       []float64
	StoppingTimes []int
}

// EvaluatePolicy 前向策略评估：对每条测试路径独立地从步 1 向前走，
// 价内且已拟合时序价值为负即停，否则持有到到期。评估完全确定，
// 不触碰任何训练数据；测试路径必须来自与训练不同的随机流。
func EvaluatePolicy(cfg *ModelConfig, payoff *Payoff, fits *SurrogateSet, paths PathBatch) (*PolicyResult, error) {
	if fits == nil || fits.Horizon() != cfg.Horizon {
		return nil, fmt.Errorf("%w: surrogate set does not match horizon %d", ErrInvalidConfig, cfg.Horizon)
	}
	for k := 1; k < cfg.Horizon; k++ {
		if fits.At(k) == nil {
			return nil, fmt.Errorf("%w: step %d", ErrMissingSurrogate, k)
		}
	}
	if paths.Steps() != cfg.Horizon+1 {
		return nil, fmt.Errorf("%w: path batch has %d steps, want %d", ErrInvalidConfig, paths.Steps(), cfg.Horizon+1)
	}

	n := paths.N()
	res := &PolicyResult{
		Payoffs:       make([]float64, n),
		StoppingTimes: make([]int, n),
	}
	for i := 0; i < n; i++ {
		stopped := false
		for k := 1; k < cfg.Horizon; k++ {
			x := paths[k][i]
			h := payoff.Value(x)
			if h > 0 && fits.At(k).Mean(x) < 0 {
				res.Payoffs[i] = math.Exp(-cfg.Rate*float64(k)*cfg.Dt) * h
				res.StoppingTimes[i] = k
				stopped = true
				break
			}
		}
		if !stopped {
			h := payoff.Value(paths[cfg.Horizon][i])
			res.Payoffs[i] = math.Exp(-cfg.Rate*float64(cfg.Horizon)*cfg.Dt) * h
			res.StoppingTimes[i] = cfg.Horizon
		}
	}
	return res, nil
}
