package domain

import (
	"fmt"
	"math"
)

// straddleScore “跨式最大等值线不确定度”采集函数：偏好预测均值接近零
// （靠近行权边界）且预测方差大的点。|mean|/stderr 的单调递减函数。
func straddleScore(mean, variance float64) float64 {
	return 1.96*math.Sqrt(variance) - math.Abs(mean)
}

// argmaxScore 返回得分最大的下标，并列时取最小下标。
func argmaxScore(scores []float64) int {
	best := 0
	for i, s := range scores[1:] {
		if s > scores[best] {
			best = i + 1
		}
	}
	return best
}

// gpFitter 序贯/自适应设计中的代理拟合器：按 UpdateFreq 周期性地重新
// 优化超参数，其余轮次复用上一次的超参数以降低重拟合成本。
type gpFitter struct {
	gp         *GPRegressor
	updateFreq int
	last       *gpHyper
	refits     int
}

func newGPFitter(reg Regressor, updateFreq int) (*gpFitter, error) {
	gp, ok := reg.(*GPRegressor)
	if !ok {
		return nil, fmt.Errorf("%w: sequential design requires a GP regression method", ErrInvalidConfig)
	}
	if updateFreq <= 0 {
		updateFreq = 1
	}
	return &gpFitter{gp: gp, updateFreq: updateFreq}, nil
}

func (f *gpFitter) fit(points [][]float64, resp, noise []float64) (Surrogate, error) {
	reoptimize := f.last == nil || f.refits%f.updateFreq == 0
	if !reoptimize {
		f.gp.override = f.last
	}
	s, err := f.gp.Fit(points, resp, noise)
	f.gp.override = nil
	f.refits++
	if err != nil {
		return nil, err
	}
	if gs, ok := s.(*gpSurrogate); ok {
		h := gs.Hyper()
		f.last = &h
	}
	return s, nil
}

// sequentialDesign 主动学习式设计：从小的 QMC 初始设计出发，每轮在候选池
// 中选取采集函数最大的点加入并重拟合，直到达到目标设计规模。
func (e *BackwardInduction) sequentialDesign(k int, fits *SurrogateSet) (*Design, Surrogate, error) {
	cfg := e.cfg
	fitter, err := newGPFitter(e.regressor, cfg.Design.UpdateFreq)
	if err != nil {
		return nil, nil, err
	}

	points, next, err := qmcPoints(cfg, e.payoff, cfg.Design.InitSize, 0)
	if err != nil {
		return nil, nil, err
	}
	init, err := e.sampleResponses(k, points, uniformReps(len(points), cfg.Design.Replications), fits)
	if err != nil {
		return nil, nil, err
	}
	resp := init.Resp
	noise := init.NoiseVar
	reps := init.Reps
	total := init.TotalSims

	cands, _, err := qmcPoints(cfg, e.payoff, cfg.Design.CandidatePool, next)
	if err != nil {
		return nil, nil, err
	}

	surr, err := fitter.fit(points, resp, noise)
	if err != nil {
		return nil, nil, err
	}

	for len(points) < cfg.Design.Size && len(cands) > 0 {
		mean, variance := surr.Predict(cands)
		scores := make([]float64, len(cands))
		for i := range cands {
			scores[i] = straddleScore(mean[i], variance[i])
		}
		best := argmaxScore(scores)
		chosen := cands[best]
		cands = append(cands[:best], cands[best+1:]...)

		nd, err := e.sampleResponses(k, [][]float64{chosen}, []int{cfg.Design.Replications}, fits)
		if err != nil {
			return nil, nil, err
		}
		points = append(points, chosen)
		resp = append(resp, nd.Resp[0])
		reps = append(reps, cfg.Design.Replications)
		if noise != nil && nd.NoiseVar != nil {
			noise = append(noise, nd.NoiseVar[0])
		}
		total += nd.TotalSims

		surr, err = fitter.fit(points, resp, noise)
		if err != nil {
			return nil, nil, err
		}
	}

	design := &Design{
		Points:    points,
		Reps:      reps,
		Resp:      resp,
		NoiseVar:  noise,
		TotalSims: total,
	}
	return design, surr, nil
}
