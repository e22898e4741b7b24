package domain

import (
	"math"
)

// pointStats 单个设计点的重复仿真累计量。
type pointStats struct {
	n          int
	sum, sumSq float64
}

func (p *pointStats) add(v float64) {
	p.n++
	p.sum += v
	p.sumSq += v * v
}

func (p *pointStats) mean() float64 { return p.sum / float64(p.n) }

// meanVar 均值的方差估计 s²/n。
func (p *pointStats) meanVar() float64 {
	if p.n < 2 {
		return 0
	}
	m := p.mean()
	s2 := (p.sumSq - float64(p.n)*m*m) / float64(p.n-1)
	if s2 < 0 {
		s2 = 0
	}
	return s2 / float64(p.n)
}

// adaptiveDesign 预算约束下的自适应批量分配：每轮在「新增唯一设计点」与
// 「对已有点追加重复」之间选择，比较二者按单位仿真成本折算的边际
// 方差收缩收益。达到仿真总预算或目标设计规模即停，预算先到时在诊断中
// 标记 BudgetExhausted（正常终止，不是错误）。
func (e *BackwardInduction) adaptiveDesign(k int, fits *SurrogateSet) (*Design, Surrogate, error) {
	cfg := e.cfg
	fitter, err := newGPFitter(e.regressor, cfg.Design.UpdateFreq)
	if err != nil {
		return nil, nil, err
	}
	sim, err := NewGBMSimulator(cfg, stepSeed(cfg.TrainSeed, k, 0))
	if err != nil {
		return nil, nil, err
	}

	budget := cfg.Design.Budget
	r0 := cfg.Design.Replications
	batch := cfg.Design.BatchSize
	exhausted := false
	total := 0

	// 初始设计，预算内逐点填充
	initPts, next, err := qmcPoints(cfg, e.payoff, cfg.Design.InitSize, 0)
	if err != nil {
		return nil, nil, err
	}
	points := make([][]float64, 0, cfg.Design.Size)
	stats := make([]*pointStats, 0, cfg.Design.Size)
	for _, p := range initPts {
		if total+r0 > budget {
			exhausted = true
			break
		}
		ps := &pointStats{}
		for i := 0; i < r0; i++ {
			ps.add(e.pathwiseSample(sim, k, p, fits))
		}
		points = append(points, p)
		stats = append(stats, ps)
		total += r0
	}

	cands, _, err := qmcPoints(cfg, e.payoff, cfg.Design.CandidatePool, next)
	if err != nil {
		return nil, nil, err
	}

	responses := func() (resp, noise []float64, reps []int) {
		resp = make([]float64, len(stats))
		noise = make([]float64, len(stats))
		reps = make([]int, len(stats))
		for i, ps := range stats {
			resp[i] = ps.mean()
			noise[i] = ps.meanVar()
			reps[i] = ps.n
		}
		return resp, noise, reps
	}

	var surr Surrogate
	for {
		resp, noise, _ := responses()
		surr, err = fitter.fit(points, resp, noise)
		if err != nil {
			return nil, nil, err
		}
		if exhausted || len(points) >= cfg.Design.Size || len(cands) == 0 {
			break
		}

		// 新增唯一设计点的收益：候选池中跨式采集函数的最大值
		cMean, cVar := surr.Predict(cands)
		cScores := make([]float64, len(cands))
		for i := range cands {
			cScores[i] = straddleScore(cMean[i], cVar[i])
		}
		bestCand := argmaxScore(cScores)
		newBenefit := math.Max(0, cScores[bestCand])

		// 追加重复的收益：边界附近点的预测标准差按 √(r/(r+Δr)) 收缩
		pMean, pVar := surr.Predict(points)
		bestRep, repBenefit := -1, 0.0
		for i := range points {
			shrink := 1 - math.Sqrt(float64(stats[i].n)/float64(stats[i].n+batch))
			b := math.Max(0, straddleScore(pMean[i], pVar[i])) * shrink
			if b > repBenefit {
				repBenefit = b
				bestRep = i
			}
		}

		if newBenefit <= 0 && repBenefit <= 0 {
			break
		}

		addPoint := newBenefit/float64(r0) >= repBenefit/float64(batch) || bestRep < 0
		cost := batch
		if addPoint {
			cost = r0
		}
		if total+cost > budget {
			exhausted = true
			continue
		}

		if addPoint {
			chosen := cands[bestCand]
			cands = append(cands[:bestCand], cands[bestCand+1:]...)
			ps := &pointStats{}
			for i := 0; i < r0; i++ {
				ps.add(e.pathwiseSample(sim, k, chosen, fits))
			}
			points = append(points, chosen)
			stats = append(stats, ps)
		} else {
			for i := 0; i < batch; i++ {
				stats[bestRep].add(e.pathwiseSample(sim, k, points[bestRep], fits))
			}
		}
		total += cost
	}

	resp, noise, reps := responses()
	design := &Design{
		Points:          points,
		Reps:            reps,
		Resp:            resp,
		NoiseVar:        noise,
		TotalSims:       total,
		BudgetExhausted: exhausted,
	}
	return design, surr, nil
}
