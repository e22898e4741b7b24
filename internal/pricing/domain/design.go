package domain

import (
	"fmt"
)

// Design 某一时间步的仿真设计：唯一输入点、各点重复次数、
// 预均值响应与其噪声方差估计。所有点都落在该步的价内区域内。
type Design struct {
	Points   [][]float64
	Reps     []int
	Resp     []float64
	NoiseVar []float64

	TotalSims       int
	BudgetExhausted bool
}

// Unique 唯一设计点数量。
func (d *Design) Unique() int { return len(d.Points) }

var haltonBases = []int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

// haltonPoint 低差异 Halton 序列的第 idx 个点（单位超立方体内）。
func haltonPoint(idx, dim int) []float64 {
	p := make([]float64, dim)
	for j := 0; j < dim; j++ {
		base := haltonBases[j]
		f := 1.0
		r := 0.0
		i := idx + 1
		for i > 0 {
			f /= float64(base)
			r += f * float64(i%base)
			i /= base
		}
		p[j] = r
	}
	return p
}

// qmcPoints 把 Halton 序列仿射映射到设计区域并拒绝价外点，
// 从序列下标 offset 开始扫描，返回 n 个价内点以及下一个可用下标。
// 多资产篮子下的单纯形状价内区域由拒绝采样自然施加。
func qmcPoints(cfg *ModelConfig, payoff *Payoff, n, offset int) ([][]float64, int, error) {
	if cfg.Dim > len(haltonBases) {
		return nil, 0, fmt.Errorf("%w: qmc design supports at most %d dimensions", ErrInvalidConfig, len(haltonBases))
	}
	lo, hi := cfg.Design.LowerBound, cfg.Design.UpperBound
	pts := make([][]float64, 0, n)
	maxScan := 1000 * n
	idx := offset
	for scanned := 0; len(pts) < n && scanned < maxScan; scanned++ {
		u := haltonPoint(idx, cfg.Dim)
		idx++
		x := make([]float64, cfg.Dim)
		for j := range x {
			x[j] = lo[j] + u[j]*(hi[j]-lo[j])
		}
		if payoff.InTheMoney(x) {
			pts = append(pts, x)
		}
	}
	if len(pts) < n {
		return nil, idx, fmt.Errorf("%w: in-the-money region covers too little of the design box", ErrEmptyDesign)
	}
	return pts, idx, nil
}

// fixedGridPoints 用户给定的网格点，过滤价外点以维持设计不变量。
func fixedGridPoints(cfg *ModelConfig, payoff *Payoff) ([][]float64, error) {
	pts := make([][]float64, 0, len(cfg.Design.GridPoints))
	for _, p := range cfg.Design.GridPoints {
		if payoff.InTheMoney(p) {
			pts = append(pts, append([]float64(nil), p...))
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no grid point lies in the money", ErrEmptyDesign)
	}
	return pts, nil
}

// pathDesignPoints 前向训练路径在步 k 实现的价内状态，路径本身即设计。
func pathDesignPoints(batch PathBatch, payoff *Payoff, k int) ([][]float64, error) {
	states := batch[k]
	pts := make([][]float64, 0, len(states))
	for _, s := range states {
		if payoff.InTheMoney(s) {
			pts = append(pts, s)
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no training path is in the money at step %d", ErrEmptyDesign, k)
	}
	return pts, nil
}

func uniformReps(n, r int) []int {
	reps := make([]int, n)
	for i := range reps {
		reps[i] = r
	}
	return reps
}
