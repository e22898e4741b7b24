package domain

import (
	"fmt"
	"math"
)

// Payoff 把一批状态映射为立即行权收益，价外返回 0。纯函数，无随机性。
type Payoff struct {
	kind   PayoffType
	strike float64
}

// NewPayoff 根据配置构造收益计算器。
func NewPayoff(cfg *ModelConfig) (*Payoff, error) {
	switch cfg.Payoff {
	case PayoffPut, PayoffCall, PayoffBasketPut, PayoffMaxCall:
		return &Payoff{kind: cfg.Payoff, strike: cfg.Strike}, nil
	default:
		return nil, fmt.Errorf("%w: unknown payoff type %q", ErrInvalidConfig, cfg.Payoff)
	}
}

// Value 单个状态的立即行权收益。
func (p *Payoff) Value(state []float64) float64 {
	switch p.kind {
	case PayoffPut, PayoffBasketPut:
		return math.Max(0, p.strike-mean(state))
	case PayoffCall:
		return math.Max(0, mean(state)-p.strike)
	case PayoffMaxCall:
		m := state[0]
		for _, s := range state[1:] {
			if s > m {
				m = s
			}
		}
		return math.Max(0, m-p.strike)
	}
	return 0
}

// Values 批量计算立即行权收益。
func (p *Payoff) Values(states [][]float64) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = p.Value(s)
	}
	return out
}

// InTheMoney 判断状态是否处于价内区域（立即行权收益严格为正）。
func (p *Payoff) InTheMoney(state []float64) bool {
	return p.Value(state) > 0
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
