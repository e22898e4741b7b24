package domain

import (
	"errors"
	"math"
	"testing"
)

// constSurrogate 返回固定时序价值的桩代理模型。
type constSurrogate struct{ v float64 }

func (c constSurrogate) Mean(x []float64) float64 { return c.v }
func (c constSurrogate) Predict(xs [][]float64) ([]float64, []float64) {
	mean := make([]float64, len(xs))
	for i := range mean {
		mean[i] = c.v
	}
	return mean, nil
}

func constantFits(horizon int, v float64) *SurrogateSet {
	fits := NewSurrogateSet(horizon)
	for k := 1; k < horizon; k++ {
		fits.set(k, constSurrogate{v: v})
	}
	return fits
}

func TestEvaluatePolicyStopsAtFirstNegativeTimingValue(t *testing.T) {
	cfg := baseConfig()
	payoff, _ := NewPayoff(&cfg)
	paths, err := GeneratePaths(&cfg, 500, cfg.TestSeed)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}

	// 时序价值恒为负：任何价内状态都立即行权
	res, err := EvaluatePolicy(&cfg, payoff, constantFits(cfg.Horizon, -1), paths)
	if err != nil {
		t.Fatalf("EvaluatePolicy: %v", err)
	}
	for i, tau := range res.StoppingTimes {
		if tau < 1 || tau > cfg.Horizon {
			t.Fatalf("stopping time %d outside [1,%d]", tau, cfg.Horizon)
		}
		if tau < cfg.Horizon {
			h := payoff.Value(paths[tau][i])
			if h <= 0 {
				t.Fatalf("path %d stopped out of the money at step %d", i, tau)
			}
			want := math.Exp(-cfg.Rate*float64(tau)*cfg.Dt) * h
			if math.Abs(res.Payoffs[i]-want) > 1e-12 {
				t.Errorf("payoff[%d] = %v, want discounted %v", i, res.Payoffs[i], want)
			}
			// 更早的价内步不存在（首个价内步即停）
			for k := 1; k < tau; k++ {
				if payoff.Value(paths[k][i]) > 0 {
					t.Fatalf("path %d was in the money at step %d but stopped at %d", i, k, tau)
				}
			}
		}
	}
}

func TestEvaluatePolicyHoldsWhenTimingValueIsPositive(t *testing.T) {
	cfg := baseConfig()
	payoff, _ := NewPayoff(&cfg)
	paths, err := GeneratePaths(&cfg, 200, cfg.TestSeed)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}

	res, err := EvaluatePolicy(&cfg, payoff, constantFits(cfg.Horizon, 1), paths)
	if err != nil {
		t.Fatalf("EvaluatePolicy: %v", err)
	}
	for i, tau := range res.StoppingTimes {
		if tau != cfg.Horizon {
			t.Fatalf("path %d stopped at %d, want hold to maturity %d", i, tau, cfg.Horizon)
		}
		h := payoff.Value(paths[cfg.Horizon][i])
		want := math.Exp(-cfg.Rate*float64(cfg.Horizon)*cfg.Dt) * h
		if math.Abs(res.Payoffs[i]-want) > 1e-12 {
			t.Errorf("payoff[%d] = %v, want %v", i, res.Payoffs[i], want)
		}
	}
}

func TestEvaluatePolicyIsDeterministic(t *testing.T) {
	cfg := baseConfig()
	payoff, _ := NewPayoff(&cfg)
	paths, _ := GeneratePaths(&cfg, 100, cfg.TestSeed)
	fits := constantFits(cfg.Horizon, -0.5)

	a, err := EvaluatePolicy(&cfg, payoff, fits, paths)
	if err != nil {
		t.Fatalf("EvaluatePolicy: %v", err)
	}
	b, err := EvaluatePolicy(&cfg, payoff, fits, paths)
	if err != nil {
		t.Fatalf("EvaluatePolicy: %v", err)
	}
	for i := range a.Payoffs {
		if a.Payoffs[i] != b.Payoffs[i] || a.StoppingTimes[i] != b.StoppingTimes[i] {
			t.Fatalf("re-evaluation diverged at path %d", i)
		}
	}
}

func TestEvaluatePolicyRejectsIncompleteSurrogates(t *testing.T) {
	cfg := baseConfig()
	payoff, _ := NewPayoff(&cfg)
	paths, _ := GeneratePaths(&cfg, 10, cfg.TestSeed)

	fits := constantFits(cfg.Horizon, -1)
	fits.set(3, nil)
	if _, err := EvaluatePolicy(&cfg, payoff, fits, paths); !errors.Is(err, ErrMissingSurrogate) {
		t.Fatalf("err = %v, want ErrMissingSurrogate", err)
	}

	wrong := constantFits(cfg.Horizon+1, -1)
	if _, err := EvaluatePolicy(&cfg, payoff, wrong, paths); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("horizon mismatch: err = %v, want ErrInvalidConfig", err)
	}
}
