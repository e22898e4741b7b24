package domain

import (
	"errors"
	"testing"
)

func baseConfig() ModelConfig {
	return ModelConfig{
		Dim:        1,
		Spot:       []float64{40},
		Strike:     40,
		Rate:       0.06,
		Volatility: []float64{0.2},
		Payoff:     PayoffPut,
		Dt:         0.04,
		Horizon:    10,
		Lookahead:  1,
		Regression: RegressionConfig{
			Method:       RegressGPFixed,
			Kernel:       KernelMatern52,
			Trend:        TrendConstant,
			Lengthscales: []float64{8},
			SignalVar:    4,
			Nugget:       1e-4,
		},
		Design: DesignConfig{
			Method:       DesignQMC,
			Size:         20,
			Replications: 5,
			LowerBound:   []float64{20},
			UpperBound:   []float64{60},
		},
		TrainSeed: 1,
		TestSeed:  2,
		TestPaths: 1000,
	}
}

func TestValidateAcceptsBaseConfig(t *testing.T) {
	cfg := baseConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsInvalidConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ModelConfig)
	}{
		{"zero dim", func(c *ModelConfig) { c.Dim = 0 }},
		{"spot dim mismatch", func(c *ModelConfig) { c.Spot = []float64{40, 40} }},
		{"negative volatility", func(c *ModelConfig) { c.Volatility = []float64{-0.2} }},
		{"correlation out of range", func(c *ModelConfig) { c.Correlation = 1.5 }},
		{"horizon too short", func(c *ModelConfig) { c.Horizon = 1 }},
		{"unknown payoff", func(c *ModelConfig) { c.Payoff = "DIGITAL" }},
		{"put in higher dimension", func(c *ModelConfig) {
			c.Dim = 2
			c.Spot = []float64{40, 40}
			c.Volatility = []float64{0.2, 0.2}
			c.Regression.Lengthscales = []float64{8, 8}
			c.Design.LowerBound = []float64{20, 20}
			c.Design.UpperBound = []float64{60, 60}
		}},
		{"equal train and test seeds", func(c *ModelConfig) { c.TestSeed = c.TrainSeed }},
		{"unknown regression method", func(c *ModelConfig) { c.Regression.Method = "NEURAL" }},
		{"spline in higher dimension", func(c *ModelConfig) {
			c.Dim = 2
			c.Spot = []float64{40, 40}
			c.Volatility = []float64{0.2, 0.2}
			c.Payoff = PayoffBasketPut
			c.Regression.Method = RegressSpline
			c.Regression.Knots = 10
			c.Design.LowerBound = []float64{20, 20}
			c.Design.UpperBound = []float64{60, 60}
		}},
		{"sequential without gp", func(c *ModelConfig) {
			c.Regression.Method = RegressPolynomial
			c.Regression.Degree = 3
			c.Design.Method = DesignSequential
			c.Design.InitSize = 5
			c.Design.CandidatePool = 50
		}},
		{"adaptive without budget", func(c *ModelConfig) {
			c.Design.Method = DesignAdaptive
			c.Design.InitSize = 5
			c.Design.CandidatePool = 50
			c.Design.BatchSize = 5
			c.Design.Budget = 0
		}},
		{"empty design box", func(c *ModelConfig) { c.Design.UpperBound = []float64{20} }},
		{"zero test paths", func(c *ModelConfig) { c.TestPaths = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestEffectiveLookaheadClampsToHorizon(t *testing.T) {
	cfg := baseConfig()
	cfg.Lookahead = 3

	if got := cfg.EffectiveLookahead(5); got != 3 {
		t.Errorf("EffectiveLookahead(5) = %d, want 3", got)
	}
	// 距到期不足 w 步时收缩
	if got := cfg.EffectiveLookahead(cfg.Horizon - 1); got != 1 {
		t.Errorf("EffectiveLookahead(K-1) = %d, want 1", got)
	}
	cfg.Lookahead = 0
	if got := cfg.EffectiveLookahead(1); got != 1 {
		t.Errorf("EffectiveLookahead with w=0 = %d, want 1", got)
	}
}
