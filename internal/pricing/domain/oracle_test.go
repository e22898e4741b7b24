package domain

import (
	"math"
	"testing"
)

func TestCalculateBlackScholesPutPrice(t *testing.T) {
	in := BlackScholesInput{S: 40, K: 40, T: 1, R: 0.06, V: 0.2}
	res := CalculateBlackScholes(PayoffPut, in)

	// 标准平值算例的闭式价格
	price, _ := res.Price.Float64()
	if math.Abs(price-2.0664) > 1e-3 {
		t.Errorf("put price = %v, want ~2.0664", price)
	}
	delta, _ := res.Delta.Float64()
	if delta >= 0 || delta <= -1 {
		t.Errorf("put delta = %v, want in (-1,0)", delta)
	}
	gamma, _ := res.Gamma.Float64()
	if gamma <= 0 {
		t.Errorf("gamma = %v, want positive", gamma)
	}
}

func TestCalculateBlackScholesPutCallParity(t *testing.T) {
	in := BlackScholesInput{S: 95, K: 100, T: 0.5, R: 0.04, V: 0.25}
	call := CalculateBlackScholes(PayoffCall, in)
	put := CalculateBlackScholes(PayoffPut, in)

	c, _ := call.Price.Float64()
	p, _ := put.Price.Float64()
	parity := c - p - (in.S - in.K*math.Exp(-in.R*in.T))
	if math.Abs(parity) > 1e-9 {
		t.Errorf("put-call parity violated by %v", parity)
	}
}

func TestLongstaffSchwartzBenchmarkRequiresOneDimension(t *testing.T) {
	cfg := baseConfig()
	cfg.Dim = 2
	cfg.Spot = []float64{40, 40}
	cfg.Volatility = []float64{0.2, 0.2}
	cfg.Payoff = PayoffBasketPut
	if _, err := LongstaffSchwartzBenchmark(&cfg, 1000, 10); err == nil {
		t.Fatal("LongstaffSchwartzBenchmark should reject multi-asset models")
	}
}

func TestLongstaffSchwartzBenchmarkDominatesEuropean(t *testing.T) {
	cfg := baseConfig()
	price, err := LongstaffSchwartzBenchmark(&cfg, 20000, cfg.Horizon)
	if err != nil {
		t.Fatalf("LongstaffSchwartzBenchmark: %v", err)
	}
	maturity := float64(cfg.Horizon) * cfg.Dt
	euro := CalculateBlackScholes(PayoffPut, BlackScholesInput{
		S: cfg.Spot[0], K: cfg.Strike, T: maturity, R: cfg.Rate, V: cfg.Volatility[0],
	})
	ep, _ := euro.Price.Float64()
	// 提前行权权利不应让价格低于欧式对应物（容忍蒙特卡洛噪声）
	if price < ep-0.15 {
		t.Errorf("american estimate %v materially below european %v", price, ep)
	}
	if price <= 0 || price >= cfg.Strike {
		t.Errorf("american estimate %v outside (0, strike)", price)
	}
}
