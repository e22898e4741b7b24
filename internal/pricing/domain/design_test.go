package domain

import (
	"math"
	"testing"
)

func TestHaltonPointFirstValues(t *testing.T) {
	// 基 2 的 van der Corput 序列：1/2, 1/4, 3/4, ...
	want := []float64{0.5, 0.25, 0.75, 0.125}
	for i, w := range want {
		p := haltonPoint(i, 1)
		if math.Abs(p[0]-w) > 1e-12 {
			t.Errorf("haltonPoint(%d)[0] = %v, want %v", i, p[0], w)
		}
	}
	for i := 0; i < 100; i++ {
		p := haltonPoint(i, 3)
		for j, v := range p {
			if v < 0 || v >= 1 {
				t.Fatalf("haltonPoint(%d)[%d] = %v outside [0,1)", i, j, v)
			}
		}
	}
}

func TestQMCPointsStayInTheMoney(t *testing.T) {
	cfg := baseConfig()
	payoff, err := NewPayoff(&cfg)
	if err != nil {
		t.Fatalf("NewPayoff: %v", err)
	}

	pts, next, err := qmcPoints(&cfg, payoff, 30, 0)
	if err != nil {
		t.Fatalf("qmcPoints: %v", err)
	}
	if len(pts) != 30 {
		t.Fatalf("len(pts) = %d, want 30", len(pts))
	}
	lo, hi := cfg.Design.LowerBound[0], cfg.Design.UpperBound[0]
	for _, p := range pts {
		if !payoff.InTheMoney(p) {
			t.Errorf("design point %v is out of the money", p)
		}
		if p[0] < lo || p[0] > hi {
			t.Errorf("design point %v outside box [%v,%v]", p, lo, hi)
		}
	}

	// offset 续扫产生不重叠的新点
	more, _, err := qmcPoints(&cfg, payoff, 10, next)
	if err != nil {
		t.Fatalf("qmcPoints offset: %v", err)
	}
	seen := map[float64]bool{}
	for _, p := range pts {
		seen[p[0]] = true
	}
	for _, p := range more {
		if seen[p[0]] {
			t.Errorf("offset scan repeated point %v", p)
		}
	}
}

func TestQMCPointsFailsWhenRegionIsAllOutOfTheMoney(t *testing.T) {
	cfg := baseConfig()
	cfg.Design.LowerBound = []float64{41}
	cfg.Design.UpperBound = []float64{60}
	payoff, _ := NewPayoff(&cfg)
	if _, _, err := qmcPoints(&cfg, payoff, 10, 0); err == nil {
		t.Fatal("qmcPoints over an out-of-the-money box should fail")
	}
}

func TestFixedGridPointsFilterOutOfTheMoney(t *testing.T) {
	cfg := baseConfig()
	cfg.Design.Method = DesignFixedGrid
	cfg.Design.GridPoints = [][]float64{{30}, {35}, {40}, {45}}
	payoff, _ := NewPayoff(&cfg)

	pts, err := fixedGridPoints(&cfg, payoff)
	if err != nil {
		t.Fatalf("fixedGridPoints: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("len(pts) = %d, want 2 (in-the-money only)", len(pts))
	}
	for _, p := range pts {
		if p[0] >= cfg.Strike {
			t.Errorf("out-of-the-money point %v survived the filter", p)
		}
	}

	cfg.Design.GridPoints = [][]float64{{45}, {50}}
	if _, err := fixedGridPoints(&cfg, payoff); err == nil {
		t.Fatal("all-out-of-the-money grid should fail")
	}
}

func TestPathDesignPointsKeepInTheMoneyStates(t *testing.T) {
	cfg := baseConfig()
	payoff, _ := NewPayoff(&cfg)
	batch, err := GeneratePaths(&cfg, 200, cfg.TrainSeed)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}

	pts, err := pathDesignPoints(batch, payoff, 5)
	if err != nil {
		t.Fatalf("pathDesignPoints: %v", err)
	}
	if len(pts) == 0 || len(pts) > 200 {
		t.Fatalf("len(pts) = %d, want within (0,200]", len(pts))
	}
	for _, p := range pts {
		if !payoff.InTheMoney(p) {
			t.Errorf("path design point %v is out of the money", p)
		}
	}
}

func TestUniformReps(t *testing.T) {
	reps := uniformReps(4, 7)
	if len(reps) != 4 {
		t.Fatalf("len = %d, want 4", len(reps))
	}
	for _, r := range reps {
		if r != 7 {
			t.Fatalf("reps = %v, want all 7", reps)
		}
	}
}
