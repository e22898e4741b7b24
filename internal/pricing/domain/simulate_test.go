package domain

import (
	"testing"
)

func TestGeneratePathsShape(t *testing.T) {
	cfg := baseConfig()
	batch, err := GeneratePaths(&cfg, 50, cfg.TrainSeed)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	if got, want := batch.Steps(), cfg.Horizon+1; got != want {
		t.Errorf("Steps() = %d, want %d", got, want)
	}
	if got := batch.N(); got != 50 {
		t.Errorf("N() = %d, want 50", got)
	}
	for i := range batch[0] {
		if batch[0][i][0] != cfg.Spot[0] {
			t.Fatalf("path %d does not start at spot: %v", i, batch[0][i])
		}
	}
	for k := 0; k <= cfg.Horizon; k++ {
		for i := range batch[k] {
			if len(batch[k][i]) != cfg.Dim {
				t.Fatalf("state dim = %d, want %d", len(batch[k][i]), cfg.Dim)
			}
			if batch[k][i][0] <= 0 {
				t.Fatalf("gbm state must stay positive, got %v at step %d", batch[k][i][0], k)
			}
		}
	}
}

func TestGeneratePathsDeterministicPerSeed(t *testing.T) {
	cfg := baseConfig()
	a, err := GeneratePaths(&cfg, 10, 7)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	b, err := GeneratePaths(&cfg, 10, 7)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	c, err := GeneratePaths(&cfg, 10, 8)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}

	for k := range a {
		for i := range a[k] {
			if a[k][i][0] != b[k][i][0] {
				t.Fatalf("same seed diverged at step %d path %d", k, i)
			}
		}
	}
	same := true
	for k := 1; k < len(a) && same; k++ {
		for i := range a[k] {
			if a[k][i][0] != c[k][i][0] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatal("different seeds produced identical paths")
	}
}

func TestGeneratePathsCorrelatedAssets(t *testing.T) {
	cfg := baseConfig()
	cfg.Dim = 2
	cfg.Spot = []float64{90, 100}
	cfg.Volatility = []float64{0.2, 0.3}
	cfg.Correlation = 0.5
	cfg.Payoff = PayoffMaxCall
	cfg.Regression.Lengthscales = []float64{10, 10}
	cfg.Design.LowerBound = []float64{50, 50}
	cfg.Design.UpperBound = []float64{150, 150}

	batch, err := GeneratePaths(&cfg, 20, 3)
	if err != nil {
		t.Fatalf("GeneratePaths: %v", err)
	}
	for k := 0; k <= cfg.Horizon; k++ {
		for i := range batch[k] {
			if len(batch[k][i]) != 2 {
				t.Fatalf("state dim = %d, want 2", len(batch[k][i]))
			}
		}
	}
}

func TestNewGBMSimulatorRejectsBadCorrelation(t *testing.T) {
	cfg := baseConfig()
	cfg.Dim = 3
	cfg.Spot = []float64{100, 100, 100}
	cfg.Volatility = []float64{0.2, 0.2, 0.2}
	cfg.Correlation = -0.9 // 3 维下非正定
	if _, err := NewGBMSimulator(&cfg, 1); err == nil {
		t.Fatal("NewGBMSimulator() = nil error, want non-positive-definite error")
	}
}
