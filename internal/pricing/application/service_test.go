package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
	"github.com/jimmyrisk/GP-Quant/pkg/utils"
)

type memoryRepo struct {
	mu   sync.Mutex
	runs map[int64]*domain.ValuationRun
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{runs: map[int64]*domain.ValuationRun{}}
}

func (r *memoryRepo) Save(ctx context.Context, run *domain.ValuationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id int64) (*domain.ValuationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.New("valuation run not found")
	}
	return run, nil
}

func (r *memoryRepo) List(ctx context.Context, symbol string, limit int) ([]*domain.ValuationRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ValuationRun
	for _, run := range r.runs {
		if symbol == "" || run.Symbol == symbol {
			out = append(out, run)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	completed []domain.ValuationCompletedEvent
	failed    []domain.ValuationFailedEvent
}

func (p *recordingPublisher) PublishValuationCompleted(event domain.ValuationCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = append(p.completed, event)
	return nil
}

func (p *recordingPublisher) PublishValuationFailed(event domain.ValuationFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, event)
	return nil
}

func testCommand() RunValuationCommand {
	return RunValuationCommand{
		Symbol: "SPY",
		Config: domain.ModelConfig{
			Dim:        1,
			Spot:       []float64{40},
			Strike:     40,
			Rate:       0.06,
			Volatility: []float64{0.2},
			Payoff:     domain.PayoffPut,
			Dt:         0.05,
			Horizon:    4,
			Lookahead:  1,
			Regression: domain.RegressionConfig{
				Method: domain.RegressPolynomial,
				Degree: 3,
			},
			Design: domain.DesignConfig{
				Method:     domain.DesignPaths,
				TrainPaths: 400,
			},
			TrainSeed: 1,
			TestSeed:  2,
			TestPaths: 500,
		},
	}
}

func TestRunValuationPersistsAndPublishes(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewValuationService(repo, pub, nil, utils.NewSnowflakeID(1), EngineDefaults{})

	run, err := svc.RunValuation(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("RunValuation: %v", err)
	}
	if run.Status != domain.ValuationStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", run.Status)
	}
	if run.FittedSteps != 3 {
		t.Errorf("fitted steps = %d, want 3", run.FittedSteps)
	}
	if price, _ := run.Price.Float64(); price <= 0 {
		t.Errorf("price = %v, want positive", price)
	}
	if run.TotalSims <= 0 {
		t.Errorf("total sims = %d, want positive", run.TotalSims)
	}

	saved, err := repo.GetByID(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("run was not persisted: %v", err)
	}
	if saved.Symbol != "SPY" {
		t.Errorf("saved symbol = %s, want SPY", saved.Symbol)
	}
	if len(pub.completed) != 1 {
		t.Fatalf("completed events = %d, want 1", len(pub.completed))
	}
	if pub.completed[0].RunID != run.ID {
		t.Errorf("event run id = %d, want %d", pub.completed[0].RunID, run.ID)
	}
}

func TestRunValuationRejectsInvalidConfigAndPublishesFailure(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewValuationService(repo, pub, nil, utils.NewSnowflakeID(1), EngineDefaults{})

	cmd := testCommand()
	cmd.Config.TestSeed = cmd.Config.TrainSeed
	if _, err := svc.RunValuation(context.Background(), cmd); err == nil {
		t.Fatal("RunValuation with shared seeds should fail")
	}
	if len(pub.failed) != 1 {
		t.Fatalf("failed events = %d, want 1", len(pub.failed))
	}
	if len(pub.completed) != 0 {
		t.Errorf("completed events = %d, want 0", len(pub.completed))
	}
	if len(repo.runs) != 1 {
		t.Fatalf("persisted runs = %d, want 1 failed row", len(repo.runs))
	}
	for _, run := range repo.runs {
		if run.Status != domain.ValuationStatusFailed {
			t.Errorf("status = %s, want FAILED", run.Status)
		}
		if run.ErrorMessage == "" {
			t.Error("failed run must carry the error message")
		}
		if !run.Price.IsZero() {
			t.Errorf("failed run price = %s, want zero", run.Price)
		}
	}
}

func TestRunValuationAppliesEngineDefaults(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewValuationService(repo, pub, nil, utils.NewSnowflakeID(1), EngineDefaults{
		Workers:        2,
		TestPaths:      600,
		BenchmarkPaths: 5000,
	})

	cmd := testCommand()
	cmd.Config.TestPaths = 0
	cmd.Config.Workers = 0
	run, err := svc.RunValuation(context.Background(), cmd)
	if err != nil {
		t.Fatalf("RunValuation: %v", err)
	}
	if run.TestPaths != 600 {
		t.Errorf("test paths = %d, want default 600", run.TestPaths)
	}
	if bench, _ := run.Benchmark.Float64(); bench <= 0 {
		t.Errorf("benchmark = %v, want positive", bench)
	}
}

func TestGetAndListValuations(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	svc := NewValuationService(repo, pub, nil, utils.NewSnowflakeID(1), EngineDefaults{})

	run, err := svc.RunValuation(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("RunValuation: %v", err)
	}

	dto, err := svc.GetValuation(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetValuation: %v", err)
	}
	if dto.ID != run.ID || dto.Symbol != "SPY" || dto.Status != "COMPLETED" {
		t.Errorf("unexpected dto: %+v", dto)
	}

	dtos, err := svc.ListValuations(context.Background(), "SPY", 10)
	if err != nil {
		t.Fatalf("ListValuations: %v", err)
	}
	if len(dtos) != 1 {
		t.Errorf("listed %d runs, want 1", len(dtos))
	}
}
