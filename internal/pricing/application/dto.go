package application

import (
	"time"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
)

// ValuationDTO 估值运行的对外视图。
type ValuationDTO struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	Payoff       string    `json:"payoff"`
	Regression   string    `json:"regression"`
	Design       string    `json:"design"`
	Dim          int       `json:"dim"`
	Strike       float64   `json:"strike"`
	Horizon      int       `json:"horizon"`
	Price        string    `json:"price"`
	Stderr       string    `json:"stderr"`
	Benchmark    string    `json:"benchmark"`
	TestPaths    int       `json:"test_paths"`
	TotalSims    int       `json:"total_sims"`
	FittedSteps  int       `json:"fitted_steps"`
	MeanStopStep float64   `json:"mean_stop_step"`
	Status       string    `json:"status"`
	ElapsedMs    int64     `json:"elapsed_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

func toDTO(run *domain.ValuationRun) *ValuationDTO {
	return &ValuationDTO{
		ID:           run.ID,
		Symbol:       run.Symbol,
		Payoff:       string(run.Payoff),
		Regression:   string(run.Regression),
		Design:       string(run.Design),
		Dim:          run.Dim,
		Strike:       run.Strike,
		Horizon:      run.Horizon,
		Price:        run.Price.String(),
		Stderr:       run.Stderr.String(),
		Benchmark:    run.Benchmark.String(),
		TestPaths:    run.TestPaths,
		TotalSims:    run.TotalSims,
		FittedSteps:  run.FittedSteps,
		MeanStopStep: run.MeanStopStep,
		Status:       string(run.Status),
		ElapsedMs:    run.Elapsed.Milliseconds(),
		CreatedAt:    run.CreatedAt,
	}
}
