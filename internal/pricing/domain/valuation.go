package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ValuationStatus 估值任务状态
type ValuationStatus string

const (
	ValuationStatusCompleted ValuationStatus = "COMPLETED"
	ValuationStatusFailed    ValuationStatus = "FAILED"
)

// ValuationRun 一次 RMC 估值运行的聚合根：配置摘要、价格估计与诊断汇总。
type ValuationRun struct {
	ID           int64           `json:"id"`
	Symbol       string          `json:"symbol"`
	Payoff       PayoffType      `json:"payoff"`
	Regression   RegressMethod   `json:"regression"`
	Design       DesignMethod    `json:"design"`
	Dim          int             `json:"dim"`
	Strike       float64         `json:"strike"`
	Horizon      int             `json:"horizon"`
	Price        decimal.Decimal `json:"price"`
	Stderr       decimal.Decimal `json:"stderr"`
	Benchmark    decimal.Decimal `json:"benchmark"`
	TestPaths    int             `json:"test_paths"`
	TotalSims    int             `json:"total_sims"`
	FittedSteps  int             `json:"fitted_steps"`
	MeanStopStep float64         `json:"mean_stop_step"`
	Status       ValuationStatus `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Elapsed      time.Duration   `json:"elapsed"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ValuationRepository 估值运行仓储接口
type ValuationRepository interface {
	Save(ctx context.Context, run *ValuationRun) error
	GetByID(ctx context.Context, id int64) (*ValuationRun, error)
	List(ctx context.Context, symbol string, limit int) ([]*ValuationRun, error)
}
