package mysql

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
)

// ValuationRunModel 估值运行的持久化模型
type ValuationRunModel struct {
	ID           int64           `gorm:"primaryKey"`
	Symbol       string          `gorm:"type:varchar(32);index;not null"`
	Payoff       string          `gorm:"type:varchar(20);not null"`
	Regression   string          `gorm:"type:varchar(20);not null"`
	Design       string          `gorm:"type:varchar(20);not null"`
	Dim          int             `gorm:"not null"`
	Strike       float64         `gorm:"type:decimal(20,8);not null"`
	Horizon      int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Stderr       decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Benchmark    decimal.Decimal `gorm:"type:decimal(20,8)"`
	TestPaths    int             `gorm:"not null"`
	TotalSims    int             `gorm:"not null"`
	FittedSteps  int             `gorm:"not null"`
	MeanStopStep float64         `gorm:"type:decimal(12,4)"`
	Status       string          `gorm:"type:varchar(20);index;not null"`
	ErrorMessage string          `gorm:"type:text"`
	ElapsedMs    int64           `gorm:"not null"`
	CreatedAt    time.Time       `gorm:"index"`
}

// TableName 指定表名
func (ValuationRunModel) TableName() string {
	return "valuation_runs"
}

// ValuationRepo 估值运行仓储的 MySQL 实现
type ValuationRepo struct {
	db *gorm.DB
}

// NewValuationRepo 创建估值运行仓储
func NewValuationRepo(db *gorm.DB) *ValuationRepo {
	return &ValuationRepo{db: db}
}

func (r *ValuationRepo) Save(ctx context.Context, run *domain.ValuationRun) error {
	return r.db.WithContext(ctx).Save(toModel(run)).Error
}

func (r *ValuationRepo) GetByID(ctx context.Context, id int64) (*domain.ValuationRun, error) {
	var m ValuationRunModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toDomain(&m), nil
}

func (r *ValuationRepo) List(ctx context.Context, symbol string, limit int) ([]*domain.ValuationRun, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []*ValuationRunModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	runs := make([]*domain.ValuationRun, 0, len(models))
	for _, m := range models {
		runs = append(runs, toDomain(m))
	}
	return runs, nil
}

func toModel(run *domain.ValuationRun) *ValuationRunModel {
	return &ValuationRunModel{
		ID:           run.ID,
		Symbol:       run.Symbol,
		Payoff:       string(run.Payoff),
		Regression:   string(run.Regression),
		Design:       string(run.Design),
		Dim:          run.Dim,
		Strike:       run.Strike,
		Horizon:      run.Horizon,
		Price:        run.Price,
		Stderr:       run.Stderr,
		Benchmark:    run.Benchmark,
		TestPaths:    run.TestPaths,
		TotalSims:    run.TotalSims,
		FittedSteps:  run.FittedSteps,
		MeanStopStep: run.MeanStopStep,
		Status:       string(run.Status),
		ErrorMessage: run.ErrorMessage,
		ElapsedMs:    run.Elapsed.Milliseconds(),
		CreatedAt:    run.CreatedAt,
	}
}

func toDomain(m *ValuationRunModel) *domain.ValuationRun {
	return &domain.ValuationRun{
		ID:           m.ID,
		Symbol:       m.Symbol,
		Payoff:       domain.PayoffType(m.Payoff),
		Regression:   domain.RegressMethod(m.Regression),
		Design:       domain.DesignMethod(m.Design),
		Dim:          m.Dim,
		Strike:       m.Strike,
		Horizon:      m.Horizon,
		Price:        m.Price,
		Stderr:       m.Stderr,
		Benchmark:    m.Benchmark,
		TestPaths:    m.TestPaths,
		TotalSims:    m.TotalSims,
		FittedSteps:  m.FittedSteps,
		MeanStopStep: m.MeanStopStep,
		Status:       domain.ValuationStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		Elapsed:      time.Duration(m.ElapsedMs) * time.Millisecond,
		CreatedAt:    m.CreatedAt,
	}
}
