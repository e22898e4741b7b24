package application

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
	"github.com/jimmyrisk/GP-Quant/pkg/logger"
	"github.com/jimmyrisk/GP-Quant/pkg/metrics"
	"github.com/jimmyrisk/GP-Quant/pkg/utils"
)

// EngineDefaults 请求未指定时生效的引擎默认参数（来自服务配置）。
type EngineDefaults struct {
	// 单步并行 worker 数
	Workers int
	// 测试路径条数
	TestPaths int
	// LSM 基准路径条数
	BenchmarkPaths int
}

// ValuationService 估值应用服务：执行逆向归纳与前向策略评估，
// 汇总统计量并负责持久化、事件发布与指标上报。
type ValuationService struct {
	repo      domain.ValuationRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	idgen     *utils.SnowflakeID
	defaults  EngineDefaults
}

// NewValuationService 创建估值应用服务。
func NewValuationService(repo domain.ValuationRepository, publisher domain.EventPublisher, m *metrics.Metrics, idgen *utils.SnowflakeID, defaults EngineDefaults) *ValuationService {
	return &ValuationService{repo: repo, publisher: publisher, metrics: m, idgen: idgen, defaults: defaults}
}

// RunValuationCommand 执行一次估值运行的命令。
type RunValuationCommand struct {
	Symbol string
	Config domain.ModelConfig
}

// RunValuation 执行一次完整的 RMC 估值：训练（逆向归纳）与测试
// （前向策略评估）使用相互独立的随机流。
func (s *ValuationService) RunValuation(ctx context.Context, cmd RunValuationCommand) (*domain.ValuationRun, error) {
	start := time.Now()
	cfg := cmd.Config
	if cfg.Workers == 0 {
		cfg.Workers = s.defaults.Workers
	}
	if cfg.TestPaths == 0 {
		cfg.TestPaths = s.defaults.TestPaths
	}

	engine, err := domain.NewBackwardInduction(&cfg)
	if err != nil {
		s.reportFailure(ctx, cmd, err)
		return nil, err
	}
	rctx := domain.NewRunContext(logger.Get())
	fits, err := engine.Run(ctx, rctx)
	if err != nil {
		s.reportFailure(ctx, cmd, err)
		return nil, err
	}

	testPaths, err := domain.GeneratePaths(&cfg, cfg.TestPaths, cfg.TestSeed)
	if err != nil {
		s.reportFailure(ctx, cmd, err)
		return nil, err
	}
	result, err := domain.EvaluatePolicy(&cfg, engine.Payoff(), fits, testPaths)
	if err != nil {
		s.reportFailure(ctx, cmd, err)
		return nil, err
	}

	mean := stat.Mean(result.Payoffs, nil)
	stderr := stat.StdDev(result.Payoffs, nil) / math.Sqrt(float64(len(result.Payoffs)))
	meanStop := 0.0
	for _, t := range result.StoppingTimes {
		meanStop += float64(t)
	}
	meanStop /= float64(len(result.StoppingTimes))

	benchmark := 0.0
	if cfg.Dim == 1 {
		benchPaths := s.defaults.BenchmarkPaths
		if benchPaths <= 0 {
			benchPaths = 20000
		}
		if b, err := domain.LongstaffSchwartzBenchmark(&cfg, benchPaths, cfg.Horizon); err == nil {
			benchmark = b
		} else {
			logger.Warn(ctx, "lsm benchmark unavailable", "error", err)
		}
	}

	run := &domain.ValuationRun{
		ID:           s.idgen.Generate(),
		Symbol:       cmd.Symbol,
		Payoff:       cfg.Payoff,
		Regression:   cfg.Regression.Method,
		Design:       cfg.Design.Method,
		Dim:          cfg.Dim,
		Strike:       cfg.Strike,
		Horizon:      cfg.Horizon,
		Price:        decimal.NewFromFloat(mean),
		Stderr:       decimal.NewFromFloat(stderr),
		Benchmark:    decimal.NewFromFloat(benchmark),
		TestPaths:    cfg.TestPaths,
		TotalSims:    rctx.Diag.TotalSims,
		FittedSteps:  fits.Count(),
		MeanStopStep: meanStop,
		Status:       domain.ValuationStatusCompleted,
		Elapsed:      time.Since(start),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Save(ctx, run); err != nil {
		logger.Error(ctx, "failed to persist valuation run", "error", err)
		return nil, err
	}

	if err := s.publisher.PublishValuationCompleted(domain.ValuationCompletedEvent{
		RunID:       run.ID,
		Symbol:      run.Symbol,
		Payoff:      string(run.Payoff),
		Regression:  string(run.Regression),
		Design:      string(run.Design),
		Price:       mean,
		Stderr:      stderr,
		Benchmark:   benchmark,
		TotalSims:   run.TotalSims,
		FittedSteps: run.FittedSteps,
		ElapsedMs:   run.Elapsed.Milliseconds(),
		OccurredOn:  time.Now(),
	}); err != nil {
		logger.Warn(ctx, "failed to publish valuation event", "error", err)
	}

	if s.metrics != nil {
		s.metrics.ValuationsTotal.Inc()
		s.metrics.ValuationDuration.Observe(run.Elapsed.Seconds())
		s.metrics.SimulationsTotal.Add(float64(run.TotalSims))
		for _, step := range rctx.Diag.Steps {
			s.metrics.StepFitDuration.Observe(step.Elapsed.Seconds())
			s.metrics.DesignPoints.Observe(float64(step.UniquePoints))
		}
	}

	logger.Info(ctx, "valuation run complete",
		"run_id", run.ID,
		"symbol", run.Symbol,
		"price", mean,
		"stderr", stderr,
		"benchmark", benchmark,
		"total_sims", run.TotalSims,
		"elapsed", run.Elapsed,
	)
	return run, nil
}

func (s *ValuationService) reportFailure(ctx context.Context, cmd RunValuationCommand, cause error) {
	if s.metrics != nil {
		s.metrics.ValuationFailures.Inc()
	}
	failed := &domain.ValuationRun{
		ID:           s.idgen.Generate(),
		Symbol:       cmd.Symbol,
		Payoff:       cmd.Config.Payoff,
		Regression:   cmd.Config.Regression.Method,
		Design:       cmd.Config.Design.Method,
		Dim:          cmd.Config.Dim,
		Strike:       cmd.Config.Strike,
		Horizon:      cmd.Config.Horizon,
		Status:       domain.ValuationStatusFailed,
		ErrorMessage: cause.Error(),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Save(ctx, failed); err != nil {
		logger.Warn(ctx, "failed to persist failed valuation run", "error", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishValuationFailed(domain.ValuationFailedEvent{
			Symbol:     cmd.Symbol,
			Payoff:     string(cmd.Config.Payoff),
			Regression: string(cmd.Config.Regression.Method),
			Design:     string(cmd.Config.Design.Method),
			Error:      cause.Error(),
			OccurredOn: time.Now(),
		}); err != nil {
			logger.Warn(ctx, "failed to publish valuation failure event", "error", err)
		}
	}
	logger.Error(ctx, "valuation run failed", "symbol", cmd.Symbol, "error", cause)
}

// GetValuation 按 ID 查询估值运行。
func (s *ValuationService) GetValuation(ctx context.Context, id int64) (*ValuationDTO, error) {
	run, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDTO(run), nil
}

// ListValuations 按标的列出最近的估值运行。
func (s *ValuationService) ListValuations(ctx context.Context, symbol string, limit int) ([]*ValuationDTO, error) {
	runs, err := s.repo.List(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]*ValuationDTO, 0, len(runs))
	for _, r := range runs {
		dtos = append(dtos, toDTO(r))
	}
	return dtos, nil
}
