// 离线实验入口：不依赖数据库与消息队列，直接运行一次逆向归纳与
// 前向策略评估，输出价格估计、基准参照与（GP 变体）行权边界附近的梯度。
package main

import (
	"context"
	"flag"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
	"github.com/jimmyrisk/GP-Quant/pkg/logger"
)

func main() {
	var (
		payoff     = flag.String("payoff", "PUT", "payoff type: PUT, CALL, BASKET_PUT, MAX_CALL")
		method     = flag.String("method", "GP_MLE", "regression method: POLYNOMIAL, SPLINE, GP_FIXED, GP_MLE, HET_GP")
		design     = flag.String("design", "QMC", "design method: FIXED_GRID, QMC, PATHS, SEQUENTIAL, ADAPTIVE_BATCH")
		kernel     = flag.String("kernel", "MATERN_52", "GP kernel family: SQUARED_EXP, MATERN_52")
		dim        = flag.Int("dim", 1, "state dimension")
		spots      = flag.String("spot", "40", "comma separated initial prices")
		strike     = flag.Float64("strike", 40, "strike price")
		rate       = flag.Float64("rate", 0.06, "risk-free rate")
		dividend   = flag.Float64("dividend", 0, "dividend yield")
		vols       = flag.String("vol", "0.2", "comma separated volatilities")
		corr       = flag.Float64("corr", 0, "pairwise correlation")
		horizon    = flag.Int("horizon", 25, "number of exercise opportunities")
		dt         = flag.Float64("dt", 0.04, "time step in years")
		lookahead  = flag.Int("lookahead", 1, "lookahead window")
		designSize = flag.Int("design-size", 100, "unique design points per step")
		reps       = flag.Int("reps", 20, "replications per design point")
		testPaths  = flag.Int("test-paths", 100000, "out-of-sample test paths")
		workers    = flag.Int("workers", 4, "parallel workers per step")
		trainSeed  = flag.Uint64("train-seed", 1, "training stream seed")
		testSeed   = flag.Uint64("test-seed", 2, "test stream seed")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{Level: "info", Format: "text", Output: "stdout"}); err != nil {
		panic(err)
	}
	ctx := context.Background()

	spot := parseFloats(*spots)
	vol := parseFloats(*vols)
	lo := make([]float64, *dim)
	hi := make([]float64, *dim)
	for i := range lo {
		lo[i] = spot[i%len(spot)] * 0.5
		hi[i] = spot[i%len(spot)] * 1.5
	}
	ls := make([]float64, *dim)
	for i := range ls {
		ls[i] = (hi[i] - lo[i]) / 4
	}

	cfg := domain.ModelConfig{
		Dim:         *dim,
		Spot:        spot,
		Strike:      *strike,
		Rate:        *rate,
		Dividend:    *dividend,
		Volatility:  vol,
		Correlation: *corr,
		Payoff:      domain.PayoffType(*payoff),
		Dt:          *dt,
		Horizon:     *horizon,
		Lookahead:   *lookahead,
		Regression: domain.RegressionConfig{
			Method:       domain.RegressMethod(*method),
			Degree:       3,
			Knots:        12,
			Kernel:       domain.KernelFamily(*kernel),
			Trend:        domain.TrendConstant,
			Lengthscales: ls,
			SignalVar:    1,
			Nugget:       1e-6,
		},
		Design: domain.DesignConfig{
			Method:        domain.DesignMethod(*design),
			Size:          *designSize,
			Replications:  *reps,
			InitSize:      *designSize / 4,
			CandidatePool: 500,
			UpdateFreq:    10,
			Budget:        *designSize * *reps,
			BatchSize:     *reps,
			LowerBound:    lo,
			UpperBound:    hi,
			TrainPaths:    *designSize * *reps,
		},
		TrainSeed: *trainSeed,
		TestSeed:  *testSeed,
		TestPaths: *testPaths,
		Workers:   *workers,
	}

	engine, err := domain.NewBackwardInduction(&cfg)
	if err != nil {
		logger.Error(ctx, "invalid experiment configuration", "error", err)
		os.Exit(1)
	}
	rctx := domain.NewRunContext(logger.Get())
	fits, err := engine.Run(ctx, rctx)
	if err != nil {
		logger.Error(ctx, "backward induction failed", "error", err)
		os.Exit(1)
	}

	paths, err := domain.GeneratePaths(&cfg, cfg.TestPaths, cfg.TestSeed)
	if err != nil {
		logger.Error(ctx, "test path generation failed", "error", err)
		os.Exit(1)
	}
	result, err := domain.EvaluatePolicy(&cfg, engine.Payoff(), fits, paths)
	if err != nil {
		logger.Error(ctx, "policy evaluation failed", "error", err)
		os.Exit(1)
	}

	mean := stat.Mean(result.Payoffs, nil)
	stderr := stat.StdDev(result.Payoffs, nil) / math.Sqrt(float64(len(result.Payoffs)))
	logger.Info(ctx, "experiment complete",
		"payoff", *payoff,
		"method", *method,
		"design", *design,
		"price", mean,
		"stderr", stderr,
		"total_sims", rctx.Diag.TotalSims,
		"fitted_steps", fits.Count(),
	)

	if cfg.Dim == 1 {
		maturity := float64(cfg.Horizon) * cfg.Dt
		bs := domain.CalculateBlackScholes(cfg.Payoff, domain.BlackScholesInput{
			S: spot[0], K: cfg.Strike, T: maturity, R: cfg.Rate, V: vol[0],
		})
		logger.Info(ctx, "european reference", "price", bs.Price, "delta", bs.Delta)

		if lsm, err := domain.LongstaffSchwartzBenchmark(&cfg, 20000, cfg.Horizon); err == nil {
			logger.Info(ctx, "lsm benchmark", "price", lsm)
		} else {
			logger.Warn(ctx, "lsm benchmark unavailable", "error", err)
		}
	}

	// GP 变体：输出首步代理模型在初始状态处的各坐标梯度
	if gs, ok := fits.At(1).(domain.GradientSurrogate); ok {
		for coord := 0; coord < cfg.Dim; coord++ {
			grad, gradSE, err := gs.Gradient([][]float64{spot}, coord)
			if err != nil {
				logger.Warn(ctx, "gradient unavailable", "coord", coord, "error", err)
				continue
			}
			logger.Info(ctx, "timing value gradient at spot",
				"coord", coord,
				"gradient", grad[0],
				"stderr", gradSE[0],
			)
		}
	}
}

func parseFloats(s string) []float64 {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			panic("invalid float list: " + s)
		}
		out = append(out, v)
	}
	return out
}
