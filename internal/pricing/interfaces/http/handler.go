package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/application"
	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
	"github.com/jimmyrisk/GP-Quant/pkg/logger"
)

// ValuationHandler 负责处理估值相关的 HTTP 请求
type ValuationHandler struct {
	service *application.ValuationService
}

// NewValuationHandler 创建 HTTP 处理器
func NewValuationHandler(service *application.ValuationService) *ValuationHandler {
	return &ValuationHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *ValuationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/valuations")
	{
		api.POST("", h.RunValuation)
		api.GET("/:id", h.GetValuation)
		api.GET("", h.ListValuations)
	}
}

// RunValuationRequest 估值运行请求
type RunValuationRequest struct {
	Symbol      string    `json:"symbol" binding:"required"`
	Dim         int       `json:"dim" binding:"required"`
	Spot        []float64 `json:"spot" binding:"required"`
	Strike      float64   `json:"strike" binding:"required"`
	Rate        float64   `json:"rate"`
	Dividend    float64   `json:"dividend"`
	Volatility  []float64 `json:"volatility" binding:"required"`
	Correlation float64   `json:"correlation"`
	Payoff      string    `json:"payoff" binding:"required"`
	Dt          float64   `json:"dt" binding:"required"`
	Horizon     int       `json:"horizon" binding:"required"`
	Lookahead   int       `json:"lookahead"`

	Regression RegressionRequest `json:"regression" binding:"required"`
	Design     DesignRequest     `json:"design" binding:"required"`

	TrainSeed uint64 `json:"train_seed"`
	TestSeed  uint64 `json:"test_seed"`
	TestPaths int    `json:"test_paths"`
	Workers   int    `json:"workers"`
}

// RegressionRequest 回归模块参数
type RegressionRequest struct {
	Method            string    `json:"method" binding:"required"`
	Degree            int       `json:"degree"`
	Knots             int       `json:"knots"`
	SplinePenalty     float64   `json:"spline_penalty"`
	Kernel            string    `json:"kernel"`
	Trend             string    `json:"trend"`
	Lengthscales      []float64 `json:"lengthscales"`
	SignalVar         float64   `json:"signal_var"`
	Nugget            float64   `json:"nugget"`
	LengthscaleBounds []float64 `json:"lengthscale_bounds"`
	SignalVarBounds   []float64 `json:"signal_var_bounds"`
	NuggetBounds      []float64 `json:"nugget_bounds"`
	MaxIter           int       `json:"max_iter"`
}

// DesignRequest 仿真设计参数
type DesignRequest struct {
	Method        string      `json:"method" binding:"required"`
	GridPoints    [][]float64 `json:"grid_points"`
	Size          int         `json:"size"`
	Replications  int         `json:"replications"`
	InitSize      int         `json:"init_size"`
	CandidatePool int         `json:"candidate_pool"`
	UpdateFreq    int         `json:"update_freq"`
	Budget        int         `json:"budget"`
	BatchSize     int         `json:"batch_size"`
	LowerBound    []float64   `json:"lower_bound"`
	UpperBound    []float64   `json:"upper_bound"`
	TrainPaths    int         `json:"train_paths"`
}

// RunValuation 执行一次估值运行
func (h *ValuationHandler) RunValuation(c *gin.Context) {
	var req RunValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.RunValuationCommand{
		Symbol: req.Symbol,
		Config: toModelConfig(&req),
	}
	run, err := h.service.RunValuation(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "valuation run failed", "symbol", req.Symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, run)
}

// GetValuation 按 ID 查询估值运行
func (h *ValuationHandler) GetValuation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid id", "")
		return
	}

	dto, err := h.service.GetValuation(c.Request.Context(), id)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to get valuation", "id", id, "error", err)
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		return
	}

	response.Success(c, dto)
}

// ListValuations 按标的列出估值运行
func (h *ValuationHandler) ListValuations(c *gin.Context) {
	symbol := c.Query("symbol")
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = n
	}

	dtos, err := h.service.ListValuations(c.Request.Context(), symbol, limit)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list valuations", "symbol", symbol, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, dtos)
}

func toModelConfig(req *RunValuationRequest) domain.ModelConfig {
	cfg := domain.ModelConfig{
		Dim:         req.Dim,
		Spot:        req.Spot,
		Strike:      req.Strike,
		Rate:        req.Rate,
		Dividend:    req.Dividend,
		Volatility:  req.Volatility,
		Correlation: req.Correlation,
		Payoff:      domain.PayoffType(req.Payoff),
		Dt:          req.Dt,
		Horizon:     req.Horizon,
		Lookahead:   req.Lookahead,
		Regression: domain.RegressionConfig{
			Method:        domain.RegressMethod(req.Regression.Method),
			Degree:        req.Regression.Degree,
			Knots:         req.Regression.Knots,
			SplinePenalty: req.Regression.SplinePenalty,
			Kernel:        domain.KernelFamily(req.Regression.Kernel),
			Trend:         domain.TrendForm(req.Regression.Trend),
			Lengthscales:  req.Regression.Lengthscales,
			SignalVar:     req.Regression.SignalVar,
			Nugget:        req.Regression.Nugget,
			MaxIter:       req.Regression.MaxIter,
		},
		Design: domain.DesignConfig{
			Method:        domain.DesignMethod(req.Design.Method),
			GridPoints:    req.Design.GridPoints,
			Size:          req.Design.Size,
			Replications:  req.Design.Replications,
			InitSize:      req.Design.InitSize,
			CandidatePool: req.Design.CandidatePool,
			UpdateFreq:    req.Design.UpdateFreq,
			Budget:        req.Design.Budget,
			BatchSize:     req.Design.BatchSize,
			LowerBound:    req.Design.LowerBound,
			UpperBound:    req.Design.UpperBound,
			TrainPaths:    req.Design.TrainPaths,
		},
		TrainSeed: req.TrainSeed,
		TestSeed:  req.TestSeed,
		TestPaths: req.TestPaths,
		Workers:   req.Workers,
	}
	if b := req.Regression.LengthscaleBounds; len(b) == 2 {
		cfg.Regression.LengthscaleBounds = [2]float64{b[0], b[1]}
	}
	if b := req.Regression.SignalVarBounds; len(b) == 2 {
		cfg.Regression.SignalVarBounds = [2]float64{b[0], b[1]}
	}
	if b := req.Regression.NuggetBounds; len(b) == 2 {
		cfg.Regression.NuggetBounds = [2]float64{b[0], b[1]}
	}
	return cfg
}
