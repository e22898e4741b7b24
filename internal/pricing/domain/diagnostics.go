package domain

import (
	"log/slog"
	"time"
)

// StepDiagnostics 单个时间步的归纳诊断信息。
type StepDiagnostics struct {
	Step            int           `json:"step"`
	UniquePoints    int           `json:"unique_points"`
	TotalSims       int           `json:"total_sims"`
	Replications    []int         `json:"replications"`
	Elapsed         time.Duration `json:"elapsed"`
	BudgetExhausted bool          `json:"budget_exhausted"`
}

// RunDiagnostics 整次逆向归纳的诊断汇总，按拟合顺序（步数递减）记录。
type RunDiagnostics struct {
	Steps     []StepDiagnostics `json:"steps"`
	TotalSims int               `json:"total_sims"`
	Elapsed   time.Duration     `json:"elapsed"`
}

func (d *RunDiagnostics) record(s StepDiagnostics) {
	d.Steps = append(d.Steps, s)
	d.TotalSims += s.TotalSims
}

// RunContext 单次运行的显式上下文：日志与诊断累加器，
// 代替散落的全局可变状态，沿引擎与分配器传递。
type RunContext struct {
	Logger *slog.Logger
	Diag   RunDiagnostics
}

// NewRunContext 创建运行上下文；logger 为 nil 时使用全局默认。
func NewRunContext(logger *slog.Logger) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{Logger: logger}
}
