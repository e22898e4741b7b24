package domain

import "time"

const (
	ValuationCompletedEventType = "ValuationCompleted"
	ValuationFailedEventType    = "ValuationFailed"
)

// ValuationCompletedEvent 估值运行完成事件
type ValuationCompletedEvent struct {
	RunID       int64     `json:"run_id"`
	Symbol      string    `json:"symbol"`
	Payoff      string    `json:"payoff"`
	Regression  string    `json:"regression"`
	Design      string    `json:"design"`
	Price       float64   `json:"price"`
	Stderr      float64   `json:"stderr"`
	Benchmark   float64   `json:"benchmark"`
	TotalSims   int       `json:"total_sims"`
	FittedSteps int       `json:"fitted_steps"`
	ElapsedMs   int64     `json:"elapsed_ms"`
	OccurredOn  time.Time `json:"occurred_on"`
}

// ValuationFailedEvent 估值运行失败事件
type ValuationFailedEvent struct {
	Symbol     string    `json:"symbol"`
	Payoff     string    `json:"payoff"`
	Regression string    `json:"regression"`
	Design     string    `json:"design"`
	Error      string    `json:"error"`
	OccurredOn time.Time `json:"occurred_on"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishValuationCompleted 发布估值完成事件
	PublishValuationCompleted(event ValuationCompletedEvent) error

	// PublishValuationFailed 发布估值失败事件
	PublishValuationFailed(event ValuationFailedEvent) error
}
