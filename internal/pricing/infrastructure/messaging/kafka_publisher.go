package messaging

import (
	"context"
	"strconv"
	"time"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/domain"
	"github.com/jimmyrisk/GP-Quant/pkg/mq"
)

const (
	topicValuationCompleted = "pricing.valuation.completed"
	topicValuationFailed    = "pricing.valuation.failed"
)

// KafkaEventPublisher 将估值事件发布到 Kafka
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	timeout  time.Duration
}

// NewKafkaEventPublisher 创建 Kafka 事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, timeout: 5 * time.Second}
}

// PublishValuationCompleted 发布估值完成事件，以 run_id 作为分区键。
func (p *KafkaEventPublisher) PublishValuationCompleted(event domain.ValuationCompletedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	key := strconv.FormatInt(event.RunID, 10)
	return p.producer.SendMessage(ctx, topicValuationCompleted, key, event)
}

// PublishValuationFailed 发布估值失败事件，以标的符号作为分区键。
func (p *KafkaEventPublisher) PublishValuationFailed(event domain.ValuationFailedEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.producer.SendMessage(ctx, topicValuationFailed, event.Symbol, event)
}
