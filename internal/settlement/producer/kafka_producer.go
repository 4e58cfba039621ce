package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// MessageWriter é o subconjunto do kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica bet_settled e a DLQ de jobs de liquidação
type KafkaPublisher struct {
	Settled MessageWriter
	DLQ     MessageWriter
}

func NewKafkaPublisher(settled, dlq MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, DLQ: dlq}
}

// PublishBetSettled usa o bet_id como chave pra manter a ordem por aposta
func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	if e.SettledAt.IsZero() {
		e.SettledAt = time.Now().UTC()
	}
	return write(ctx, p.Settled, e.BetID, e)
}

func (p *KafkaPublisher) PublishJobFailed(ctx context.Context, e events.SettlementJobFailed) error {
	return write(ctx, p.DLQ, e.Origin, e)
}

func write(ctx context.Context, w MessageWriter, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}
