package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

// PublishBetPlaced usa o betID como chave pra manter a ordem por aposta
func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}
