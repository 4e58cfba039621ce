package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

type (
	Writer  = kafka.Writer
	Reader  = kafka.Reader
	Message = kafka.Message
)

// Brokers quebra "a:9092,b:9092" na lista de endereços, ignorando vazios
func Brokers(csv string) []string {
	var out []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func NewWriter(brokers string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(Brokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // mesma chave, mesma partição
		AllowAutoTopicCreation: true,
	}
}

func NewReader(brokers string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        Brokers(brokers),
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}
