package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

type captureWriter struct{ msgs []kafka.Message }

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	settled, dlq := &captureWriter{}, &captureWriter{}
	p := NewKafkaPublisher(settled, dlq)
	ctx := context.Background()

	require.NoError(t, p.PublishBetSettled(ctx, events.BetSettled{BetID: "b1", Status: "won", PayoutCents: 2500}))
	require.NoError(t, p.PublishJobFailed(ctx, events.SettlementJobFailed{JobID: "j2", Origin: "j1", Attempts: 5, FailedAt: time.Now()}))

	require.Len(t, settled.msgs, 1)
	assert.Equal(t, "b1", string(settled.msgs[0].Key))
	var e events.BetSettled
	require.NoError(t, json.Unmarshal(settled.msgs[0].Value, &e))
	assert.Equal(t, int64(2500), e.PayoutCents)
	assert.False(t, e.SettledAt.IsZero())

	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "j1", string(dlq.msgs[0].Key))
}
