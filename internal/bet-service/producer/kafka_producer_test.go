package producer

import (
	"context"
	"encoding/json"
	"testing"

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

func TestPublishBetPlaced(t *testing.T) {
	w := &captureWriter{}
	p := NewKafkaPublisher(w)

	require.NoError(t, p.PublishBetPlaced(context.Background(), events.BetPlaced{
		BetID: "b1", UserID: "u1", BetType: "moneyline", GameIDs: []string{"g1"}, StakeCents: 1000, Odds: 150,
	}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "b1", string(w.msgs[0].Key))

	var got events.BetPlaced
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, []string{"g1"}, got.GameIDs)
	assert.Positive(t, got.TsUnixMs)
}
