package settlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
)

// Trigger enfileira a liquidação assim que uma partida termina.
// É chamado pelo processor de estado de jogo, em outro processo.
type Trigger struct {
	q           queue.Queue
	maxAttempts int
	log         *zap.Logger
}

func NewTrigger(q queue.Queue, maxAttempts int, log *zap.Logger) *Trigger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trigger{q: q, maxAttempts: maxAttempts, log: log}
}

// GameFinished enfileira settle_game com prioridade máxima.
// Partidas que não terminaram ou sem placar completo são ignoradas (enqueued=false).
func (t *Trigger) GameFinished(ctx context.Context, g gamestate.Game) (bool, error) {
	if g.Status != gamestate.StatusFinished || !g.HasFinalScore() {
		return false, nil
	}

	j := queue.NewJob(queue.KindSettleGame, g.ID, queue.PriorityImmediate, time.Time{}, t.maxAttempts)
	if err := t.q.Enqueue(ctx, j); err != nil {
		return false, fmt.Errorf("enqueue settle_game %s: %w", g.ID, err)
	}

	t.log.Info("settlement triggered",
		zap.String("gameId", g.ID),
		zap.String("jobId", j.ID),
	)
	return true, nil
}
