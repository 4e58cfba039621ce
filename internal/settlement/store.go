package settlement

import (
	"context"
	"time"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/settlement/repo"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// Store é o que o orquestrador precisa da persistência.
// repo.Postgres em produção, repo.Memory nos testes.
type Store interface {
	GetGame(ctx context.Context, id string) (gamestate.Game, error)
	GetResult(ctx context.Context, id string) (gamestate.Result, error)
	PendingBetsForGame(ctx context.Context, gameID string) ([]repo.Bet, error)

	// SettleBet aplica status, payout, pernas, saldo e lançamento numa transação só.
	// applied=false quando a aposta já não estava pendente.
	SettleBet(ctx context.Context, s repo.Settlement) (applied bool, err error)

	// FinishedGamesWithPendingBets devolve até limit partidas, as varridas há mais tempo primeiro,
	// e marca cada uma com sweptAt pra que a próxima rodada avance no backlog
	FinishedGamesWithPendingBets(ctx context.Context, limit int, sweptAt time.Time) ([]string, error)
	LiveGamesStartedBefore(ctx context.Context, t time.Time) ([]gamestate.Game, error)
	FinishGame(ctx context.Context, id string, at time.Time) (bool, error)
}

// Publisher envia os eventos de saída (Kafka em produção)
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishJobFailed(ctx context.Context, e events.SettlementJobFailed) error
}

// Locker é o lock distribuído por partida; cache.Locker implementa
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type nopPublisher struct{}

func (nopPublisher) PublishBetSettled(context.Context, events.BetSettled) error { return nil }

func (nopPublisher) PublishJobFailed(context.Context, events.SettlementJobFailed) error {
	return nil
}

var (
	_ Store = (*repo.Postgres)(nil)
	_ Store = (*repo.Memory)(nil)
)
