package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/game-state-processor/repository"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/settlement"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// fakeRepo reproduz a regra de ciclo de vida do PostgresRepo
type fakeRepo struct {
	games map[string]gamestate.Game
	err   error
}

func (r *fakeRepo) Apply(_ context.Context, g gamestate.Game, _ gamestate.Result, _ int) (repository.Transition, error) {
	if r.err != nil {
		return repository.Transition{}, r.err
	}
	prev, ok := r.games[g.ID]
	tr := repository.Transition{Prev: prev.Status, Game: g}
	if ok && !prev.Status.CanTransition(g.Status) {
		return tr, nil
	}
	if ok && prev.Status == gamestate.StatusFinished {
		tr.Game = prev
	}
	r.games[g.ID] = tr.Game
	tr.Applied = true
	return tr, nil
}

type fakeCache struct{ set []gamestate.Game }

func (c *fakeCache) Set(_ context.Context, g gamestate.Game) error {
	c.set = append(c.set, g)
	return nil
}

type captureWriter struct{ msgs []kafka.Message }

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

type harness struct {
	proc   *Processor
	repo   *fakeRepo
	cache  *fakeCache
	q      *queue.Memory
	dlq    *captureWriter
	errors []string
}

func newHarness() *harness {
	h := &harness{
		repo:  &fakeRepo{games: map[string]gamestate.Game{}},
		cache: &fakeCache{},
		q:     queue.NewMemory(),
		dlq:   &captureWriter{},
	}
	h.proc = &Processor{
		Log:     zap.NewNop(),
		Repo:    h.repo,
		Cache:   h.cache,
		Trigger: settlement.NewTrigger(h.q, 5, nil),
		DLQ:     h.dlq,
		OnError: func(stage string) { h.errors = append(h.errors, stage) },
	}
	return h
}

func msg(t *testing.T, ev events.GameStateUpdate) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(ev.GameID), Value: b}
}

func update(status string, home, away int) events.GameStateUpdate {
	return events.GameStateUpdate{
		GameID: "nba-1", League: "nba", Status: status,
		ScheduledStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		HomeScore:      gamestate.Score(home), AwayScore: gamestate.Score(away),
		Period: "Q4", Clock: "1:10",
		Extras: json.RawMessage(`{"possession":"home"}`),
	}
}

func queued(t *testing.T, q *queue.Memory) int64 {
	t.Helper()
	s, err := q.Stats(context.Background())
	require.NoError(t, err)
	return s.Waiting + s.Delayed
}

func TestHandle_TriggersSettlementOnceOnFinish(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	require.NoError(t, h.proc.Handle(ctx, msg(t, update("live", 100, 98))))
	assert.Zero(t, queued(t, h.q))
	require.Len(t, h.cache.set, 1)
	assert.Equal(t, gamestate.LeagueNBA, h.cache.set[0].League)
	assert.Equal(t, gamestate.SideHome, h.cache.set[0].Extras.Possession)

	require.NoError(t, h.proc.Handle(ctx, msg(t, update("finished", 104, 99))))
	assert.Equal(t, int64(1), queued(t, h.q))

	// reentrega do final não dispara de novo e não muda o placar
	require.NoError(t, h.proc.Handle(ctx, msg(t, update("finished", 0, 0))))
	assert.Equal(t, int64(1), queued(t, h.q))
	assert.Equal(t, 104, *h.repo.games["nba-1"].HomeScore)
}

func TestHandle_StatusNeverRegresses(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	require.NoError(t, h.proc.Handle(ctx, msg(t, update("live", 10, 8))))
	require.NoError(t, h.proc.Handle(ctx, msg(t, update("upcoming", 0, 0))))

	assert.Equal(t, gamestate.StatusLive, h.repo.games["nba-1"].Status)
	assert.Len(t, h.cache.set, 1)
}

func TestHandle_InvalidMessagesGoToDLQ(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	require.NoError(t, h.proc.Handle(ctx, kafka.Message{Value: []byte("{not json")}))

	bad := update("finished", 1, 0)
	bad.AwayScore = nil
	require.NoError(t, h.proc.Handle(ctx, msg(t, bad)))

	require.Len(t, h.dlq.msgs, 2)
	assert.Equal(t, "error", h.dlq.msgs[1].Headers[0].Key)
	assert.Equal(t, []string{"decode", "validate"}, h.errors)
	assert.Zero(t, queued(t, h.q))
}

func TestHandle_RepoErrorIsReturned(t *testing.T) {
	h := newHarness()
	h.repo.err = errors.New("pg down")

	err := h.proc.Handle(context.Background(), msg(t, update("live", 1, 1)))
	assert.Error(t, err)
	assert.Equal(t, []string{"db_apply"}, h.errors)
}

func TestToGame(t *testing.T) {
	ev := update("finished", 3, 2)
	ev.Clock = ""
	ev.Periods = []events.PeriodScore{{Period: "1st half", Home: 1, Away: 1}}
	ev.PlayerStats = []events.PlayerStat{{PlayerID: "p9", Stat: "Goals", Value: decimal.NewFromInt(2)}}
	ev.StatsFinal = true

	g, detail, err := ToGame(ev)
	require.NoError(t, err)
	assert.Equal(t, gamestate.StatusFinished, g.Status)
	assert.False(t, g.UpdatedAt.IsZero())

	s, ok := detail.Periods[gamestate.PeriodH1]
	require.True(t, ok)
	assert.Equal(t, 2, s.Total())
	v, ok := detail.PlayerStat("p9", "goals", "")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(2)))
	assert.True(t, detail.StatsFinal)

	for name, mut := range map[string]func(*events.GameStateUpdate){
		"no id":          func(e *events.GameStateUpdate) { e.GameID = "" },
		"bad status":     func(e *events.GameStateUpdate) { e.Status = "halftime" },
		"negative score": func(e *events.GameStateUpdate) { e.HomeScore = gamestate.Score(-1) },
		"bad extras":     func(e *events.GameStateUpdate) { e.Extras = json.RawMessage(`[1,2]`) },
	} {
		t.Run(name, func(t *testing.T) {
			e := update("live", 1, 0)
			mut(&e)
			_, _, err := ToGame(e)
			assert.ErrorIs(t, err, ErrInvalidUpdate)
		})
	}
}

func TestTransition_JustFinished(t *testing.T) {
	fin := gamestate.Game{Status: gamestate.StatusFinished}
	assert.True(t, repository.Transition{Prev: gamestate.StatusLive, Game: fin, Applied: true}.JustFinished())
	assert.True(t, repository.Transition{Game: fin, Applied: true}.JustFinished())
	assert.False(t, repository.Transition{Prev: gamestate.StatusFinished, Game: fin, Applied: true}.JustFinished())
	assert.False(t, repository.Transition{Prev: gamestate.StatusLive, Game: fin}.JustFinished())
}
