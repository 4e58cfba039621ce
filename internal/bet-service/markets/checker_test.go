package markets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-settlement/internal/closure"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/shared/cache"
)

type games struct {
	byID  map[string]gamestate.Game
	calls int
}

func (g *games) GetGame(_ context.Context, id string) (gamestate.Game, error) {
	g.calls++
	v, ok := g.byID[id]
	if !ok {
		return gamestate.Game{}, ErrUnknownGame
	}
	return v, nil
}

type brokenSnapshots struct{}

func (brokenSnapshots) Get(context.Context, string) (gamestate.Game, bool, error) {
	return gamestate.Game{}, false, errors.New("connection refused")
}

func lateNBA(id string) gamestate.Game {
	return gamestate.Game{
		ID: id, League: gamestate.LeagueNBA, Status: gamestate.StatusLive,
		HomeScore: gamestate.Score(101), AwayScore: gamestate.Score(95),
		Period: "Q4", Clock: "0:25",
		Extras: gamestate.LiveExtras{Possession: gamestate.SideHome},
	}
}

func TestChecker_SnapshotHit(t *testing.T) {
	mr := miniredis.RunT(t)
	snaps := cache.NewSnapshots(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	ctx := context.Background()

	// banco diz upcoming, cache já viu a partida no fim
	db := &games{byID: map[string]gamestate.Game{
		"g1": {ID: "g1", League: gamestate.LeagueNBA, Status: gamestate.StatusUpcoming},
	}}
	require.NoError(t, snaps.Set(ctx, lateNBA("g1")))

	c := NewChecker(closure.NewEngine(), snaps, db, nil)
	err := c.Check(ctx, "g1")

	var closed *closure.MarketClosedError
	require.ErrorAs(t, err, &closed)
	assert.Equal(t, closure.CategoryTimeThreshold, closed.Category)
	assert.Zero(t, db.calls)
}

func TestChecker_FallsBackToDB(t *testing.T) {
	mr := miniredis.RunT(t)
	snaps := cache.NewSnapshots(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	db := &games{byID: map[string]gamestate.Game{
		"g1": {ID: "g1", League: gamestate.LeagueNBA, Status: gamestate.StatusUpcoming},
	}}

	c := NewChecker(closure.NewEngine(), snaps, db, nil)
	require.NoError(t, c.Check(context.Background(), "g1"))
	assert.Equal(t, 1, db.calls)
}

func TestChecker_RedisErrorFallsBackToDB(t *testing.T) {
	db := &games{byID: map[string]gamestate.Game{"g1": lateNBA("g1")}}

	c := NewChecker(closure.NewEngine(), brokenSnapshots{}, db, nil)
	err := c.Check(context.Background(), "g1")

	var closed *closure.MarketClosedError
	assert.ErrorAs(t, err, &closed)
	assert.Equal(t, 1, db.calls)
}

func TestChecker_UnknownGame(t *testing.T) {
	c := NewChecker(closure.NewEngine(), nil, &games{byID: map[string]gamestate.Game{}}, nil)
	err := c.Check(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownGame)
}
