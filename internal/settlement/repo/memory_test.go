package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
)

func TestMemory_SettleBetOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutWallet("u1", 0)
	m.PutBet(Bet{ID: "b1", UserID: "u1", Type: grading.TypeMoneyline, StakeCents: 1000,
		Market: grading.Market{GameID: "g1", Selection: grading.SelectHome, Odds: 100}})

	s := Settlement{BetID: "b1", Status: grading.StatusWon, PayoutCents: 2000, Reason: "home won"}
	applied, err := m.SettleBet(ctx, s)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = m.SettleBet(ctx, s)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, int64(2000), m.Balance("u1"))
	assert.Len(t, m.Ledger(), 1)

	b, err := m.GetBet(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, grading.StatusWon, b.Status)
	require.NotNil(t, b.SettledAt)
}

func TestSettlement_Validate(t *testing.T) {
	assert.ErrorIs(t, Settlement{BetID: "b", Status: grading.StatusPending}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, Settlement{Status: grading.StatusWon}.Validate(), ErrInvalidState)
	assert.ErrorIs(t, Settlement{BetID: "b", Status: grading.StatusWon, PayoutCents: -1}.Validate(), ErrInvalidState)
	assert.NoError(t, Settlement{BetID: "b", Status: grading.StatusLost}.Validate())
}

func TestMemory_PendingBetsForGame(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutBet(Bet{ID: "single", Type: grading.TypeTotal, Market: grading.Market{GameID: "g1"}})
	m.PutBet(Bet{ID: "parlay", Type: grading.TypeParlay, Legs: []Leg{
		{Index: 0, Market: grading.Market{GameID: "g2"}},
		{Index: 1, Market: grading.Market{GameID: "g1"}},
	}})
	m.PutBet(Bet{ID: "other", Type: grading.TypeTotal, Market: grading.Market{GameID: "g3"}})
	m.PutBet(Bet{ID: "done", Type: grading.TypeTotal, Status: grading.StatusLost, Market: grading.Market{GameID: "g1"}})

	bets, err := m.PendingBetsForGame(ctx, "g1")
	require.NoError(t, err)
	var ids []string
	for _, b := range bets {
		ids = append(ids, b.ID)
	}
	assert.ElementsMatch(t, []string{"single", "parlay"}, ids)

	m.PutGame(gamestate.Game{ID: "g1", Status: gamestate.StatusFinished, HomeScore: gamestate.Score(1), AwayScore: gamestate.Score(0)})
	m.PutGame(gamestate.Game{ID: "g3", Status: gamestate.StatusLive})
	games, err := m.FinishedGamesWithPendingBets(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, games)
}

func TestMemory_FinishedGamesRotate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, id := range []string{"a", "b", "c"} {
		m.PutGame(gamestate.Game{ID: id, Status: gamestate.StatusFinished, HomeScore: gamestate.Score(1), AwayScore: gamestate.Score(0)})
		m.PutBet(Bet{ID: "bet-" + id, Type: grading.TypeTotal, Market: grading.Market{GameID: id}})
	}

	t0 := time.Now()
	var seen []string
	for i := 0; i < 4; i++ {
		ids, err := m.FinishedGamesWithPendingBets(ctx, 1, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		require.Len(t, ids, 1)
		seen = append(seen, ids[0])
	}
	// cada partida aparece antes de qualquer outra se repetir
	assert.Equal(t, []string{"a", "b", "c", "a"}, seen)
}

func TestBet_Grading(t *testing.T) {
	b := Bet{ID: "p", Type: grading.TypeParlay, StakeCents: 500, Legs: []Leg{
		{Index: 0, Market: grading.Market{Type: grading.TypeMoneyline, GameID: "a"}},
		{Index: 1, Market: grading.Market{Type: grading.TypeTotal, GameID: "b"}},
	}}
	gb := b.Grading()
	assert.Len(t, gb.Legs, 2)
	assert.Equal(t, []string{"a", "b"}, gb.GameIDs())
}
