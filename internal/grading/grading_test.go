package grading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

func final(id string, league gamestate.League, home, away int) gamestate.Result {
	return gamestate.ResultFromGame(gamestate.Game{
		ID:        id,
		League:    league,
		Status:    gamestate.StatusFinished,
		HomeScore: gamestate.Score(home),
		AwayScore: gamestate.Score(away),
	})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDecimalOdds(t *testing.T) {
	m, err := DecimalOdds(150)
	require.NoError(t, err)
	assert.True(t, m.Equal(dec("2.5")))

	m, err = DecimalOdds(-200)
	require.NoError(t, err)
	assert.True(t, m.Equal(dec("1.5")))

	m, err = DecimalOdds(-110)
	require.NoError(t, err)
	assert.Equal(t, "1.909", m.StringFixed(3))

	_, err = DecimalOdds(50)
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestPayout(t *testing.T) {
	assert.Equal(t, int64(2500), Payout(1000, StatusWon, dec("2.5")))
	assert.Equal(t, int64(1909), Payout(1000, StatusWon, dec("1.9090909")))
	assert.Equal(t, int64(1000), Payout(1000, StatusPush, dec("1")))
	assert.Equal(t, int64(1000), Payout(1000, StatusVoid, decimal.Zero))
	assert.Equal(t, int64(0), Payout(1000, StatusLost, dec("2.5")))
}

func TestMoneyline(t *testing.T) {
	v, err := Moneyline(SelectHome, final("g", gamestate.LeagueNBA, 100, 90))
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = Moneyline(SelectAway, final("g", gamestate.LeagueNBA, 100, 90))
	require.NoError(t, err)
	assert.Equal(t, StatusLost, v.Status)

	// esporte que admite empate
	v, err = Moneyline(SelectHome, final("g", gamestate.LeagueEPL, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusPush, v.Status)

	v, err = Moneyline(SelectDraw, final("g", gamestate.LeagueEPL, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = Moneyline(SelectDraw, final("g", gamestate.LeagueEPL, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusLost, v.Status)

	_, err = Moneyline(SelectOver, final("g", gamestate.LeagueEPL, 2, 1))
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSpread(t *testing.T) {
	r := final("g", gamestate.LeagueNFL, 24, 17)

	tests := []struct {
		sel  Selection
		line string
		want Status
	}{
		{SelectHome, "-7", StatusPush},
		{SelectAway, "7", StatusPush},
		{SelectHome, "-6.5", StatusWon},
		{SelectHome, "-7.5", StatusLost},
		{SelectAway, "7.5", StatusWon},
		{SelectAway, "3", StatusLost},
	}
	for _, tt := range tests {
		v, err := Spread(tt.sel, dec(tt.line), r)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.Status, "%s %s", tt.sel, tt.line)
	}
}

func TestTotal(t *testing.T) {
	r := final("g", gamestate.LeagueNBA, 110, 100)

	v, err := Total(SelectOver, dec("210"), r)
	require.NoError(t, err)
	assert.Equal(t, StatusPush, v.Status)

	v, err = Total(SelectUnder, dec("210"), r)
	require.NoError(t, err)
	assert.Equal(t, StatusPush, v.Status)

	v, err = Total(SelectOver, dec("209.5"), r)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = Total(SelectUnder, dec("209.5"), r)
	require.NoError(t, err)
	assert.Equal(t, StatusLost, v.Status)
}

func TestPlayerProp(t *testing.T) {
	r := final("g", gamestate.LeagueNBA, 110, 100)
	r.SetPlayerStat("p23", "points", "", decimal.NewFromInt(31))

	v, err := PlayerProp(SelectOver, dec("24.5"), "p23", "points", "", r)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = PlayerProp(SelectUnder, dec("31"), "p23", "Points", "FG", r)
	require.NoError(t, err)
	assert.Equal(t, StatusPush, v.Status)

	// súmula ainda aberta: continua pendente
	_, err = PlayerProp(SelectOver, dec("24.5"), "p7", "points", "", r)
	assert.ErrorIs(t, err, ErrResultPending)

	r.StatsFinal = true
	v, err = PlayerProp(SelectOver, dec("24.5"), "p7", "points", "", r)
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, v.Status)
}

func TestGameProp(t *testing.T) {
	r := final("g", gamestate.LeagueNBA, 110, 100)
	r.SetPeriod("Q1", gamestate.PeriodScore{Home: 30, Away: 22})
	r.SetPeriod("Q2", gamestate.PeriodScore{Home: 20, Away: 28})

	v, err := GameProp(SelectOver, dec("51.5"), "Q1", r)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = GameProp(SelectDraw, decimal.Zero, "1H", r)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status, "first half 50-50")

	v, err = GameProp(SelectHome, dec("-2.5"), "Q1", r)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, v.Status)

	v, err = GameProp(SelectOver, dec("40.5"), "Q3", r)
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, v.Status)
}

func TestGradeMarket_NotFinished(t *testing.T) {
	r := final("g", gamestate.LeagueNBA, 10, 10)
	r.Status = gamestate.StatusLive

	_, err := GradeMarket(Market{Type: TypeMoneyline, Selection: SelectHome}, r)
	assert.ErrorIs(t, err, ErrGameNotFinished)
}

func TestParlay(t *testing.T) {
	results := map[string]gamestate.Result{
		"a": final("a", gamestate.LeagueNBA, 100, 90),
		"b": final("b", gamestate.LeagueNFL, 20, 17),
		"c": final("c", gamestate.LeagueNBA, 80, 95),
	}
	ml := func(game string, sel Selection, odds int) Market {
		return Market{Type: TypeMoneyline, GameID: game, Selection: sel, Odds: odds}
	}

	t.Run("any lost leg loses", func(t *testing.T) {
		pv, err := Parlay([]Market{ml("a", SelectHome, 100), ml("b", SelectHome, 100), ml("c", SelectHome, 100)}, results)
		require.NoError(t, err)
		assert.Equal(t, StatusLost, pv.Status)
		assert.True(t, pv.Multiplier.IsZero())
		require.Len(t, pv.Legs, 3)
		assert.Equal(t, StatusLost, pv.Legs[2].Status)
	})

	t.Run("push leg removed from multiplier", func(t *testing.T) {
		legs := []Market{
			ml("a", SelectHome, 100),
			{Type: TypeSpread, GameID: "b", Selection: SelectAway, Line: dec("3"), Odds: -110},
		}
		pv, err := Parlay(legs, results)
		require.NoError(t, err)
		assert.Equal(t, StatusWon, pv.Status)
		assert.True(t, pv.Multiplier.Equal(dec("2")), pv.Multiplier.String())
		assert.Equal(t, StatusPush, pv.Legs[1].Status)
	})

	t.Run("void and push legs aggregate to push", func(t *testing.T) {
		legs := []Market{
			{Type: TypeSpread, GameID: "b", Selection: SelectHome, Line: dec("-3"), Odds: -110},
			{Type: TypeGameProp, GameID: "a", Selection: SelectOver, Line: dec("40.5"), Period: "Q3", Odds: -110},
		}
		pv, err := Parlay(legs, results)
		require.NoError(t, err)
		assert.Equal(t, StatusPush, pv.Status)
		assert.Equal(t, StatusVoid, pv.Legs[1].Status)
	})

	t.Run("unfinished game defers the whole ticket", func(t *testing.T) {
		_, err := Parlay([]Market{ml("a", SelectHome, 100), ml("z", SelectHome, 100)}, results)
		assert.ErrorIs(t, err, ErrParlayIncomplete)
	})
}

func TestGrade(t *testing.T) {
	results := map[string]gamestate.Result{"g": final("g", gamestate.LeagueNBA, 100, 90)}

	out, err := Grade(Bet{
		ID:         "b1",
		Type:       TypeMoneyline,
		StakeCents: 1000,
		Market:     Market{GameID: "g", Selection: SelectHome, Odds: 150},
	}, results)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, int64(2500), out.PayoutCents)

	out, err = Grade(Bet{
		ID:         "b2",
		Type:       TypeParlay,
		StakeCents: 500,
		Legs: []Market{
			{Type: TypeMoneyline, GameID: "g", Selection: SelectHome, Odds: 100},
			{Type: TypeTotal, GameID: "g", Selection: SelectOver, Line: dec("190"), Odds: -110},
		},
	}, results)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, out.Status)
	assert.Equal(t, int64(1000), out.PayoutCents)
}

func TestBet_GameIDs(t *testing.T) {
	b := Bet{Type: TypeParlay, Legs: []Market{{GameID: "a"}, {GameID: "b"}, {GameID: "a"}}}
	assert.Equal(t, []string{"a", "b"}, b.GameIDs())
}
