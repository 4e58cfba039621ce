package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/bet-service/dto"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/markets"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/sports-bet-settlement/internal/closure"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

type fakeStore struct {
	balance int64
	bets    map[string]repo.Bet
}

func (s *fakeStore) PlaceBet(_ context.Context, b *repo.Bet) (int64, error) {
	if s.balance < b.StakeCents {
		return s.balance, repo.ErrInsufficientFunds
	}
	s.balance -= b.StakeCents
	b.ID = "bet-" + b.UserID
	b.Status = string(grading.StatusPending)
	s.bets[b.ID] = *b
	return s.balance, nil
}

func (s *fakeStore) GetBet(_ context.Context, id string) (repo.Bet, error) {
	b, ok := s.bets[id]
	if !ok {
		return repo.Bet{}, repo.ErrNotFound
	}
	return b, nil
}

type fakeGames map[string]gamestate.Game

func (f fakeGames) GetGame(_ context.Context, id string) (gamestate.Game, error) {
	g, ok := f[id]
	if !ok {
		return gamestate.Game{}, markets.ErrUnknownGame
	}
	return g, nil
}

type fakePublisher struct{ placed []events.BetPlaced }

func (p *fakePublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	p.placed = append(p.placed, e)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestServer(balance int64) (*Server, *fakeStore, *fakePublisher) {
	games := fakeGames{
		"open": {ID: "open", League: gamestate.LeagueNBA, Status: gamestate.StatusUpcoming},
		"late": {ID: "late", League: gamestate.LeagueNBA, Status: gamestate.StatusLive,
			HomeScore: gamestate.Score(101), AwayScore: gamestate.Score(95), Period: "Q4", Clock: "0:25",
			Extras: gamestate.LiveExtras{Possession: gamestate.SideHome}},
	}
	store := &fakeStore{balance: balance, bets: map[string]repo.Bet{}}
	pub := &fakePublisher{}
	checker := markets.NewChecker(closure.NewEngine(), nil, games, nil)
	return NewServer(zap.NewNop(), store, checker, pub), store, pub
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bets", strings.NewReader(body)))
	return rec
}

func TestPlaceBet_Accepted(t *testing.T) {
	srv, store, pub := newTestServer(5000)
	rec := post(t, srv.Router(), `{"userId":"u1","betType":"spread","gameId":"open","selection":"home","line":"-3.5","odds":-110,"stake_cents":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.PlaceBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	require.NotNil(t, resp.NewBalance)
	assert.Equal(t, int64(4000), *resp.NewBalance)
	assert.Equal(t, int64(4000), store.balance)

	require.Len(t, pub.placed, 1)
	assert.Equal(t, []string{"open"}, pub.placed[0].GameIDs)
	assert.True(t, store.bets[resp.BetID].Market.Line.Equal(dec("-3.5")))
}

func TestPlaceBet_MarketClosed(t *testing.T) {
	srv, store, pub := newTestServer(5000)
	rec := post(t, srv.Router(), `{"userId":"u1","betType":"moneyline","gameId":"late","selection":"away","odds":300,"stake_cents":1000}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp dto.MarketClosedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "late", resp.GameID)
	assert.Equal(t, string(closure.CategoryTimeThreshold), resp.Category)
	assert.NotEmpty(t, resp.Reason)

	assert.Equal(t, int64(5000), store.balance, "closed market must not debit")
	assert.Empty(t, pub.placed)
}

func TestPlaceBet_ParlayChecksEveryLeg(t *testing.T) {
	srv, _, _ := newTestServer(5000)
	rec := post(t, srv.Router(), `{"userId":"u1","betType":"parlay","stake_cents":500,"legs":[
		{"betType":"moneyline","gameId":"open","selection":"home","odds":-150},
		{"betType":"total","gameId":"late","selection":"over","line":"200.5","odds":-110}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaceBet_Rejections(t *testing.T) {
	cases := map[string]struct {
		body string
		code int
	}{
		"bad json":       {`{`, http.StatusBadRequest},
		"no stake":       {`{"userId":"u1","betType":"moneyline","gameId":"open","selection":"home","odds":100}`, http.StatusBadRequest},
		"bad odds":       {`{"userId":"u1","betType":"moneyline","gameId":"open","selection":"home","odds":50,"stake_cents":10}`, http.StatusBadRequest},
		"bad selection":  {`{"userId":"u1","betType":"total","gameId":"open","selection":"home","odds":100,"stake_cents":10}`, http.StatusBadRequest},
		"single leg":     {`{"userId":"u1","betType":"parlay","stake_cents":10,"legs":[{"betType":"moneyline","gameId":"open","selection":"home","odds":100}]}`, http.StatusBadRequest},
		"unknown game":   {`{"userId":"u1","betType":"moneyline","gameId":"nope","selection":"home","odds":100,"stake_cents":10}`, http.StatusNotFound},
		"low balance":    {`{"userId":"u1","betType":"moneyline","gameId":"open","selection":"home","odds":100,"stake_cents":999999}`, http.StatusConflict},
		"unknown type":   {`{"userId":"u1","betType":"teaser","gameId":"open","selection":"home","odds":100,"stake_cents":10}`, http.StatusBadRequest},
		"game prop yes":  {`{"userId":"u1","betType":"game_prop","gameId":"open","selection":"yes","period":"Q1","odds":100,"stake_cents":10}`, http.StatusBadRequest},
		"prop no player": {`{"userId":"u1","betType":"player_prop","gameId":"open","selection":"over","odds":100,"stake_cents":10}`, http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _, _ := newTestServer(5000)
			rec := post(t, srv.Router(), tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestGetBetStatus(t *testing.T) {
	srv, store, _ := newTestServer(5000)
	store.bets["b1"] = repo.Bet{ID: "b1", Status: "won", PayoutCents: 2500, Reason: "home wins 104-99"}
	h := srv.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bets/b1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.BetStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "won", resp.Status)
	assert.Equal(t, int64(2500), resp.PayoutCents)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bets/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
