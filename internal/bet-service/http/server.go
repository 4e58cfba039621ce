package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/bet-service/dto"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/markets"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/sports-bet-settlement/internal/closure"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

// Store persiste a aposta e debita o stake atomicamente
type Store interface {
	PlaceBet(ctx context.Context, b *repo.Bet) (newBalance int64, err error)
	GetBet(ctx context.Context, betID string) (repo.Bet, error)
}

// MarketChecker devolve *closure.MarketClosedError quando não se aceita aposta na partida
type MarketChecker interface {
	Check(ctx context.Context, gameID string) error
}

type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}

type Server struct {
	log     *zap.Logger
	store   Store
	markets MarketChecker
	publ    Publisher

	OnPlaced   func()       // métricas
	OnRejected func(string) // métricas por motivo
}

func NewServer(log *zap.Logger, s Store, m MarketChecker, p Publisher) *Server {
	return &Server{log: log, store: s, markets: m, publ: p}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.placeBet)      // POST
	mux.HandleFunc("/bets/", s.getBetStatus) // GET /bets/{id}
	return mux
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	bet, err := toBet(req)
	if err != nil {
		s.rejected("invalid")
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	// 1) Mercado aberto em todas as partidas (cada perna, no parlay)
	for _, gameID := range bet.GameIDs() {
		err := s.markets.Check(r.Context(), gameID)
		var closedErr *closure.MarketClosedError
		switch {
		case err == nil:
			continue
		case errors.As(err, &closedErr):
			s.rejected("market_closed")
			writeJSON(w, http.StatusConflict, dto.MarketClosedResponse{
				Error:    "market closed",
				GameID:   closedErr.GameID,
				Reason:   closedErr.Reason,
				Category: string(closedErr.Category),
			})
			return
		case errors.Is(err, markets.ErrUnknownGame):
			s.rejected("unknown_game")
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		default:
			s.log.Error("market check failed", zap.String("gameId", gameID), zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "market state unavailable"})
			return
		}
	}

	// 2) Grava a aposta pendente e debita o stake na mesma transação
	balance, err := s.store.PlaceBet(r.Context(), &bet)
	switch {
	case errors.Is(err, repo.ErrInsufficientFunds):
		s.rejected("insufficient_funds")
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, repo.ErrNoWallet):
		s.rejected("no_wallet")
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		s.log.Error("place bet failed", zap.String("userId", bet.UserID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "could not place bet"})
		return
	}
	if s.OnPlaced != nil {
		s.OnPlaced()
	}

	// 3) Publica evento bet_placed
	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:      bet.ID,
		UserID:     bet.UserID,
		BetType:    string(bet.Type),
		GameIDs:    bet.GameIDs(),
		StakeCents: bet.StakeCents,
		Odds:       bet.Market.Odds,
	}); err != nil {
		s.log.Warn("publish bet_placed failed", zap.String("betId", bet.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, dto.PlaceBetResponse{
		BetID:      bet.ID,
		Status:     bet.Status,
		NewBalance: &balance,
	})
}

func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// path: /bets/{id}
	id := r.URL.Path[len("/bets/"):]
	if id == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}

	b, err := s.store.GetBet(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get bet failed", zap.String("betId", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dto.BetStatusResponse{
		BetID:       id,
		Status:      b.Status,
		PayoutCents: b.PayoutCents,
		Reason:      b.Reason,
	})
}

func (s *Server) rejected(reason string) {
	if s.OnRejected != nil {
		s.OnRejected(reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
