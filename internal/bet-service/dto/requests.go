package dto

import "github.com/shopspring/decimal"

// PlaceBetRequest é uma aposta simples (campos de mercado na raiz) ou um parlay (Legs)
type PlaceBetRequest struct {
	UserID     string          `json:"userId"`
	BetType    string          `json:"betType"` // spread | moneyline | total | player_prop | game_prop | parlay
	GameID     string          `json:"gameId,omitempty"`
	Selection  string          `json:"selection,omitempty"` // home | away | draw | over | under
	Line       decimal.Decimal `json:"line"`
	Odds       int             `json:"odds,omitempty"` // americana, odd que o cliente viu
	PlayerID   string          `json:"playerId,omitempty"`
	Stat       string          `json:"stat,omitempty"`
	Period     string          `json:"period,omitempty"`
	StakeCents int64           `json:"stake_cents"`
	Legs       []LegRequest    `json:"legs,omitempty"`
}

// LegRequest é uma perna de parlay
type LegRequest struct {
	BetType   string          `json:"betType"`
	GameID    string          `json:"gameId"`
	Selection string          `json:"selection"`
	Line      decimal.Decimal `json:"line"`
	Odds      int             `json:"odds"`
	PlayerID  string          `json:"playerId,omitempty"`
	Stat      string          `json:"stat,omitempty"`
	Period    string          `json:"period,omitempty"`
}
