package grading

import (
	"errors"

	"github.com/shopspring/decimal"
)

// BetType é o tipo de aposta
type BetType string

const (
	TypeSpread     BetType = "spread"
	TypeMoneyline  BetType = "moneyline"
	TypeTotal      BetType = "total"
	TypePlayerProp BetType = "player_prop"
	TypeGameProp   BetType = "game_prop"
	TypeParlay     BetType = "parlay"
)

// Valid indica um tipo conhecido
func (t BetType) Valid() bool {
	switch t {
	case TypeSpread, TypeMoneyline, TypeTotal, TypePlayerProp, TypeGameProp, TypeParlay:
		return true
	}
	return false
}

// Status de aposta e de perna
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusPush    Status = "push"
	StatusVoid    Status = "void"
)

// Terminal indica que a aposta já foi liquidada e nunca mais é graduada
func (s Status) Terminal() bool {
	switch s {
	case StatusWon, StatusLost, StatusPush, StatusVoid:
		return true
	}
	return false
}

// Refund indica devolução do stake (push e void pagam igual)
func (s Status) Refund() bool { return s == StatusPush || s == StatusVoid }

// Selection é o lado escolhido pelo apostador
type Selection string

const (
	SelectHome  Selection = "home"
	SelectAway  Selection = "away"
	SelectDraw  Selection = "draw"
	SelectOver  Selection = "over"
	SelectUnder Selection = "under"
)

// Market descreve uma aposta simples (ou uma perna de parlay)
type Market struct {
	Type      BetType         `json:"type"`
	GameID    string          `json:"gameId"`
	Selection Selection       `json:"selection"`
	Line      decimal.Decimal `json:"line"`
	Odds      int             `json:"odds"` // americana (+150, -110)

	// props
	PlayerID string `json:"playerId,omitempty"`
	Stat     string `json:"stat,omitempty"`
	Period   string `json:"period,omitempty"`
}

// Verdict é o resultado da graduação de uma aposta simples
type Verdict struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

var (
	// ErrGameNotFinished: o resultado ainda não é autoritativo
	ErrGameNotFinished = errors.New("game not finished")
	// ErrResultPending: estatística ausente mas a súmula ainda não foi fechada pelo feed
	ErrResultPending = errors.New("result data pending")
	// ErrParlayIncomplete: alguma perna referencia partida ainda não encerrada
	ErrParlayIncomplete = errors.New("parlay has unfinished legs")
	ErrInvalidSelection = errors.New("invalid selection")
	ErrUnknownBetType   = errors.New("unknown bet type")
	ErrInvalidOdds      = errors.New("invalid odds")
)
