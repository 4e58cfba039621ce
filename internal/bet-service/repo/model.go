package repo

import (
	"errors"
	"time"

	"github.com/radieske/sports-bet-settlement/internal/grading"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoWallet          = errors.New("wallet not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Bet é o modelo persistido no Postgres.
// Apostas simples usam Market; parlays usam Legs (Market fica vazio).
type Bet struct {
	ID          string
	UserID      string
	Type        grading.BetType
	Market      grading.Market
	Legs        []grading.Market
	StakeCents  int64
	Status      string
	PayoutCents int64
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GameIDs lista as partidas que a aposta referencia
func (b Bet) GameIDs() []string {
	return grading.Bet{Type: b.Type, Market: b.Market, Legs: b.Legs}.GameIDs()
}
