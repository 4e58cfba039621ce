package repo

import (
	"errors"
	"time"

	"github.com/radieske/sports-bet-settlement/internal/grading"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoWallet     = errors.New("wallet not found")
	ErrInvalidState = errors.New("invalid settlement")
)

// Bet é a aposta persistida. Apostas simples usam Market; parlays usam Legs.
type Bet struct {
	ID          string
	UserID      string
	Type        grading.BetType
	Market      grading.Market
	Legs        []Leg
	StakeCents  int64
	Status      grading.Status
	PayoutCents int64
	Reason      string
	SettledAt   *time.Time
	CreatedAt   time.Time
}

// Leg é uma perna de parlay com o veredito próprio
type Leg struct {
	Index  int
	Market grading.Market
	Status grading.Status
	Reason string
}

// Grading converte pro formato aceito pelo motor de graduação
func (b Bet) Grading() grading.Bet {
	out := grading.Bet{ID: b.ID, Type: b.Type, StakeCents: b.StakeCents, Market: b.Market}
	if out.Market.Type == "" {
		out.Market.Type = b.Type
	}
	for _, l := range b.Legs {
		out.Legs = append(out.Legs, l.Market)
	}
	return out
}

// LegResult é o veredito de uma perna aplicado junto com a aposta
type LegResult struct {
	Index  int
	Status grading.Status
	Reason string
}

// Settlement é a unidade atômica "liquidar aposta B com status S e payout P"
type Settlement struct {
	BetID       string
	Status      grading.Status
	PayoutCents int64
	Reason      string
	Legs        []LegResult
	SettledAt   time.Time
}

// Validate garante que só status terminais são aplicados
func (s Settlement) Validate() error {
	if s.BetID == "" || !s.Status.Terminal() || s.PayoutCents < 0 {
		return ErrInvalidState
	}
	return nil
}
