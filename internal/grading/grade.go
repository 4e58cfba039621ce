package grading

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// Bet é a visão de uma aposta que a graduação precisa
type Bet struct {
	ID         string
	Type       BetType
	StakeCents int64
	Market     Market   // apostas simples
	Legs       []Market // parlay, na ordem original
}

// GameIDs lista as partidas referenciadas, sem repetição
func (b Bet) GameIDs() []string {
	if b.Type != TypeParlay {
		return []string{b.Market.GameID}
	}
	seen := make(map[string]struct{}, len(b.Legs))
	out := make([]string, 0, len(b.Legs))
	for _, l := range b.Legs {
		if _, ok := seen[l.GameID]; ok {
			continue
		}
		seen[l.GameID] = struct{}{}
		out = append(out, l.GameID)
	}
	return out
}

// Outcome é o veredito final pronto pra liquidação
type Outcome struct {
	Status      Status
	Reason      string
	Multiplier  decimal.Decimal
	PayoutCents int64
	Legs        []LegVerdict
}

// Grade gradua a aposta contra os resultados disponíveis (indexados por game id)
func Grade(b Bet, results map[string]gamestate.Result) (Outcome, error) {
	if b.Type == TypeParlay {
		pv, err := Parlay(b.Legs, results)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{
			Status:      pv.Status,
			Reason:      pv.Reason,
			Multiplier:  pv.Multiplier,
			PayoutCents: Payout(b.StakeCents, pv.Status, pv.Multiplier),
			Legs:        pv.Legs,
		}, nil
	}

	r, ok := results[b.Market.GameID]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrGameNotFinished, b.Market.GameID)
	}
	m := b.Market
	if m.Type == "" {
		m.Type = b.Type
	}
	v, err := GradeMarket(m, r)
	if err != nil {
		return Outcome{}, err
	}
	mult, err := Multiplier(v.Status, m.Odds)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Status:      v.Status,
		Reason:      v.Reason,
		Multiplier:  mult,
		PayoutCents: Payout(b.StakeCents, v.Status, mult),
	}, nil
}
