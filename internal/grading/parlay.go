package grading

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// LegVerdict é o veredito de uma perna com o multiplicador que ela contribui
type LegVerdict struct {
	Verdict
	Multiplier decimal.Decimal `json:"multiplier"`
}

// ParlayVerdict agrega as pernas
type ParlayVerdict struct {
	Verdict
	Multiplier decimal.Decimal
	Legs       []LegVerdict
}

// Parlay gradua todas as pernas e agrega:
//   - qualquer perna perdida: parlay perdido;
//   - todas ganhas/push/void com ao menos uma ganha: ganho, multiplicador só das pernas ganhas;
//   - todas push/void: push (stake devolvido).
//
// Se alguma partida referenciada não terminou, nada é graduado (ErrParlayIncomplete).
func Parlay(legs []Market, results map[string]gamestate.Result) (ParlayVerdict, error) {
	if len(legs) == 0 {
		return ParlayVerdict{}, fmt.Errorf("%w: parlay without legs", ErrInvalidSelection)
	}
	for _, l := range legs {
		r, ok := results[l.GameID]
		if !ok || !r.Finished() {
			return ParlayVerdict{}, fmt.Errorf("%w: game %s", ErrParlayIncomplete, l.GameID)
		}
	}

	out := ParlayVerdict{Legs: make([]LegVerdict, 0, len(legs)), Multiplier: decimal.NewFromInt(1)}
	var nWon, nLost int
	for i, l := range legs {
		v, err := GradeMarket(l, results[l.GameID])
		if err != nil {
			return ParlayVerdict{}, fmt.Errorf("leg %d: %w", i, err)
		}
		m, err := Multiplier(v.Status, l.Odds)
		if err != nil {
			return ParlayVerdict{}, fmt.Errorf("leg %d: %w", i, err)
		}
		out.Legs = append(out.Legs, LegVerdict{Verdict: v, Multiplier: m})

		switch v.Status {
		case StatusWon:
			nWon++
			out.Multiplier = out.Multiplier.Mul(m)
		case StatusLost:
			nLost++
		}
	}

	switch {
	case nLost > 0:
		out.Verdict = lost("%d of %d legs lost", nLost, len(legs))
		out.Multiplier = decimal.Zero
	case nWon > 0:
		out.Verdict = won("%d of %d legs won, %d refunded", nWon, len(legs), len(legs)-nWon)
	default:
		out.Verdict = push("all %d legs refunded", len(legs))
	}
	return out, nil
}
