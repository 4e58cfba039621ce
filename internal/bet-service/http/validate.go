package http

import (
	"errors"
	"fmt"

	"github.com/radieske/sports-bet-settlement/internal/bet-service/dto"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/sports-bet-settlement/internal/grading"
)

const maxParlayLegs = 12

// toBet valida o payload e monta a aposta a ser gravada
func toBet(req dto.PlaceBetRequest) (repo.Bet, error) {
	if req.UserID == "" {
		return repo.Bet{}, errors.New("userId required")
	}
	if req.StakeCents <= 0 {
		return repo.Bet{}, errors.New("stake_cents must be positive")
	}
	typ := grading.BetType(req.BetType)
	if !typ.Valid() {
		return repo.Bet{}, fmt.Errorf("unknown betType %q", req.BetType)
	}

	b := repo.Bet{UserID: req.UserID, Type: typ, StakeCents: req.StakeCents}
	if typ != grading.TypeParlay {
		m := grading.Market{
			Type: typ, GameID: req.GameID, Selection: grading.Selection(req.Selection),
			Line: req.Line, Odds: req.Odds,
			PlayerID: req.PlayerID, Stat: req.Stat, Period: req.Period,
		}
		if err := validateMarket(m); err != nil {
			return repo.Bet{}, err
		}
		b.Market = m
		return b, nil
	}

	if len(req.Legs) < 2 || len(req.Legs) > maxParlayLegs {
		return repo.Bet{}, fmt.Errorf("parlay needs 2..%d legs", maxParlayLegs)
	}
	for i, l := range req.Legs {
		m := grading.Market{
			Type: grading.BetType(l.BetType), GameID: l.GameID, Selection: grading.Selection(l.Selection),
			Line: l.Line, Odds: l.Odds,
			PlayerID: l.PlayerID, Stat: l.Stat, Period: l.Period,
		}
		if m.Type == grading.TypeParlay {
			return repo.Bet{}, fmt.Errorf("leg %d: nested parlay", i)
		}
		if err := validateMarket(m); err != nil {
			return repo.Bet{}, fmt.Errorf("leg %d: %w", i, err)
		}
		b.Legs = append(b.Legs, m)
	}
	return b, nil
}

func validateMarket(m grading.Market) error {
	if !m.Type.Valid() {
		return fmt.Errorf("unknown betType %q", m.Type)
	}
	if m.GameID == "" {
		return errors.New("gameId required")
	}
	if _, err := grading.DecimalOdds(m.Odds); err != nil {
		return err
	}
	switch m.Type {
	case grading.TypeMoneyline:
		if m.Selection != grading.SelectHome && m.Selection != grading.SelectAway && m.Selection != grading.SelectDraw {
			return fmt.Errorf("%w: %q", grading.ErrInvalidSelection, m.Selection)
		}
	case grading.TypeSpread:
		if m.Selection != grading.SelectHome && m.Selection != grading.SelectAway {
			return fmt.Errorf("%w: %q", grading.ErrInvalidSelection, m.Selection)
		}
	case grading.TypeTotal:
		if m.Selection != grading.SelectOver && m.Selection != grading.SelectUnder {
			return fmt.Errorf("%w: %q", grading.ErrInvalidSelection, m.Selection)
		}
	case grading.TypePlayerProp:
		if m.PlayerID == "" || m.Stat == "" {
			return errors.New("playerId and stat required")
		}
		if m.Selection != grading.SelectOver && m.Selection != grading.SelectUnder {
			return fmt.Errorf("%w: %q", grading.ErrInvalidSelection, m.Selection)
		}
	case grading.TypeGameProp:
		if m.Period == "" {
			return errors.New("period required")
		}
		// mesmas seleções que grading.GameProp sabe graduar
		switch m.Selection {
		case grading.SelectHome, grading.SelectAway, grading.SelectDraw, grading.SelectOver, grading.SelectUnder:
		default:
			return fmt.Errorf("%w: %q", grading.ErrInvalidSelection, m.Selection)
		}
	}
	return nil
}
