package grading

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

func won(format string, args ...any) Verdict {
	return Verdict{Status: StatusWon, Reason: fmt.Sprintf(format, args...)}
}

func lost(format string, args ...any) Verdict {
	return Verdict{Status: StatusLost, Reason: fmt.Sprintf(format, args...)}
}

func push(format string, args ...any) Verdict {
	return Verdict{Status: StatusPush, Reason: fmt.Sprintf(format, args...)}
}

func void(format string, args ...any) Verdict {
	return Verdict{Status: StatusVoid, Reason: fmt.Sprintf(format, args...)}
}

// GradeMarket despacha pelo tipo da aposta simples
func GradeMarket(m Market, r gamestate.Result) (Verdict, error) {
	if !r.Finished() {
		return Verdict{}, fmt.Errorf("%w: %s", ErrGameNotFinished, r.GameID)
	}
	switch m.Type {
	case TypeMoneyline:
		return Moneyline(m.Selection, r)
	case TypeSpread:
		return Spread(m.Selection, m.Line, r)
	case TypeTotal:
		return Total(m.Selection, m.Line, r)
	case TypePlayerProp:
		return PlayerProp(m.Selection, m.Line, m.PlayerID, m.Stat, m.Period, r)
	case TypeGameProp:
		return GameProp(m.Selection, m.Line, m.Period, r)
	}
	return Verdict{}, fmt.Errorf("%w: %q", ErrUnknownBetType, m.Type)
}

// Moneyline: placares iguais dão push, exceto a seleção "draw" (três vias), que ganha no empate
func Moneyline(sel Selection, r gamestate.Result) (Verdict, error) {
	return moneyline(sel, gamestate.PeriodScore{Home: r.HomeScore, Away: r.AwayScore})
}

func moneyline(sel Selection, s gamestate.PeriodScore) (Verdict, error) {
	if sel == SelectDraw {
		if s.Home == s.Away {
			return won("draw %d-%d", s.Home, s.Away), nil
		}
		return lost("no draw %d-%d", s.Home, s.Away), nil
	}
	mine, theirs, err := sides(sel, s)
	if err != nil {
		return Verdict{}, err
	}
	switch {
	case mine > theirs:
		return won("%s won %d-%d", sel, mine, theirs), nil
	case mine < theirs:
		return lost("%s lost %d-%d", sel, mine, theirs), nil
	}
	return push("tied %d-%d", mine, theirs), nil
}

// Spread soma a linha ao placar do lado escolhido; igualdade exata é push
func Spread(sel Selection, line decimal.Decimal, r gamestate.Result) (Verdict, error) {
	return spread(sel, line, gamestate.PeriodScore{Home: r.HomeScore, Away: r.AwayScore})
}

func spread(sel Selection, line decimal.Decimal, s gamestate.PeriodScore) (Verdict, error) {
	mine, theirs, err := sides(sel, s)
	if err != nil {
		return Verdict{}, err
	}
	adjusted := decimal.NewFromInt(int64(mine)).Add(line)
	other := decimal.NewFromInt(int64(theirs))
	switch adjusted.Cmp(other) {
	case 1:
		return won("%s %s covers (%s vs %d)", sel, line, adjusted, theirs), nil
	case -1:
		return lost("%s %s does not cover (%s vs %d)", sel, line, adjusted, theirs), nil
	}
	return push("%s %s lands on the number", sel, line), nil
}

// Total compara o placar combinado com a linha
func Total(sel Selection, line decimal.Decimal, r gamestate.Result) (Verdict, error) {
	return overUnder(sel, line, decimal.NewFromInt(int64(r.HomeScore+r.AwayScore)), "total")
}

// PlayerProp compara a estatística do jogador com a linha.
// Estatística ausente numa súmula final é void; sem súmula final a aposta continua pendente.
func PlayerProp(sel Selection, line decimal.Decimal, playerID, stat, period string, r gamestate.Result) (Verdict, error) {
	v, ok := r.PlayerStat(playerID, stat, period)
	if !ok {
		if !r.StatsFinal {
			return Verdict{}, fmt.Errorf("%w: %s %s", ErrResultPending, playerID, stat)
		}
		return void("%s for %s not available", stat, playerID), nil
	}
	return overUnder(sel, line, v, fmt.Sprintf("%s %s", playerID, stat))
}

// GameProp aplica a mesma lógica (total, spread ou empate) restrita a um período.
// Período que não terminou ou sem dados dá void.
func GameProp(sel Selection, line decimal.Decimal, period string, r gamestate.Result) (Verdict, error) {
	s, ok := r.PeriodScore(period)
	if !ok {
		return void("period %s not available", gamestate.NormalizePeriodKey(period)), nil
	}
	switch sel {
	case SelectOver, SelectUnder:
		return overUnder(sel, line, decimal.NewFromInt(int64(s.Total())), "period "+gamestate.NormalizePeriodKey(period))
	case SelectDraw:
		return moneyline(sel, s)
	}
	return spread(sel, line, s)
}

func overUnder(sel Selection, line, value decimal.Decimal, what string) (Verdict, error) {
	var c int
	switch sel {
	case SelectOver:
		c = value.Cmp(line)
	case SelectUnder:
		c = line.Cmp(value)
	default:
		return Verdict{}, fmt.Errorf("%w: %q for over/under", ErrInvalidSelection, sel)
	}
	switch c {
	case 1:
		return won("%s %s %s (%s)", what, sel, line, value), nil
	case -1:
		return lost("%s %s %s (%s)", what, sel, line, value), nil
	}
	return push("%s landed on %s", what, line), nil
}

func sides(sel Selection, s gamestate.PeriodScore) (mine, theirs int, err error) {
	switch sel {
	case SelectHome:
		return s.Home, s.Away, nil
	case SelectAway:
		return s.Away, s.Home, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidSelection, sel)
}
