package closure

import (
	"fmt"
	"strings"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// BaseballThresholds: beisebol não tem relógio, as regras olham entrada, metade e eliminações
type BaseballThresholds struct {
	ClosingInning int
	// vantagem (em corridas) que encerra o mercado a partir da entrada de fechamento
	RunMargin int
}

func DefaultBaseballThresholds() BaseballThresholds {
	return BaseballThresholds{ClosingInning: 9, RunMargin: 5}
}

type baseballRule struct {
	th BaseballThresholds
}

func NewBaseballRule(th BaseballThresholds) Rule {
	return &baseballRule{th: th}
}

func (r *baseballRule) Evaluate(g gamestate.Game) (Decision, error) {
	inning := g.Extras.Inning
	if inning == 0 {
		inning = gamestate.ParsePeriod(g.Period).Number
	}
	if inning < r.th.ClosingInning {
		return open(fmt.Sprintf("baseball: inning %d", inning)), nil
	}

	half := g.Extras.Half
	if half == "" {
		half = halfFromLabel(g.Period)
	}
	if g.Extras.Outs < 0 || g.Extras.Outs > 3 {
		return Decision{}, fmt.Errorf("baseball: invalid outs %d", g.Extras.Outs)
	}

	home, away := g.Scores()
	if half == gamestate.HalfBottom && g.Extras.Outs == 2 && home >= away {
		return closed(CategoryGameContext,
			"two outs in the bottom of inning %d with home %s", inning, aheadOrTied(home, away)), nil
	}

	if m := g.Margin(); m > r.th.RunMargin {
		return closed(CategoryScoreMargin, "%s leads by %d runs in inning %d", g.Leader(), m, inning), nil
	}
	return open(fmt.Sprintf("baseball: inning %d %s, margin %d", inning, half, g.Margin())), nil
}

func halfFromLabel(label string) gamestate.HalfInning {
	s := strings.ToLower(label)
	switch {
	case strings.HasPrefix(s, "bot"), strings.HasPrefix(s, "b"):
		return gamestate.HalfBottom
	case strings.HasPrefix(s, "top"), strings.HasPrefix(s, "t"):
		return gamestate.HalfTop
	}
	return ""
}

func aheadOrTied(home, away int) string {
	if home == away {
		return "tied"
	}
	return "ahead"
}
