package closure

import (
	"fmt"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// SoccerThresholds: no futebol o relógio é progressivo (minutos decorridos)
type SoccerThresholds struct {
	RegulationMinutes int
	ExtraTimeMinutes  int
	HardFloor         int
	Margins           []MarginRule
}

func DefaultSoccerThresholds() SoccerThresholds {
	return SoccerThresholds{
		RegulationMinutes: 90,
		ExtraTimeMinutes:  120,
		HardFloor:         60,
		Margins:           []MarginRule{{Within: 300, Exceeds: 1}, {Within: 900, Exceeds: 2}},
	}
}

type soccerRule struct {
	th SoccerThresholds
}

func NewSoccerRule(th SoccerThresholds) Rule {
	return &soccerRule{th: th}
}

func (r *soccerRule) Evaluate(g gamestate.Game) (Decision, error) {
	p := gamestate.ParsePeriod(g.Period)
	if !p.Overtime && p.Number < 2 {
		return open(fmt.Sprintf("soccer: outside closing period (%s)", g.Period)), nil
	}

	// acréscimo fecha em definitivo, antes de qualquer leitura do relógio
	if g.Extras.StoppageTime || gamestate.IsStoppageClock(g.Clock) {
		return closed(CategoryGameContext, "stoppage time"), nil
	}

	elapsed, err := g.ClockSeconds()
	if err != nil {
		return Decision{}, fmt.Errorf("soccer clock: %w", err)
	}

	end := r.th.RegulationMinutes * 60
	if p.Overtime {
		end = r.th.ExtraTimeMinutes * 60
	}
	if elapsed >= end {
		return closed(CategoryGameContext, "stoppage time"), nil
	}

	remaining := end - elapsed
	if remaining <= r.th.HardFloor {
		return closed(CategoryTimeThreshold, "%d seconds remaining in regulation", remaining), nil
	}

	margin := g.Margin()
	for _, m := range r.th.Margins {
		if remaining <= m.Within && margin > m.Exceeds {
			return closed(CategoryScoreMargin,
				"%s leads by %d with %d minutes remaining", g.Leader(), margin, remaining/60), nil
		}
	}
	return open(fmt.Sprintf("soccer: %d seconds remaining, margin %d", remaining, margin)), nil
}
