package closure

import (
	"fmt"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// MarginRule fecha quando restam no máximo Within segundos e a vantagem é maior que Exceeds
type MarginRule struct {
	Within  int
	Exceeds int
}

// TimedThresholds parametriza esportes de relógio regressivo (basquete, futebol americano, hóquei)
type TimedThresholds struct {
	// período a partir do qual as regras valem (último período regular); prorrogação sempre vale
	ClosingPeriod int
	// piso absoluto em segundos: fecha sem olhar placar
	HardFloor int
	// janela em que o lado que lidera e tem a posse fecha o mercado
	ControlWindow int
	Margins       []MarginRule
}

// NBAThresholds também serve pra WNBA
func NBAThresholds() TimedThresholds {
	return TimedThresholds{
		ClosingPeriod: 4,
		HardFloor:     30,
		ControlWindow: 60,
		Margins:       []MarginRule{{Within: 120, Exceeds: 12}, {Within: 300, Exceeds: 25}},
	}
}

// NCAABThresholds: basquete universitário joga dois tempos
func NCAABThresholds() TimedThresholds {
	t := NBAThresholds()
	t.ClosingPeriod = 2
	return t
}

func FootballThresholds() TimedThresholds {
	return TimedThresholds{
		ClosingPeriod: 4,
		HardFloor:     30,
		ControlWindow: 90,
		Margins:       []MarginRule{{Within: 120, Exceeds: 8}, {Within: 300, Exceeds: 16}},
	}
}

func HockeyThresholds() TimedThresholds {
	return TimedThresholds{
		ClosingPeriod: 3,
		HardFloor:     30,
		ControlWindow: 60,
		Margins:       []MarginRule{{Within: 120, Exceeds: 1}, {Within: 300, Exceeds: 2}},
	}
}

// contextFunc avalia situações terminais próprias do esporte depois das regras de relógio
type contextFunc func(g gamestate.Game, remaining int) (Decision, bool)

type timedRule struct {
	sport   gamestate.Sport
	th      TimedThresholds
	context contextFunc
}

func NewBasketballRule(th TimedThresholds) Rule {
	return &timedRule{sport: gamestate.SportBasketball, th: th}
}

func NewFootballRule(th TimedThresholds) Rule {
	return &timedRule{sport: gamestate.SportFootball, th: th}
}

func NewHockeyRule(th TimedThresholds) Rule {
	return &timedRule{sport: gamestate.SportHockey, th: th, context: goaliePulled}
}

func (r *timedRule) inClosingPeriod(g gamestate.Game) bool {
	p := gamestate.ParsePeriod(g.Period)
	return p.Overtime || p.Number >= r.th.ClosingPeriod
}

func (r *timedRule) Evaluate(g gamestate.Game) (Decision, error) {
	if !r.inClosingPeriod(g) {
		return open(fmt.Sprintf("%s: outside closing period (%s)", r.sport, g.Period)), nil
	}

	remaining, err := g.ClockSeconds()
	if err != nil {
		return Decision{}, fmt.Errorf("%s clock: %w", r.sport, err)
	}

	if remaining <= r.th.HardFloor {
		return closed(CategoryTimeThreshold, "%d seconds remaining in %s", remaining, g.Period), nil
	}

	leader := g.Leader()
	if remaining <= r.th.ControlWindow && leader != gamestate.SideNone && g.Extras.Possession == leader {
		return closed(CategoryGameContext,
			"%s leads by %d with possession and %d seconds remaining", leader, g.Margin(), remaining), nil
	}

	margin := g.Margin()
	for _, m := range r.th.Margins {
		if remaining <= m.Within && margin > m.Exceeds {
			return closed(CategoryScoreMargin,
				"%s leads by %d with %d seconds remaining", leader, margin, remaining), nil
		}
	}

	if r.context != nil {
		if d, ok := r.context(g, remaining); ok {
			return d, nil
		}
	}
	return open(fmt.Sprintf("%s: %d seconds remaining, margin %d", r.sport, remaining, margin)), nil
}

// goaliePulled: goleiro tirado pelo lado que perde por dois ou mais gols
func goaliePulled(g gamestate.Game, _ int) (Decision, bool) {
	pulled := g.Extras.GoaliePulled
	if pulled == gamestate.SideNone {
		return Decision{}, false
	}
	if g.Leader() != pulled.Opposite() || g.Margin() < 2 {
		return Decision{}, false
	}
	return closed(CategoryGameContext,
		"%s pulled the goalie trailing by %d", pulled, g.Margin()), true
}
