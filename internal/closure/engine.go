package closure

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// Rule avalia uma partida ao vivo de uma liga específica.
// Um erro devolvido pela regra fecha o mercado (fail-closed).
type Rule interface {
	Evaluate(g gamestate.Game) (Decision, error)
}

// noRule é a variante explícita pra ligas sem regras: mercado aberto (fail-open)
type noRule struct{}

func (noRule) Evaluate(g gamestate.Game) (Decision, error) {
	return open(fmt.Sprintf("no closure rules defined for league %s", g.League)), nil
}

// Engine despacha a avaliação de fechamento por liga
type Engine struct {
	rules map[gamestate.League]Rule
	log   *zap.Logger
}

// Option customiza o Engine
type Option func(*Engine)

// WithRule substitui (ou adiciona) a regra de uma liga
func WithRule(l gamestate.League, r Rule) Option {
	return func(e *Engine) { e.rules[l] = r }
}

// WithLogger registra falhas de avaliação
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine cria o motor com as regras padrão de cada liga conhecida
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules: DefaultRules(),
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// DefaultRules monta o conjunto fechado de regras por liga
func DefaultRules() map[gamestate.League]Rule {
	nba := NewBasketballRule(NBAThresholds())
	college := NewBasketballRule(NCAABThresholds())
	nfl := NewFootballRule(FootballThresholds())
	soccer := NewSoccerRule(DefaultSoccerThresholds())
	tennis := NewTennisRule(DefaultTennisThresholds())

	return map[gamestate.League]Rule{
		gamestate.LeagueNBA:   nba,
		gamestate.LeagueWNBA:  nba,
		gamestate.LeagueNCAAB: college,
		gamestate.LeagueNFL:   nfl,
		gamestate.LeagueNCAAF: nfl,
		gamestate.LeagueMLB:   NewBaseballRule(DefaultBaseballThresholds()),
		gamestate.LeagueNHL:   NewHockeyRule(HockeyThresholds()),
		gamestate.LeagueEPL:   soccer,
		gamestate.LeagueMLS:   soccer,
		gamestate.LeagueUCL:   soccer,
		gamestate.LeagueATP:   tennis,
		gamestate.LeagueWTA:   tennis,
	}
}

func (e *Engine) ruleFor(l gamestate.League) Rule {
	if r, ok := e.rules[l]; ok && r != nil {
		return r
	}
	return noRule{}
}

// ShouldClose decide se o mercado da partida deve recusar novas apostas
func (e *Engine) ShouldClose(g gamestate.Game) Decision {
	switch g.Status {
	case gamestate.StatusUpcoming:
		return open("game has not started")
	case gamestate.StatusFinished:
		return closed(CategoryCommercialCertainty, "game is finished")
	case gamestate.StatusLive:
		return e.evaluate(g)
	}
	// status desconhecido é indeterminado: não aceita aposta
	return closed(CategoryCommercialCertainty, "game status %q is not bettable", g.Status)
}

// evaluate roda a regra da liga convertendo panic/erro em mercado fechado
func (e *Engine) evaluate(g gamestate.Game) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Warn("closure rule panicked",
				zap.String("gameId", g.ID),
				zap.String("league", string(g.League)),
				zap.Any("panic", rec),
			)
			d = indeterminate()
		}
	}()

	d, err := e.ruleFor(g.League).Evaluate(g)
	if err != nil {
		e.log.Warn("closure rule failed",
			zap.String("gameId", g.ID),
			zap.String("league", string(g.League)),
			zap.Error(err),
		)
		return indeterminate()
	}
	return d
}

func indeterminate() Decision {
	return closed(CategoryCommercialCertainty, "market temporarily unavailable")
}

// ValidateBetPlacement é o ponto único usado pela colocação de apostas.
// nil libera a aposta; *MarketClosedError traz o motivo a ser exibido ao apostador.
func (e *Engine) ValidateBetPlacement(g gamestate.Game) error {
	d := e.ShouldClose(g)
	if !d.Closed {
		return nil
	}
	return &MarketClosedError{GameID: g.ID, Reason: d.Reason, Category: d.Category}
}
