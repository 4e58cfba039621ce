package gamestate

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PeriodScore é o placar de um período isolado
type PeriodScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Total soma os dois lados
func (p PeriodScore) Total() int { return p.Home + p.Away }

// StatKey identifica uma estatística de jogador num período
type StatKey struct {
	PlayerID string `json:"playerId"`
	Stat     string `json:"stat"`
	Period   string `json:"period"`
}

// NewStatKey normaliza os campos pra comparação
func NewStatKey(playerID, stat, period string) StatKey {
	return StatKey{
		PlayerID: strings.TrimSpace(playerID),
		Stat:     strings.ToLower(strings.TrimSpace(stat)),
		Period:   NormalizePeriodKey(period),
	}
}

// Result é o resultado autoritativo de uma partida encerrada, usado na graduação das apostas.
// StatsFinal indica que o feed declarou a súmula completa: estatística ausente passa a
// significar "não jogou / não reportado" e não "ainda não chegou".
type Result struct {
	GameID      string                      `json:"gameId"`
	League      League                      `json:"league"`
	Status      Status                      `json:"status"`
	HomeScore   int                         `json:"homeScore"`
	AwayScore   int                         `json:"awayScore"`
	Periods     map[string]PeriodScore      `json:"periods,omitempty"`
	PlayerStats map[StatKey]decimal.Decimal `json:"-"`
	StatsFinal  bool                        `json:"statsFinal"`
}

// ResultFromGame monta um Result a partir do snapshot final
func ResultFromGame(g Game) Result {
	h, a := g.Scores()
	return Result{
		GameID:      g.ID,
		League:      g.League,
		Status:      g.Status,
		HomeScore:   h,
		AwayScore:   a,
		Periods:     map[string]PeriodScore{},
		PlayerStats: map[StatKey]decimal.Decimal{},
	}
}

// Finished indica resultado autoritativo
func (r Result) Finished() bool { return r.Status == StatusFinished }

// SetPeriod registra o placar de um período
func (r *Result) SetPeriod(key string, s PeriodScore) {
	if r.Periods == nil {
		r.Periods = map[string]PeriodScore{}
	}
	r.Periods[NormalizePeriodKey(key)] = s
}

// SetPlayerStat registra uma estatística
func (r *Result) SetPlayerStat(playerID, stat, period string, v decimal.Decimal) {
	if r.PlayerStats == nil {
		r.PlayerStats = map[StatKey]decimal.Decimal{}
	}
	r.PlayerStats[NewStatKey(playerID, stat, period)] = v
}

// PeriodScore retorna o placar do período pedido.
// "FG" é o placar final; meias (H1/H2) são derivadas dos quartos quando o feed não as reporta.
func (r Result) PeriodScore(key string) (PeriodScore, bool) {
	k := NormalizePeriodKey(key)
	if k == PeriodFullGame {
		return PeriodScore{Home: r.HomeScore, Away: r.AwayScore}, true
	}
	if s, ok := r.Periods[k]; ok {
		return s, true
	}
	switch k {
	case PeriodH1:
		return r.sumPeriods(PeriodQ1, PeriodQ2)
	case PeriodH2:
		return r.sumPeriods(PeriodQ3, PeriodQ4)
	}
	return PeriodScore{}, false
}

func (r Result) sumPeriods(keys ...string) (PeriodScore, bool) {
	var out PeriodScore
	for _, k := range keys {
		s, ok := r.Periods[k]
		if !ok {
			return PeriodScore{}, false
		}
		out.Home += s.Home
		out.Away += s.Away
	}
	return out, true
}

// PlayerStat retorna a estatística do jogador no período (FG por padrão)
func (r Result) PlayerStat(playerID, stat, period string) (decimal.Decimal, bool) {
	v, ok := r.PlayerStats[NewStatKey(playerID, stat, period)]
	return v, ok
}
