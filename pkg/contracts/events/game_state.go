package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Placar de um período isolado ("Q1", "H1", "I7", "S2"...)
type PeriodScore struct {
	Period string `json:"period"`
	Home   int    `json:"home"`
	Away   int    `json:"away"`
}

// Estatística de jogador; period vazio significa jogo inteiro
type PlayerStat struct {
	PlayerID string          `json:"player_id"`
	Stat     string          `json:"stat"`
	Period   string          `json:"period,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// Evento publicado no tópico "game_state_updates" pelo feed de placares
type GameStateUpdate struct {
	GameID         string          `json:"game_id"`
	League         string          `json:"league"`
	Status         string          `json:"status"` // upcoming | live | finished
	ScheduledStart time.Time       `json:"scheduled_start"`
	HomeScore      *int            `json:"home_score,omitempty"`
	AwayScore      *int            `json:"away_score,omitempty"`
	Period         string          `json:"period,omitempty"`
	Clock          string          `json:"clock,omitempty"`
	Extras         json.RawMessage `json:"extras,omitempty"` // detalhes por esporte (posse, outs, sets...)
	Periods        []PeriodScore   `json:"periods,omitempty"`
	PlayerStats    []PlayerStat    `json:"player_stats,omitempty"`
	StatsFinal     bool            `json:"stats_final"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Source         string          `json:"source"`
	Version        int             `json:"version"`
}
