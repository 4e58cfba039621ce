package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

var ErrInvalidUpdate = errors.New("invalid game state update")

// ToGame valida o evento do feed e separa snapshot (Game) e detalhes de resultado
// (placares por período, estatísticas e StatsFinal)
func ToGame(ev events.GameStateUpdate) (gamestate.Game, gamestate.Result, error) {
	if ev.GameID == "" {
		return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: missing game_id", ErrInvalidUpdate)
	}
	league := gamestate.ParseLeague(ev.League)
	if league == "" {
		return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: missing league", ErrInvalidUpdate)
	}
	status := gamestate.Status(ev.Status)
	if !status.Valid() {
		return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: status %q", ErrInvalidUpdate, ev.Status)
	}
	if (ev.HomeScore != nil && *ev.HomeScore < 0) || (ev.AwayScore != nil && *ev.AwayScore < 0) {
		return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: negative score", ErrInvalidUpdate)
	}
	if status == gamestate.StatusFinished && (ev.HomeScore == nil || ev.AwayScore == nil) {
		return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: finished without final score", ErrInvalidUpdate)
	}

	g := gamestate.Game{
		ID:             ev.GameID,
		League:         league,
		Status:         status,
		ScheduledStart: ev.ScheduledStart.UTC(),
		HomeScore:      ev.HomeScore,
		AwayScore:      ev.AwayScore,
		Period:         ev.Period,
		Clock:          ev.Clock,
		UpdatedAt:      ev.UpdatedAt.UTC(),
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = time.Now().UTC()
	}
	if len(ev.Extras) > 0 && string(ev.Extras) != "null" {
		if err := json.Unmarshal(ev.Extras, &g.Extras); err != nil {
			return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: extras: %v", ErrInvalidUpdate, err)
		}
	}

	detail := gamestate.Result{GameID: g.ID, League: league, Status: status, StatsFinal: ev.StatsFinal}
	for _, p := range ev.Periods {
		if p.Period == "" || p.Home < 0 || p.Away < 0 {
			return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: period %q", ErrInvalidUpdate, p.Period)
		}
		detail.SetPeriod(p.Period, gamestate.PeriodScore{Home: p.Home, Away: p.Away})
	}
	for _, s := range ev.PlayerStats {
		if s.PlayerID == "" || s.Stat == "" {
			return gamestate.Game{}, gamestate.Result{}, fmt.Errorf("%w: player stat without id", ErrInvalidUpdate)
		}
		detail.SetPlayerStat(s.PlayerID, s.Stat, s.Period, s.Value)
	}
	return g, detail, nil
}
