package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
)

// Transition descreve o efeito de uma atualização aplicada
type Transition struct {
	Prev    gamestate.Status // vazio se a partida é nova
	Game    gamestate.Game   // estado gravado
	Applied bool             // false: atualização descartada (regressão ou versão antiga)
}

// JustFinished indica que a partida acabou de passar pra finished
func (t Transition) JustFinished() bool {
	return t.Applied && t.Game.Status == gamestate.StatusFinished && t.Prev != gamestate.StatusFinished
}

// PostgresRepo persiste o estado das partidas (games, game_periods, player_stats)
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// Apply grava a atualização numa transação com a linha da partida travada.
// O status só anda pra frente; depois de finished o placar fica congelado e só
// estatísticas e stats_final ainda são aceitos.
func (r *PostgresRepo) Apply(ctx context.Context, g gamestate.Game, detail gamestate.Result, version int) (Transition, error) {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Transition{}, err
	}
	defer tx.Rollback() // no-op após commit

	var (
		prev       string
		storedVer  int
		home, away sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, version, home_score, away_score FROM games WHERE id=$1 FOR UPDATE`, g.ID,
	).Scan(&prev, &storedVer, &home, &away)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return Transition{}, fmt.Errorf("postgres: lock game %s: %w", g.ID, err)
	}

	out := Transition{Prev: gamestate.Status(prev), Game: g}
	if exists {
		if !out.Prev.CanTransition(g.Status) {
			return out, nil
		}
		if version > 0 && version < storedVer {
			return out, nil
		}
	}

	if out.Prev == gamestate.StatusFinished {
		// placar final imutável
		out.Game.Status = gamestate.StatusFinished
		if home.Valid {
			out.Game.HomeScore = gamestate.Score(int(home.Int64))
		}
		if away.Valid {
			out.Game.AwayScore = gamestate.Score(int(away.Int64))
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE games SET stats_final = stats_final OR $2, version = GREATEST(version, $3), updated_at = $4 WHERE id=$1`,
			g.ID, detail.StatsFinal, version, g.UpdatedAt,
		); err != nil {
			return Transition{}, fmt.Errorf("postgres: update finished game %s: %w", g.ID, err)
		}
	} else {
		if err := upsertGame(ctx, tx, g, detail.StatsFinal, version); err != nil {
			return Transition{}, err
		}
		for key, s := range detail.Periods {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO game_periods (game_id, period, home_score, away_score)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (game_id, period) DO UPDATE SET
				  home_score = EXCLUDED.home_score,
				  away_score = EXCLUDED.away_score`,
				g.ID, key, s.Home, s.Away,
			); err != nil {
				return Transition{}, fmt.Errorf("postgres: upsert period %s/%s: %w", g.ID, key, err)
			}
		}
	}

	for k, v := range detail.PlayerStats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_stats (game_id, player_id, stat, period, value)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (game_id, player_id, stat, period) DO UPDATE SET value = EXCLUDED.value`,
			g.ID, k.PlayerID, k.Stat, k.Period, v,
		); err != nil {
			return Transition{}, fmt.Errorf("postgres: upsert stat %s/%s: %w", g.ID, k.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Transition{}, err
	}
	out.Applied = true
	return out, nil
}

func upsertGame(ctx context.Context, tx *sql.Tx, g gamestate.Game, statsFinal bool, version int) error {
	extras, err := json.Marshal(g.Extras)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO games
		  (id, league, status, scheduled_start, home_score, away_score, period, clock, extras, stats_final, version, finished_at, updated_at)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, CASE WHEN $3 = 'finished' THEN $12::timestamptz END, $12)
		ON CONFLICT (id) DO UPDATE SET
		  league          = EXCLUDED.league,
		  status          = EXCLUDED.status,
		  scheduled_start = EXCLUDED.scheduled_start,
		  home_score      = EXCLUDED.home_score,
		  away_score      = EXCLUDED.away_score,
		  period          = EXCLUDED.period,
		  clock           = EXCLUDED.clock,
		  extras          = EXCLUDED.extras,
		  stats_final     = EXCLUDED.stats_final,
		  version         = EXCLUDED.version,
		  finished_at     = COALESCE(games.finished_at, EXCLUDED.finished_at),
		  updated_at      = EXCLUDED.updated_at
	`
	_, err = tx.ExecContext(ctx, q,
		g.ID, string(g.League), string(g.Status), g.ScheduledStart,
		nullInt(g.HomeScore), nullInt(g.AwayScore), g.Period, g.Clock,
		string(extras), statsFinal, version, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert game %s: %w", g.ID, err)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
