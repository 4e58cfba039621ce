package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
)

// Postgres implementa a leitura de partidas/apostas e a liquidação atômica
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const gameColumns = `id, league, status, scheduled_start, home_score, away_score, period, clock, extras, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(r rowScanner) (gamestate.Game, error) {
	var (
		g          gamestate.Game
		league     string
		status     string
		home, away sql.NullInt64
		extras     []byte
	)
	if err := r.Scan(&g.ID, &league, &status, &g.ScheduledStart, &home, &away, &g.Period, &g.Clock, &extras, &g.UpdatedAt); err != nil {
		return gamestate.Game{}, err
	}
	g.League = gamestate.League(league)
	g.Status = gamestate.Status(status)
	if home.Valid {
		g.HomeScore = gamestate.Score(int(home.Int64))
	}
	if away.Valid {
		g.AwayScore = gamestate.Score(int(away.Int64))
	}
	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &g.Extras); err != nil {
			return gamestate.Game{}, fmt.Errorf("decode extras: %w", err)
		}
	}
	return g, nil
}

// GetGame retorna o snapshot persistido da partida
func (p *Postgres) GetGame(ctx context.Context, id string) (gamestate.Game, error) {
	g, err := scanGame(p.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return gamestate.Game{}, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return gamestate.Game{}, fmt.Errorf("postgres: get game %s: %w", id, err)
	}
	return g, nil
}

// GetResult monta o resultado com placares por período e estatísticas de jogadores
func (p *Postgres) GetResult(ctx context.Context, id string) (gamestate.Result, error) {
	g, err := p.GetGame(ctx, id)
	if err != nil {
		return gamestate.Result{}, err
	}
	r := gamestate.ResultFromGame(g)
	if err := p.db.QueryRowContext(ctx, `SELECT stats_final FROM games WHERE id=$1`, id).Scan(&r.StatsFinal); err != nil {
		return gamestate.Result{}, fmt.Errorf("postgres: stats_final %s: %w", id, err)
	}

	rows, err := p.db.QueryContext(ctx, `SELECT period, home_score, away_score FROM game_periods WHERE game_id=$1`, id)
	if err != nil {
		return gamestate.Result{}, fmt.Errorf("postgres: periods %s: %w", id, err)
	}
	for rows.Next() {
		var (
			key string
			s   gamestate.PeriodScore
		)
		if err := rows.Scan(&key, &s.Home, &s.Away); err != nil {
			rows.Close()
			return gamestate.Result{}, err
		}
		r.SetPeriod(key, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return gamestate.Result{}, err
	}

	rows, err = p.db.QueryContext(ctx, `SELECT player_id, stat, period, value FROM player_stats WHERE game_id=$1`, id)
	if err != nil {
		return gamestate.Result{}, fmt.Errorf("postgres: player stats %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			player, stat, period string
			v                    decimal.Decimal
		)
		if err := rows.Scan(&player, &stat, &period, &v); err != nil {
			return gamestate.Result{}, err
		}
		r.SetPlayerStat(player, stat, period, v)
	}
	return r, rows.Err()
}

// PendingBetsForGame traz as apostas pendentes que referenciam a partida,
// inclusive parlays em que ela é uma das pernas
func (p *Postgres) PendingBetsForGame(ctx context.Context, gameID string) ([]Bet, error) {
	const q = `
		SELECT id, user_id, bet_type, COALESCE(game_id,''), selection, line, odds, player_id, stat, period,
		       stake_cents, status, created_at
		FROM bets
		WHERE status = 'pending'
		  AND (game_id = $1 OR id IN (SELECT bet_id FROM bet_legs WHERE game_id = $1))
		ORDER BY created_at`
	rows, err := p.db.QueryContext(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("postgres: pending bets %s: %w", gameID, err)
	}
	var out []Bet
	for rows.Next() {
		var (
			b            Bet
			typ, st, sel string
			m            grading.Market
		)
		if err := rows.Scan(&b.ID, &b.UserID, &typ, &m.GameID, &sel, &m.Line, &m.Odds, &m.PlayerID, &m.Stat, &m.Period,
			&b.StakeCents, &st, &b.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		b.Type = grading.BetType(typ)
		b.Status = grading.Status(st)
		m.Type = b.Type
		m.Selection = grading.Selection(sel)
		b.Market = m
		out = append(out, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Type != grading.TypeParlay {
			continue
		}
		legs, err := p.legs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Legs = legs
		out[i].Market = grading.Market{Type: grading.TypeParlay}
	}
	return out, nil
}

func (p *Postgres) legs(ctx context.Context, betID string) ([]Leg, error) {
	const q = `
		SELECT leg_index, game_id, bet_type, selection, line, odds, player_id, stat, period, status, reason
		FROM bet_legs WHERE bet_id=$1 ORDER BY leg_index`
	rows, err := p.db.QueryContext(ctx, q, betID)
	if err != nil {
		return nil, fmt.Errorf("postgres: legs %s: %w", betID, err)
	}
	defer rows.Close()
	var out []Leg
	for rows.Next() {
		var (
			l            Leg
			typ, sel, st string
		)
		if err := rows.Scan(&l.Index, &l.Market.GameID, &typ, &sel, &l.Market.Line, &l.Market.Odds,
			&l.Market.PlayerID, &l.Market.Stat, &l.Market.Period, &st, &l.Reason); err != nil {
			return nil, err
		}
		l.Market.Type = grading.BetType(typ)
		l.Market.Selection = grading.Selection(sel)
		l.Status = grading.Status(st)
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetBet é usado pela introspecção e pelos testes de integração
func (p *Postgres) GetBet(ctx context.Context, id string) (Bet, error) {
	var (
		b       Bet
		typ, st string
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, user_id, bet_type, stake_cents, status, payout_cents, reason, settled_at, created_at
		FROM bets WHERE id=$1`, id).Scan(&b.ID, &b.UserID, &typ, &b.StakeCents, &st, &b.PayoutCents, &b.Reason, &b.SettledAt, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Bet{}, fmt.Errorf("postgres: get bet %s: %w", id, err)
	}
	b.Type = grading.BetType(typ)
	b.Status = grading.Status(st)
	return b, nil
}

// FinishedGamesWithPendingBets alimenta a varredura periódica.
// Ordena por last_swept_at (nunca varridas primeiro) e grava sweptAt nas escolhidas:
// partidas com apostas que continuam pendentes vão pro fim da fila em vez de ocupar todo lote.
func (p *Postgres) FinishedGamesWithPendingBets(ctx context.Context, limit int, sweptAt time.Time) ([]string, error) {
	const q = `
		WITH picked AS (
		  SELECT g.id
		  FROM games g
		  WHERE g.status = 'finished'
		    AND (
		      EXISTS (SELECT 1 FROM bets b WHERE b.game_id = g.id AND b.status = 'pending')
		      OR EXISTS (
		        SELECT 1 FROM bet_legs l JOIN bets b ON b.id = l.bet_id
		        WHERE l.game_id = g.id AND b.status = 'pending')
		    )
		  ORDER BY g.last_swept_at NULLS FIRST, g.finished_at NULLS FIRST, g.id
		  LIMIT $1
		  FOR UPDATE OF g SKIP LOCKED
		)
		UPDATE games g SET last_swept_at = $2
		FROM picked
		WHERE g.id = picked.id
		RETURNING g.id`
	rows, err := p.db.QueryContext(ctx, q, limit, sweptAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: finished games with pending bets: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LiveGamesStartedBefore lista partidas ainda "live" com início agendado antes de t
func (p *Postgres) LiveGamesStartedBefore(ctx context.Context, t time.Time) ([]gamestate.Game, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games WHERE status='live' AND scheduled_start < $1 ORDER BY scheduled_start`, t)
	if err != nil {
		return nil, fmt.Errorf("postgres: live games: %w", err)
	}
	defer rows.Close()
	var out []gamestate.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// FinishGame encerra uma partida presa em "live" que já tem os dois placares.
// Retorna false se outro processo já mudou o status.
func (p *Postgres) FinishGame(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE games SET status='finished', finished_at=$2, updated_at=NOW()
		WHERE id=$1 AND status='live' AND home_score IS NOT NULL AND away_score IS NOT NULL`, id, at)
	if err != nil {
		return false, fmt.Errorf("postgres: finish game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SettleBet aplica o veredito numa única transação:
// status e payout da aposta, vereditos das pernas, crédito na carteira e um lançamento no ledger.
// Aposta que já saiu de pending é ignorada (applied=false) sem nenhuma escrita.
func (p *Postgres) SettleBet(ctx context.Context, s Settlement) (applied bool, err error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	if s.SettledAt.IsZero() {
		s.SettledAt = time.Now().UTC()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Lock pessimista na aposta: a corrida entre gatilho imediato e varredura para aqui
	var userID, status string
	err = tx.QueryRowContext(ctx, `SELECT user_id, status FROM bets WHERE id=$1 FOR UPDATE`, s.BetID).Scan(&userID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("bet %s: %w", s.BetID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("postgres: lock bet %s: %w", s.BetID, err)
	}
	if grading.Status(status) != grading.StatusPending {
		return false, nil
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE bets SET status=$1, payout_cents=$2, reason=$3, settled_at=$4, updated_at=NOW()
		WHERE id=$5`, string(s.Status), s.PayoutCents, s.Reason, s.SettledAt, s.BetID); err != nil {
		return false, fmt.Errorf("postgres: update bet %s: %w", s.BetID, err)
	}

	for _, l := range s.Legs {
		if _, err = tx.ExecContext(ctx, `UPDATE bet_legs SET status=$1, reason=$2 WHERE bet_id=$3 AND leg_index=$4`,
			string(l.Status), l.Reason, s.BetID, l.Index); err != nil {
			return false, fmt.Errorf("postgres: update leg %s/%d: %w", s.BetID, l.Index, err)
		}
	}

	var walletID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM wallets WHERE user_id=$1 FOR UPDATE`, userID).Scan(&walletID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("user %s: %w", userID, ErrNoWallet)
	}
	if err != nil {
		return false, fmt.Errorf("postgres: lock wallet %s: %w", userID, err)
	}

	if s.PayoutCents > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE wallets SET balance_cents = balance_cents + $1, version = version + 1, updated_at=NOW() WHERE id=$2`,
			s.PayoutCents, walletID); err != nil {
			return false, fmt.Errorf("postgres: credit wallet %s: %w", walletID, err)
		}
	}

	// um único lançamento por liquidação, inclusive com payout zero (aposta perdida)
	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description, related_bet_id)
		VALUES($1,'SETTLEMENT',$2,$3,$4)`,
		walletID, s.PayoutCents, "settle:"+string(s.Status)+":"+s.BetID, s.BetID); err != nil {
		return false, fmt.Errorf("postgres: ledger %s: %w", s.BetID, err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bet_transactions (bet_id, old_status, new_status, reason, created_at)
		VALUES ($1,$2,$3,$4,NOW())`, s.BetID, status, string(s.Status), s.Reason); err != nil {
		return false, fmt.Errorf("postgres: bet transaction %s: %w", s.BetID, err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("postgres: commit settlement %s: %w", s.BetID, err)
	}
	return true, nil
}
