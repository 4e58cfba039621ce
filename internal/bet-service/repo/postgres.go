package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/radieske/sports-bet-settlement/internal/bet-service/markets"
	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
)

// Postgres implementa operações de persistência de apostas em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// PlaceBet grava a aposta pendente e debita o stake na mesma transação.
// A carteira é travada (FOR UPDATE) como na liquidação. Retorna o novo saldo.
func (p *Postgres) PlaceBet(ctx context.Context, b *Bet) (int64, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() // no-op após commit

	var (
		walletID string
		balance  int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, balance_cents FROM wallets WHERE user_id=$1 FOR UPDATE`, b.UserID,
	).Scan(&walletID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", b.UserID, ErrNoWallet)
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: lock wallet %s: %w", b.UserID, err)
	}
	if balance < b.StakeCents {
		return balance, ErrInsufficientFunds
	}

	newBalance := balance - b.StakeCents
	if _, err = tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents=$1, version=version+1, updated_at=NOW() WHERE id=$2`,
		newBalance, walletID,
	); err != nil {
		return 0, fmt.Errorf("postgres: debit wallet %s: %w", walletID, err)
	}

	m := b.Market
	var gameID sql.NullString
	if b.Type != grading.TypeParlay {
		gameID = sql.NullString{String: m.GameID, Valid: true}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,bet_type,game_id,selection,line,odds,player_id,stat,period,stake_cents,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,'pending')`,
		b.ID, b.UserID, string(b.Type), gameID, string(m.Selection), m.Line, m.Odds,
		m.PlayerID, m.Stat, m.Period, b.StakeCents,
	); err != nil {
		return 0, fmt.Errorf("postgres: insert bet: %w", err)
	}

	for i, l := range b.Legs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO bet_legs (bet_id,leg_index,game_id,bet_type,selection,line,odds,player_id,stat,period)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			b.ID, i, l.GameID, string(l.Type), string(l.Selection), l.Line, l.Odds, l.PlayerID, l.Stat, l.Period,
		); err != nil {
			return 0, fmt.Errorf("postgres: insert leg %d: %w", i, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO wallet_ledger(wallet_id, operation_type, amount_cents, description, related_bet_id)
		VALUES($1,'DEBIT',$2,$3,$4)`,
		walletID, b.StakeCents, "stake:"+b.ID, b.ID); err != nil {
		return 0, fmt.Errorf("postgres: ledger %s: %w", b.ID, err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bet_transactions (bet_id, old_status, new_status, reason, created_at)
		VALUES ($1,'','pending','placed',NOW())`, b.ID); err != nil {
		return 0, fmt.Errorf("postgres: bet transaction %s: %w", b.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	b.Status = string(grading.StatusPending)
	return newBalance, nil
}

// GetBet retorna status e payout atuais de uma aposta pelo betID
func (p *Postgres) GetBet(ctx context.Context, betID string) (Bet, error) {
	b := Bet{ID: betID}
	var typ string
	err := p.db.QueryRowContext(ctx,
		`SELECT user_id, bet_type, stake_cents, status, payout_cents, reason, created_at, updated_at FROM bets WHERE id=$1`, betID,
	).Scan(&b.UserID, &typ, &b.StakeCents, &b.Status, &b.PayoutCents, &b.Reason, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Bet{}, fmt.Errorf("bet %s: %w", betID, ErrNotFound)
	}
	if err != nil {
		return Bet{}, fmt.Errorf("postgres: get bet %s: %w", betID, err)
	}
	b.Type = grading.BetType(typ)
	return b, nil
}

// GetGame lê o estado persistido da partida quando o snapshot não está em cache
func (p *Postgres) GetGame(ctx context.Context, gameID string) (gamestate.Game, error) {
	var (
		g          gamestate.Game
		league     string
		status     string
		home, away sql.NullInt64
		extras     []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT id, league, status, scheduled_start, home_score, away_score, period, clock, extras, updated_at
		FROM games WHERE id=$1`, gameID,
	).Scan(&g.ID, &league, &status, &g.ScheduledStart, &home, &away, &g.Period, &g.Clock, &extras, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return gamestate.Game{}, markets.ErrUnknownGame
	}
	if err != nil {
		return gamestate.Game{}, fmt.Errorf("postgres: get game %s: %w", gameID, err)
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
