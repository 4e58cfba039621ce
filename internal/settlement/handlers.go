package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
	"github.com/radieske/sports-bet-settlement/internal/settlement/repo"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/keys"
)

// menor PlausibleDuration entre as ligas; a varredura filtra por liga depois
const staleLiveFloor = 3 * time.Hour

// SettleReport resume uma execução de settle_game
type SettleReport struct {
	GameID   string `json:"gameId"`
	Finished bool   `json:"finished"`
	Settled  int    `json:"settled"`
	Skipped  int    `json:"skipped"`  // já estavam liquidadas
	Deferred int    `json:"deferred"` // parlay incompleto ou súmula pendente
	Invalid  int    `json:"invalid"`  // não graduáveis, ficam pendentes
}

// SweepReport resume uma varredura
type SweepReport struct {
	Requeued     int `json:"requeued"`
	AutoFinished int `json:"autoFinished"`
	Enqueued     int `json:"enqueued"`
}

func (o *Orchestrator) handleSettleGame(ctx context.Context, j queue.Job) error {
	rep, err := o.settleGame(ctx, j.GameID, j.ID)
	if err != nil {
		return err
	}
	if rep.Finished {
		o.log.Info("game settled",
			zap.String("gameId", rep.GameID),
			zap.String("jobId", j.ID),
			zap.Int("settled", rep.Settled),
			zap.Int("skipped", rep.Skipped),
			zap.Int("deferred", rep.Deferred),
			zap.Int("invalid", rep.Invalid),
		)
	}
	return nil
}

func (o *Orchestrator) handleSweep(ctx context.Context, _ queue.Job) error {
	rep, err := o.Sweep(ctx)
	if err != nil {
		return err
	}
	o.log.Info("sweep done",
		zap.Int("requeued", rep.Requeued),
		zap.Int("autoFinished", rep.AutoFinished),
		zap.Int("enqueued", rep.Enqueued),
	)
	return nil
}

// SettleGame liquida as apostas pendentes de uma partida encerrada.
// Pode rodar quantas vezes for preciso: aposta já liquidada é pulada.
func (o *Orchestrator) SettleGame(ctx context.Context, gameID string) (SettleReport, error) {
	return o.settleGame(ctx, gameID, "")
}

func (o *Orchestrator) settleGame(ctx context.Context, gameID, jobID string) (SettleReport, error) {
	rep := SettleReport{GameID: gameID}

	if o.lock != nil {
		unlock, err := o.lock.Acquire(ctx, keys.SettlementLock(gameID), o.opts.LockTTL)
		if err != nil {
			return rep, fmt.Errorf("lock game %s: %w", gameID, err)
		}
		defer unlock()
	}

	g, err := o.store.GetGame(ctx, gameID)
	if errors.Is(err, repo.ErrNotFound) {
		o.log.Warn("settle_game for unknown game", zap.String("gameId", gameID))
		return rep, nil
	}
	if err != nil {
		return rep, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if g.Status != gamestate.StatusFinished {
		o.log.Debug("game not finished, nothing to settle",
			zap.String("gameId", gameID),
			zap.String("status", string(g.Status)),
		)
		return rep, nil
	}
	rep.Finished = true

	bets, err := o.store.PendingBetsForGame(ctx, gameID)
	if err != nil {
		return rep, fmt.Errorf("pending bets %s: %w", gameID, err)
	}

	results := map[string]gamestate.Result{}
	for _, b := range bets {
		gb := b.Grading()
		if err := o.loadResults(ctx, gb.GameIDs(), results); err != nil {
			return rep, err
		}

		out, err := grading.Grade(gb, results)
		switch {
		case errors.Is(err, grading.ErrParlayIncomplete),
			errors.Is(err, grading.ErrResultPending),
			errors.Is(err, grading.ErrGameNotFinished):
			rep.Deferred++
			o.metrics.Deferred.Inc()
			o.log.Debug("bet deferred", zap.String("betId", b.ID), zap.Error(err))
			continue
		case err != nil:
			rep.Invalid++
			o.metrics.Invalid.Inc()
			o.log.Warn("bet cannot be graded", zap.String("betId", b.ID), zap.Error(err))
			continue
		}

		s := toSettlement(b, out, o.now())
		applied, err := o.store.SettleBet(ctx, s)
		if err != nil {
			return rep, fmt.Errorf("settle bet %s: %w", b.ID, err)
		}
		if !applied {
			rep.Skipped++
			o.metrics.Skipped.Inc()
			o.log.Debug("bet already settled", zap.String("betId", b.ID))
			continue
		}

		rep.Settled++
		o.metrics.Bets.WithLabelValues(string(s.Status)).Inc()

		// o ledger já foi gravado; falha de publicação não desfaz nem reexecuta
		e := events.BetSettled{
			BetID:       b.ID,
			UserID:      b.UserID,
			BetType:     string(b.Type),
			Status:      string(s.Status),
			StakeCents:  b.StakeCents,
			PayoutCents: s.PayoutCents,
			Reason:      s.Reason,
			GameID:      gameID,
			JobID:       jobID,
			SettledAt:   s.SettledAt,
		}
		if perr := o.pub.PublishBetSettled(ctx, e); perr != nil {
			o.log.Error("publish bet_settled failed", zap.String("betId", b.ID), zap.Error(perr))
		}
	}
	return rep, nil
}

// loadResults completa results com as partidas encerradas ainda não carregadas.
// Partidas em andamento ou desconhecidas ficam de fora e a graduação adia a aposta.
func (o *Orchestrator) loadResults(ctx context.Context, ids []string, results map[string]gamestate.Result) error {
	for _, id := range ids {
		if _, ok := results[id]; ok {
			continue
		}
		r, err := o.store.GetResult(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load result %s: %w", id, err)
		}
		if r.Finished() {
			results[id] = r
		}
	}
	return nil
}

func toSettlement(b repo.Bet, out grading.Outcome, at time.Time) repo.Settlement {
	s := repo.Settlement{
		BetID:       b.ID,
		Status:      out.Status,
		PayoutCents: out.PayoutCents,
		Reason:      out.Reason,
		SettledAt:   at,
	}
	for i, lv := range out.Legs {
		if i >= len(b.Legs) {
			break
		}
		s.Legs = append(s.Legs, repo.LegResult{
			Index:  b.Legs[i].Index,
			Status: lv.Status,
			Reason: lv.Reason,
		})
	}
	return s
}

// Sweep é a rede de segurança periódica:
// devolve à fila jobs presos em active, encerra partidas presas em live
// e enfileira settle_game pra toda partida encerrada com apostas pendentes.
func (o *Orchestrator) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	now := o.now()

	n, err := o.q.RequeueStale(ctx, now.Add(-o.opts.VisibilityTimeout))
	if err != nil {
		return rep, fmt.Errorf("requeue stale: %w", err)
	}
	rep.Requeued = n
	if n > 0 {
		o.log.Warn("stale jobs requeued", zap.Int("count", n))
	}

	live, err := o.store.LiveGamesStartedBefore(ctx, now.Add(-staleLiveFloor))
	if err != nil {
		return rep, fmt.Errorf("stale live games: %w", err)
	}
	for _, g := range live {
		if !g.HasFinalScore() || g.ScheduledStart.Add(g.League.PlausibleDuration()).After(now) {
			continue
		}
		ok, err := o.store.FinishGame(ctx, g.ID, now)
		if err != nil {
			return rep, fmt.Errorf("finish game %s: %w", g.ID, err)
		}
		if ok {
			rep.AutoFinished++
			o.metrics.AutoFinish.Inc()
			h, a := g.Scores()
			o.log.Warn("stale live game finished by sweep",
				zap.String("gameId", g.ID),
				zap.String("league", string(g.League)),
				zap.Time("scheduledStart", g.ScheduledStart),
				zap.Int("home", h),
				zap.Int("away", a),
			)
		}
	}

	ids, err := o.store.FinishedGamesWithPendingBets(ctx, o.opts.SweepBatch, now)
	if err != nil {
		return rep, fmt.Errorf("finished games with pending bets: %w", err)
	}
	for _, id := range ids {
		if _, err := o.Enqueue(ctx, queue.KindSettleGame, id, queue.PriorityNormal); err != nil {
			return rep, err
		}
		rep.Enqueued++
	}
	return rep, nil
}
