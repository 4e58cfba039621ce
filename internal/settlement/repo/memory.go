package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/radieske/sports-bet-settlement/internal/gamestate"
	"github.com/radieske/sports-bet-settlement/internal/grading"
)

// LedgerEntry é um lançamento registrado pelo Memory
type LedgerEntry struct {
	UserID      string
	BetID       string
	AmountCents int64
}

// Memory é o store em memória usado nos testes do orquestrador.
// SettleBet segue a mesma disciplina do Postgres: tudo ou nada, sob um único lock.
type Memory struct {
	mu      sync.Mutex
	games   map[string]gamestate.Game
	details map[string]gamestate.Result
	bets    map[string]Bet
	wallets map[string]int64
	ledger  []LedgerEntry
	swept   map[string]time.Time // cursor da varredura

	// BeforeSettle permite simular falha de infraestrutura antes de qualquer escrita
	BeforeSettle func(Settlement) error
}

func NewMemory() *Memory {
	return &Memory{
		games:   map[string]gamestate.Game{},
		details: map[string]gamestate.Result{},
		bets:    map[string]Bet{},
		wallets: map[string]int64{},
		swept:   map[string]time.Time{},
	}
}

func (m *Memory) PutGame(g gamestate.Game) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
}

// PutResultDetail guarda placares por período, estatísticas e StatsFinal da partida
func (m *Memory) PutResultDetail(r gamestate.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[r.GameID] = r
}

func (m *Memory) PutBet(b Bet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Status == "" {
		b.Status = grading.StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	m.bets[b.ID] = b
}

func (m *Memory) PutWallet(userID string, balanceCents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[userID] = balanceCents
}

func (m *Memory) Balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[userID]
}

func (m *Memory) Ledger() []LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LedgerEntry(nil), m.ledger...)
}

func (m *Memory) GetGame(_ context.Context, id string) (gamestate.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return gamestate.Game{}, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	return g, nil
}

func (m *Memory) GetResult(_ context.Context, id string) (gamestate.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return gamestate.Result{}, fmt.Errorf("game %s: %w", id, ErrNotFound)
	}
	r := gamestate.ResultFromGame(g)
	if d, ok := m.details[id]; ok {
		r.StatsFinal = d.StatsFinal
		for k, v := range d.Periods {
			r.Periods[k] = v
		}
		for k, v := range d.PlayerStats {
			r.PlayerStats[k] = v
		}
	}
	return r, nil
}

func touches(b Bet, gameID string) bool {
	if b.Type != grading.TypeParlay {
		return b.Market.GameID == gameID
	}
	for _, l := range b.Legs {
		if l.Market.GameID == gameID {
			return true
		}
	}
	return false
}

func (m *Memory) PendingBetsForGame(_ context.Context, gameID string) ([]Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Bet
	for _, b := range m.bets {
		if b.Status == grading.StatusPending && touches(b, gameID) {
			b.Legs = append([]Leg(nil), b.Legs...)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetBet(_ context.Context, id string) (Bet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bets[id]
	if !ok {
		return Bet{}, fmt.Errorf("bet %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (m *Memory) FinishedGamesWithPendingBets(_ context.Context, limit int, sweptAt time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for id, g := range m.games {
		if g.Status != gamestate.StatusFinished {
			continue
		}
		for _, b := range m.bets {
			if b.Status == grading.StatusPending && touches(b, id) {
				out = append(out, id)
				break
			}
		}
	}
	// mesma ordem do Postgres: nunca varridas primeiro, depois a mais antiga
	sort.Slice(out, func(i, j int) bool {
		a, b := m.swept[out[i]], m.swept[out[j]]
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i] < out[j]
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for _, id := range out {
		m.swept[id] = sweptAt
	}
	return out, nil
}

func (m *Memory) LiveGamesStartedBefore(_ context.Context, t time.Time) ([]gamestate.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []gamestate.Game
	for _, g := range m.games {
		if g.Status == gamestate.StatusLive && g.ScheduledStart.Before(t) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledStart.Before(out[j].ScheduledStart) })
	return out, nil
}

func (m *Memory) FinishGame(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok || g.Status != gamestate.StatusLive || !g.HasFinalScore() {
		return false, nil
	}
	g.Status = gamestate.StatusFinished
	g.UpdatedAt = at
	m.games[id] = g
	return true, nil
}

func (m *Memory) SettleBet(_ context.Context, s Settlement) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bets[s.BetID]
	if !ok {
		return false, fmt.Errorf("bet %s: %w", s.BetID, ErrNotFound)
	}
	if b.Status != grading.StatusPending {
		return false, nil
	}
	if _, ok := m.wallets[b.UserID]; !ok {
		return false, fmt.Errorf("user %s: %w", b.UserID, ErrNoWallet)
	}
	if m.BeforeSettle != nil {
		if err := m.BeforeSettle(s); err != nil {
			return false, err
		}
	}

	at := s.SettledAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	b.Status = s.Status
	b.PayoutCents = s.PayoutCents
	b.Reason = s.Reason
	b.SettledAt = &at
	legs := append([]Leg(nil), b.Legs...)
	for _, lr := range s.Legs {
		for i := range legs {
			if legs[i].Index == lr.Index {
				legs[i].Status = lr.Status
				legs[i].Reason = lr.Reason
			}
		}
	}
	b.Legs = legs
	m.bets[b.ID] = b

	m.wallets[b.UserID] += s.PayoutCents
	m.ledger = append(m.ledger, LedgerEntry{UserID: b.UserID, BetID: b.ID, AmountCents: s.PayoutCents})
	return true, nil
}
