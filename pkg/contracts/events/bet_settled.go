package events

import "time"

// Evento emitido pelo settlement-worker quando uma aposta sai de pending
type BetSettled struct {
	BetID       string    `json:"bet_id"`
	UserID      string    `json:"user_id"`
	BetType     string    `json:"bet_type"`
	Status      string    `json:"status"` // won | lost | push | void
	StakeCents  int64     `json:"stake_cents"`
	PayoutCents int64     `json:"payout_cents"`
	Reason      string    `json:"reason,omitempty"`
	GameID      string    `json:"game_id"` // partida cujo fim disparou a liquidação
	JobID       string    `json:"job_id,omitempty"`
	SettledAt   time.Time `json:"settled_at"`
}
