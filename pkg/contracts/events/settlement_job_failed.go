package events

import "time"

// Publicado na DLQ quando um job de liquidação esgota as tentativas
type SettlementJobFailed struct {
	JobID     string    `json:"job_id"`
	Origin    string    `json:"origin"`
	Kind      string    `json:"kind"`
	GameID    string    `json:"game_id,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	FailedAt  time.Time `json:"failed_at"`
}
