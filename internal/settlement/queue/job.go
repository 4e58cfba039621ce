package queue

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifica o handler responsável pelo job
type Kind string

const (
	KindSettleGame Kind = "settle_game"
	KindSweep      Kind = "sweep"
)

// State do ciclo de vida de um job
type State string

const (
	StateWaiting   State = "waiting"
	StateDelayed   State = "delayed"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Prioridades: maior sai primeiro
const (
	PriorityImmediate = 10
	PriorityNormal    = 5
	PrioritySweep     = 1
)

// Job é um registro imutável: transições produzem uma cópia nova.
// Origin aponta pro primeiro job da cadeia de retentativas.
type Job struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Kind        Kind      `json:"kind"`
	GameID      string    `json:"gameId,omitempty"`
	Priority    int       `json:"priority"`
	Attempts    int       `json:"attempts"` // execuções que falharam
	MaxAttempts int       `json:"maxAttempts"`
	RunAt       time.Time `json:"runAt"`
	State       State     `json:"state"`
	LastError   string    `json:"lastError,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewJob cria um job novo pronto pra Enqueue
func NewJob(kind Kind, gameID string, priority int, runAt time.Time, maxAttempts int) Job {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	now := time.Now().UTC()
	if runAt.IsZero() {
		runAt = now
	}
	id := uuid.NewString()
	return Job{
		ID:          id,
		Origin:      id,
		Kind:        kind,
		GameID:      gameID,
		Priority:    priority,
		MaxAttempts: maxAttempts,
		RunAt:       runAt.UTC(),
		State:       StateWaiting,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CanRetry indica se ainda há tentativas depois da falha atual
func (j Job) CanRetry() bool { return j.Attempts+1 < j.MaxAttempts }

func (j Job) withState(s State, now time.Time) Job {
	j.State = s
	j.UpdatedAt = now
	return j
}

// retried gera o novo registro reagendado; o original é descartado pelo Queue
func (j Job) retried(runAt time.Time, cause error, now time.Time) Job {
	out := j
	out.ID = uuid.NewString()
	out.Attempts = j.Attempts + 1
	out.RunAt = runAt.UTC()
	out.State = StateDelayed
	out.UpdatedAt = now
	if cause != nil {
		out.LastError = cause.Error()
	}
	return out
}

func (j Job) failed(cause error, now time.Time) Job {
	out := j.withState(StateFailed, now)
	out.Attempts = j.Attempts + 1
	if cause != nil {
		out.LastError = cause.Error()
	}
	return out
}

// readyScore ordena por prioridade (desc) e depois por horário (asc)
func (j Job) readyScore() float64 {
	return float64(-int64(j.Priority)*1e13 + j.RunAt.UnixMilli())
}
