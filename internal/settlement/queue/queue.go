package queue

import (
	"context"
	"errors"
	"time"
)

var ErrJobNotFound = errors.New("job not found")

// Stats é a fotografia das filas pra monitoramento
type Stats struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Queue é a fila durável de jobs de liquidação.
// Entrega pelo menos uma vez: um job ativo que não for concluído volta pra fila via RequeueStale.
type Queue interface {
	Enqueue(ctx context.Context, j Job) error
	// Dequeue não bloqueia; ok=false quando não há job pronto em now
	Dequeue(ctx context.Context, now time.Time) (j Job, ok bool, err error)
	Complete(ctx context.Context, j Job) error
	// Retry descarta o registro atual e insere um novo agendado pra runAt
	Retry(ctx context.Context, j Job, runAt time.Time, cause error) (Job, error)
	// Fail move o job pra falha terminal
	Fail(ctx context.Context, j Job, cause error) (Job, error)
	// RequeueStale devolve pra fila jobs ativos desde antes de olderThan
	RequeueStale(ctx context.Context, olderThan time.Time) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Failed(ctx context.Context, limit int) ([]Job, error)
}
