package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
	"github.com/radieske/sports-bet-settlement/pkg/contracts/events"
)

var ErrUnknownKind = errors.New("no handler for job kind")

// Handler executa um job; erro devolvido significa "tentar de novo"
type Handler func(ctx context.Context, j queue.Job) error

// Options controla workers, retentativas e varredura
type Options struct {
	Concurrency       int
	PollInterval      time.Duration
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
	VisibilityTimeout time.Duration
	SweepBatch        int
	LockTTL           time.Duration
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 5
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 5 * time.Second
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 5 * time.Minute
	}
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = 2 * time.Minute
	}
	if o.SweepBatch < 1 {
		o.SweepBatch = 500
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
	return o
}

// Option configura dependências opcionais do Orchestrator
type Option func(*Orchestrator)

func WithPublisher(p Publisher) Option { return func(o *Orchestrator) { o.pub = p } }

// WithLocker ativa o lock por partida em volta do settle_game
func WithLocker(l Locker) Option { return func(o *Orchestrator) { o.lock = l } }

func WithMetrics(m *Metrics) Option { return func(o *Orchestrator) { o.metrics = m } }

func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithHandler registra (ou substitui) o handler de um tipo de job
func WithHandler(k queue.Kind, h Handler) Option {
	return func(o *Orchestrator) { o.handlers[k] = h }
}

// Orchestrator puxa jobs da fila e despacha pro handler do tipo
type Orchestrator struct {
	store    Store
	q        queue.Queue
	pub      Publisher
	lock     Locker
	log      *zap.Logger
	metrics  *Metrics
	opts     Options
	now      func() time.Time
	handlers map[queue.Kind]Handler
}

func New(store Store, q queue.Queue, log *zap.Logger, opts Options, extra ...Option) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Orchestrator{
		store:    store,
		q:        q,
		pub:      nopPublisher{},
		log:      log,
		opts:     opts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
		handlers: map[queue.Kind]Handler{},
	}
	o.handlers[queue.KindSettleGame] = o.handleSettleGame
	o.handlers[queue.KindSweep] = o.handleSweep
	for _, fn := range extra {
		fn(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}

// Enqueue cria um job novo com o MaxAttempts configurado
func (o *Orchestrator) Enqueue(ctx context.Context, kind queue.Kind, gameID string, priority int) (queue.Job, error) {
	j := queue.NewJob(kind, gameID, priority, o.now(), o.opts.MaxAttempts)
	if err := o.q.Enqueue(ctx, j); err != nil {
		return queue.Job{}, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return j, nil
}

// ScheduleSweep registra a varredura recorrente no scheduler
func (o *Orchestrator) ScheduleSweep(s *Scheduler, spec string) error {
	return s.Add(string(queue.KindSweep), spec, func(ctx context.Context) {
		j, err := o.Enqueue(ctx, queue.KindSweep, "", queue.PrioritySweep)
		if err != nil {
			o.log.Error("enqueue sweep failed", zap.Error(err))
			return
		}
		o.log.Debug("sweep enqueued", zap.String("jobId", j.ID))
	})
}

// Run sobe os workers e bloqueia até ctx ser cancelado
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info("settlement workers starting",
		zap.Int("concurrency", o.opts.Concurrency),
		zap.Duration("poll", o.opts.PollInterval),
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < o.opts.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			o.work(ctx, worker)
			return nil
		})
	}
	err := g.Wait()
	o.log.Info("settlement workers stopped")
	return err
}

func (o *Orchestrator) work(ctx context.Context, worker int) {
	t := time.NewTicker(o.opts.PollInterval)
	defer t.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		worked, err := o.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			o.log.Error("dequeue failed", zap.Int("worker", worker), zap.Error(err))
		}
		if worked {
			continue // esvazia a fila antes de esperar o próximo tick
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// RunOnce processa no máximo um job pronto; worked=false se a fila estava vazia
func (o *Orchestrator) RunOnce(ctx context.Context) (worked bool, err error) {
	j, ok, err := o.q.Dequeue(ctx, o.now())
	if err != nil || !ok {
		return false, err
	}
	o.execute(ctx, j)
	return true, nil
}

func (o *Orchestrator) execute(ctx context.Context, j queue.Job) {
	log := o.log.With(
		zap.String("jobId", j.ID),
		zap.String("kind", string(j.Kind)),
		zap.String("gameId", j.GameID),
		zap.Int("attempt", j.Attempts+1),
	)

	start := time.Now()
	err := o.dispatch(ctx, j)
	o.metrics.JobDuration.WithLabelValues(string(j.Kind)).Observe(time.Since(start).Seconds())

	if err == nil {
		if cerr := o.q.Complete(ctx, j); cerr != nil {
			log.Error("complete job failed", zap.Error(cerr))
			return
		}
		o.metrics.Jobs.WithLabelValues(string(j.Kind), "completed").Inc()
		log.Debug("job completed")
		return
	}

	// desligando: o job fica ativo e volta pra fila pelo RequeueStale
	if ctx.Err() != nil {
		log.Warn("job interrupted by shutdown", zap.Error(err))
		return
	}

	if !errors.Is(err, ErrUnknownKind) && j.CanRetry() {
		delay := Backoff(o.opts.BackoffBase, o.opts.BackoffMax, j.Attempts)
		next, rerr := o.q.Retry(ctx, j, o.now().Add(delay), err)
		if rerr != nil {
			log.Error("retry job failed", zap.Error(rerr), zap.NamedError("cause", err))
			return
		}
		o.metrics.Jobs.WithLabelValues(string(j.Kind), "retried").Inc()
		log.Warn("job failed, retrying",
			zap.Error(err),
			zap.String("nextJobId", next.ID),
			zap.Duration("backoff", delay),
		)
		return
	}

	failed, ferr := o.q.Fail(ctx, j, err)
	if ferr != nil {
		log.Error("fail job failed", zap.Error(ferr), zap.NamedError("cause", err))
		return
	}
	o.metrics.Jobs.WithLabelValues(string(j.Kind), "failed").Inc()
	log.Error("job failed permanently", zap.Error(err), zap.Int("attempts", failed.Attempts))

	dlq := events.SettlementJobFailed{
		JobID:     failed.ID,
		Origin:    failed.Origin,
		Kind:      string(failed.Kind),
		GameID:    failed.GameID,
		Attempts:  failed.Attempts,
		LastError: failed.LastError,
		FailedAt:  o.now(),
	}
	if perr := o.pub.PublishJobFailed(ctx, dlq); perr != nil {
		log.Error("publish dlq failed", zap.Error(perr))
	}
}

// dispatch chama o handler convertendo panic em erro
func (o *Orchestrator) dispatch(ctx context.Context, j queue.Job) (err error) {
	h, ok := o.handlers[j.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, j.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, j)
}

// Backoff exponencial: base, 2*base, 4*base... limitado a max
func Backoff(base, max time.Duration, attempts int) time.Duration {
	d := base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}

// Stats devolve as contagens da fila e atualiza o gauge
func (o *Orchestrator) Stats(ctx context.Context) (queue.Stats, error) {
	s, err := o.q.Stats(ctx)
	if err != nil {
		return queue.Stats{}, err
	}
	o.metrics.QueueDepth.WithLabelValues(string(queue.StateWaiting)).Set(float64(s.Waiting))
	o.metrics.QueueDepth.WithLabelValues(string(queue.StateDelayed)).Set(float64(s.Delayed))
	o.metrics.QueueDepth.WithLabelValues(string(queue.StateActive)).Set(float64(s.Active))
	o.metrics.QueueDepth.WithLabelValues(string(queue.StateFailed)).Set(float64(s.Failed))
	return s, nil
}

// Failed lista os jobs que esgotaram as tentativas, mais recentes primeiro
func (o *Orchestrator) Failed(ctx context.Context, limit int) ([]queue.Job, error) {
	return o.q.Failed(ctx, limit)
}
