package settlement

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Definition descreve um job recorrente registrado
type Definition struct {
	Name string `json:"name"`
	Spec string `json:"spec"`
}

// Scheduler dispara jobs recorrentes (a varredura) via cron
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	baseCtx context.Context

	mu   sync.Mutex
	defs []Definition
}

func NewScheduler(baseCtx context.Context, log *zap.Logger) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		log:     log,
		baseCtx: baseCtx,
	}
}

// Add registra fn sob o nome dado; spec aceita descritores (@every 5m) ou cron com segundos
func (s *Scheduler) Add(name, spec string, fn func(context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() { fn(s.baseCtx) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}

	s.mu.Lock()
	s.defs = append(s.defs, Definition{Name: name, Spec: spec})
	s.mu.Unlock()
	return nil
}

// Definitions lista os jobs recorrentes registrados
func (s *Scheduler) Definitions() []Definition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Definition(nil), s.defs...)
}

func (s *Scheduler) Start() {
	s.log.Info("cron started", zap.Int("jobs", len(s.Definitions())))
	s.cron.Start()
}

// Stop espera os jobs em execução terminarem
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cron stopped")
}

// Run inicia o cron e bloqueia até o contexto ser cancelado
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}
