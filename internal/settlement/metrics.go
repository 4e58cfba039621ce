package settlement

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics do worker de liquidação
type Metrics struct {
	Jobs        *prometheus.CounterVec // kind, outcome
	Bets        *prometheus.CounterVec // status
	Skipped     prometheus.Counter
	Deferred    prometheus.Counter
	Invalid     prometheus.Counter
	AutoFinish  prometheus.Counter
	QueueDepth  *prometheus.GaugeVec // state
	JobDuration *prometheus.HistogramVec
}

// NewMetrics cria e registra as métricas; reg nil usa um registry descartável
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_jobs_total", Help: "jobs processados por tipo e resultado",
		}, []string{"kind", "outcome"}),
		Bets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_bets_total", Help: "apostas liquidadas por status",
		}, []string{"status"}),
		Skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_bets_skipped_total", Help: "apostas que já estavam liquidadas",
		}),
		Deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_bets_deferred_total", Help: "apostas adiadas (parlay incompleto ou súmula pendente)",
		}),
		Invalid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_bets_invalid_total", Help: "apostas que não puderam ser graduadas",
		}),
		AutoFinish: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_games_auto_finished_total", Help: "partidas presas em live encerradas pela varredura",
		}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "settlement_queue_jobs", Help: "jobs na fila por estado",
		}, []string{"state"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_job_duration_seconds",
			Help:    "duração da execução dos jobs",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(m.Jobs, m.Bets, m.Skipped, m.Deferred, m.Invalid, m.AutoFinish, m.QueueDepth, m.JobDuration)
	return m
}
