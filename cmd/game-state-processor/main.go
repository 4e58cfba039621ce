package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/sports-bet-settlement/internal/game-state-processor/consumer"
	"github.com/radieske/sports-bet-settlement/internal/game-state-processor/repository"
	"github.com/radieske/sports-bet-settlement/internal/settlement"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
	"github.com/radieske/sports-bet-settlement/internal/shared/cache"
	"github.com/radieske/sports-bet-settlement/internal/shared/config"
	"github.com/radieske/sports-bet-settlement/internal/shared/db"
	"github.com/radieske/sports-bet-settlement/internal/shared/kafka"
	"github.com/radieske/sports-bet-settlement/internal/shared/logger"
	"github.com/radieske/sports-bet-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pg); err != nil {
			log.Fatal("migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer redisClient.Close()

	// Configura o consumer Kafka (consumer group game-state-processor)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicGameState, "game-state-processor")
	defer reader.Close()

	var dlq consumer.MessageWriter
	if cfg.TopicGameStateDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicGameStateDLQ)
		defer w.Close()
		dlq = w
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "game_state_messages_consumed_total", Help: "mensagens consumidas"})
	persist := prometheus.NewCounter(prometheus.CounterOpts{Name: "game_state_db_writes_total", Help: "atualizações aplicadas no banco"})
	triggered := prometheus.NewCounter(prometheus.CounterOpts{Name: "game_state_settlements_triggered_total", Help: "liquidações disparadas ao fim da partida"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "game_state_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persist, triggered, errorsBy)

	proc := &consumer.Processor{
		Log:     log,
		Reader:  reader,
		Repo:    repository.NewPostgresRepo(pg),
		Cache:   cache.NewSnapshots(redisClient, cfg.SnapshotTTL),
		Trigger: settlement.NewTrigger(queue.NewRedis(redisClient), cfg.Settlement.MaxAttempts, log),
		DLQ:     dlq,

		OnConsumed:  func() { consumed.Inc() },
		OnPersist:   func() { persist.Inc() },
		OnTriggered: func() { triggered.Inc() },
		OnError:     func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)
	defer metricsSrv.Close()
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("game-state-processor started", zap.String("topic", cfg.TopicGameState))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("game-state-processor stopped")
}
