package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/sports-bet-settlement/internal/settlement"
	httpapi "github.com/radieske/sports-bet-settlement/internal/settlement/http"
	"github.com/radieske/sports-bet-settlement/internal/settlement/producer"
	"github.com/radieske/sports-bet-settlement/internal/settlement/queue"
	"github.com/radieske/sports-bet-settlement/internal/settlement/repo"
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

	// Postgres (fonte da verdade de apostas, carteiras e resultados)
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

	// Redis (fila de jobs e lock por partida)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: bet_settled e DLQ de jobs esgotados
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	dlqWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicSettlementDLQ)
	defer dlqWriter.Close()

	s := cfg.Settlement
	extra := []settlement.Option{
		settlement.WithPublisher(producer.NewKafkaPublisher(settledWriter, dlqWriter)),
		settlement.WithMetrics(settlement.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if s.UseLock {
		extra = append(extra, settlement.WithLocker(cache.NewLocker(rdb)))
	}

	orch := settlement.New(repo.NewPostgres(pg), queue.NewRedis(rdb), log, settlement.Options{
		Concurrency:       s.Concurrency,
		PollInterval:      s.PollInterval,
		MaxAttempts:       s.MaxAttempts,
		BackoffBase:       s.BackoffBase,
		BackoffMax:        s.BackoffMax,
		VisibilityTimeout: s.VisibilityTimeout,
		SweepBatch:        s.SweepBatch,
		LockTTL:           s.LockTTL,
	}, extra...)

	// Cron: varredura de segurança e gauges da fila
	sched := settlement.NewScheduler(ctx, log)
	if err := orch.ScheduleSweep(sched, s.SweepCron); err != nil {
		log.Fatal("schedule sweep", zap.Error(err))
	}
	if err := sched.Add("queue_stats", "@every 15s", func(ctx context.Context) {
		if _, err := orch.Stats(ctx); err != nil {
			log.Warn("queue stats", zap.Error(err))
		}
	}); err != nil {
		log.Fatal("schedule stats", zap.Error(err))
	}

	// API administrativa
	api := &httpapi.API{Jobs: orch, Recurring: sched}
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		func(ctx context.Context) error { return pg.PingContext(ctx) },
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	)
	log.Info("metrics/health", zap.String("addr", metricsSrv.Addr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		log.Info("settlement admin api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = metricsSrv.Shutdown(shCtx)
		return apiSrv.Shutdown(shCtx)
	})

	log.Info("settlement-worker started",
		zap.Int("concurrency", s.Concurrency),
		zap.String("sweep", s.SweepCron),
		zap.Bool("lock", s.UseLock),
	)
	if err := g.Wait(); err != nil {
		log.Error("settlement-worker stopped with error", zap.Error(err))
		return
	}
	log.Info("settlement-worker stopped")
}
