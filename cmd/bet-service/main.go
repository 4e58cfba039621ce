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

	bhttp "github.com/radieske/sports-bet-settlement/internal/bet-service/http"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/markets"
	kpub "github.com/radieske/sports-bet-settlement/internal/bet-service/producer"
	"github.com/radieske/sports-bet-settlement/internal/bet-service/repo"
	"github.com/radieske/sports-bet-settlement/internal/closure"
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()
	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pg); err != nil {
			log.Fatal("migrations", zap.Error(err))
		}
	}

	// Redis (snapshots escritos pelo game-state-processor)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic bet_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg)
	engine := closure.NewEngine(closure.WithLogger(log))
	checker := markets.NewChecker(engine, cache.NewSnapshots(rdb, cfg.SnapshotTTL), repository, log)
	publ := kpub.NewKafkaPublisher(writer)

	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bets_placed_total", Help: "apostas aceitas"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_rejected_total", Help: "apostas recusadas por motivo"}, []string{"reason"})
	prometheus.MustRegister(placed, rejected)

	// HTTP público
	api := bhttp.NewServer(log, repository, checker, publ)
	api.OnPlaced = placed.Inc
	api.OnRejected = func(reason string) { rejected.WithLabelValues(reason).Inc() }
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

	go func() {
		<-ctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shCancel()
		_ = metricsSrv.Shutdown(shCtx)
		_ = apiSrv.Shutdown(shCtx)
	}()

	log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
}
