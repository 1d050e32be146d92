package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mvsat/internal/config"
	"mvsat/internal/infra"
	"mvsat/internal/logger"
	"mvsat/internal/metrics"
	"mvsat/internal/repository"
	"mvsat/internal/router"
	"mvsat/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger — dev: pretty, prod: JSON
	if err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatal().Err(err).Msg("invalid log configuration")
	}

	loc, _ := cfg.Location()
	taxa, _ := cfg.TaxaRenovacao()

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// Redis carries the cycle lock and the job queues. Without it baixas still
	// work inside a single instance and no receipts are sent.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			if cfg.IsProduction() {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			log.Warn().Err(err).Msg("redis unavailable, running without lock and workers")
			rdb = nil
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	deps := router.Deps{
		DB:       db,
		RDB:      rdb,
		Metrics:  m,
		Location: loc,
		Taxa:     taxa,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workersDone := make(chan struct{})

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	if rdb != nil {
		deps.Locker = infra.NewCycleLock(rdb)
		deps.Dispatcher = worker.NewDispatcher(rdb)

		mailer := infra.NewMailer(cfg)
		smtpCB := infra.NewCircuitBreaker(infra.SMTPBreakerConfig())
		cobrancaRepo := repository.NewCobrancaRepository(db)
		clienteRepo := repository.NewClienteRepository(db)

		pool := worker.NewPool(rdb, cfg.WorkerPoolSize, m)
		pool.Register(worker.TipoRecibo, worker.NewReciboWorker(cobrancaRepo, clienteRepo, mailer, smtpCB, cfg.PDFStoragePath))
		pool.Register(worker.TipoAvisoCobranca, worker.NewAvisoWorker(cobrancaRepo, clienteRepo, mailer, smtpCB))
		go func() {
			pool.Run(ctx)
			close(workersDone)
		}()
		worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, CB: smtpCB})

		if !mailer.Enabled() {
			log.Warn().Msg("SMTP_HOST not set, receipts are generated but not e-mailed")
		}
	}

	r := router.New(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("MVSat backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if rdb != nil {
		// in-flight jobs finish before the connections go away
		select {
		case <-workersDone:
		case <-shutdownCtx.Done():
			log.Warn().Msg("workers did not stop in time")
		}
		_ = rdb.Close()
	}
	if err := infra.CloseDatabase(db); err != nil {
		log.Error().Err(err).Msg("closing database")
	}
	log.Info().Msg("server exited")
}
