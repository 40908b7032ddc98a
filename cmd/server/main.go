package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"idguardian/internal/analyzer"
	"idguardian/internal/audit"
	"idguardian/internal/decision"
	decisionmetrics "idguardian/internal/decision/metrics"
	"idguardian/internal/decision/ports"
	"idguardian/internal/media"
	"idguardian/internal/platform/config"
	"idguardian/internal/platform/httpserver"
	"idguardian/internal/platform/logger"
	"idguardian/internal/platform/metrics"
	platformredis "idguardian/internal/platform/redis"
	"idguardian/internal/ratelimit"
	"idguardian/internal/session"
	"idguardian/internal/token"
	httptransport "idguardian/internal/transport/http"
	"idguardian/internal/verification"
	"idguardian/internal/verification/handler"
	"idguardian/internal/verification/store"
)

// main wires the dependencies and owns the process lifecycle. Business logic
// lives in the internal services; everything here is construction order and
// shutdown.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.App, log *slog.Logger) error {
	checks := map[string]httptransport.HealthCheck{}

	// Session store: Redis when configured, process memory otherwise.
	var sessionStore session.Store = session.NewInMemoryStore()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient.Client)
		checks["redis"] = redisClient.Health
		log.Info("session store: redis")
	} else {
		log.Info("session store: in-memory")
	}

	// Result and audit stores: Postgres when configured.
	var resultStore store.ResultStore = store.NewInMemoryStore()
	var auditStore audit.Store = audit.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(context.Background()); err != nil {
			return err
		}
		resultStore = store.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		checks["postgres"] = db.PingContext
		log.Info("result store: postgres")
	} else {
		log.Info("result store: in-memory")
	}

	// Audit trail: persisted locally, relayed to Kafka when configured.
	publisher := audit.NewPublisher(auditStore, log, 256)
	var sinks []audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("audit relay: kafka", "topic", cfg.KafkaAuditTopic)
	}
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log, sinks...)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(workerCtx)
	}()

	// Analyzers: live Gemini when a key is present, offline mocks otherwise.
	decisionMetrics := decisionmetrics.New()
	var analyzers ports.Analyzers
	if cfg.GeminiAPIKey != "" {
		analyzers = analyzer.NewGemini(analyzer.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		}, log, decisionMetrics).Analyzers()
		log.Info("analyzers: gemini")
	} else {
		analyzers = analyzer.Offline{Latency: 400 * time.Millisecond}.Analyzers()
		log.Warn("analyzers: offline mocks, set GEMINI_API_KEY for live analysis")
	}

	artifacts, err := media.NewDiskStore(cfg.MediaRoot)
	if err != nil {
		return err
	}

	sessions := session.NewService(sessionStore, publisher, log, cfg.SessionTTL)
	verifier := verification.NewService(verification.Config{
		Sessions:  sessions,
		Artifacts: artifacts,
		Analyzers: analyzers,
		Engine:    decision.NewEngine(cfg.Policy(), decision.WithMetrics(decisionMetrics)),
		Results:   resultStore,
		Audit:     publisher,
		Logger:    log,
		Timeout:   cfg.VerifyTimeout,
	})
	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenIssuer, cfg.TokenAudience)

	var limitStore ratelimit.Store = ratelimit.NewInMemoryStore()
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.NewLimiter(limitStore, cfg.SessionRateLimit, cfg.SessionRateWindow)

	wizard := handler.New(sessions, artifacts, verifier, tokens, log,
		handler.WithCreateLimiter(ratelimit.Middleware(limiter, log)))
	router := httptransport.NewRouter(wizard, metrics.New(), checks)
	srv := httpserver.New(cfg.Addr, router)

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting idguardian", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		stopWorker()
		<-workerDone
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Stop the audit worker after the server drains so in-flight requests can
	// still emit events; Run flushes the inbox on cancellation.
	stopWorker()
	<-workerDone
	return nil
}
