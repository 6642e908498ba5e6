package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"novenantes/internal/biometric/capture"
	biohandler "novenantes/internal/biometric/handler"
	"novenantes/internal/biometric/matcher"
	biometrics "novenantes/internal/biometric/metrics"
	bioservice "novenantes/internal/biometric/service"
	biostore "novenantes/internal/biometric/store"
	"novenantes/internal/block"
	blockhandler "novenantes/internal/block/handler"
	"novenantes/internal/dashboard"
	"novenantes/internal/event"
	eventhandler "novenantes/internal/event/handler"
	"novenantes/internal/member"
	memberhandler "novenantes/internal/member/handler"
	"novenantes/internal/platform/config"
	"novenantes/internal/platform/httpserver"
	"novenantes/internal/platform/logger"
	"novenantes/internal/platform/metrics"
	"novenantes/internal/platform/middleware"
	"novenantes/internal/platform/postgres"
	platformredis "novenantes/internal/platform/redis"
	"novenantes/internal/report"
	reporthandler "novenantes/internal/report/handler"
	"novenantes/internal/user"
	userhandler "novenantes/internal/user/handler"
	"novenantes/pkg/platform/audit"
	auditkafka "novenantes/pkg/platform/audit/kafka"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives under internal/.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Sessions live in Redis when configured, in memory otherwise.
	var sessionStore user.SessionStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = user.NewRedisSessionStore(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessionStore = user.NewMemorySessionStore()
		log.Info("using in-memory session store")
	}

	// Audit trail is best-effort: without brokers it is a no-op.
	var auditPublisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log)
		if err != nil {
			log.Error("failed to start kafka audit publisher", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
	}

	users := user.NewService(
		user.NewPostgresStore(pool), sessionStore,
		[]byte(cfg.JWTSigningKey), cfg.SessionTTL, log, auditPublisher,
	)
	if err := users.EnsureDefaultAdmin(ctx); err != nil {
		log.Error("first-time setup failed", "error", err)
		os.Exit(1)
	}

	members := member.NewService(member.NewPostgresStore(pool), log, cfg.UploadsDir)
	blocks := block.NewService(block.NewPostgresStore(pool), log)
	events := event.NewService(event.NewPostgresStore(pool), log)
	reports := report.NewService(report.NewPostgresStore(pool), log)

	// The simulated reader backs deployments without a local capture agent;
	// a hardware adapter implements capture.Device against the reader SDK.
	session := capture.NewSession(capture.NewSimulatedDevice(), capture.Options{
		ConnectTimeout: cfg.Capture.ConnectTimeout,
		ScanTimeout:    cfg.Capture.ScanTimeout,
	})
	templates := biostore.NewPostgres(pool)
	orchestrator := bioservice.New(
		session, templates, matcher.New(cfg.Matcher, log), log,
		bioservice.WithMetrics(biometrics.New()),
		bioservice.WithAuditPublisher(auditPublisher),
	)

	httpMetrics := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(httpMetrics.Instrument)

	userhandler.New(users, log).Register(router)
	memberhandler.New(members, users, log).Register(router)
	blockhandler.New(blocks, users, log).Register(router)
	eventhandler.New(events, users, log).Register(router)
	reporthandler.New(reports, users, log).Register(router)
	dashboard.NewHandler(dashboard.NewPostgresStore(pool), users, log).Register(router)
	biohandler.New(orchestrator, session, templates, users, log).Register(router)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
