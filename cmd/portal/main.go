package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/candidate-portal/internal/audit"
	"github.com/stemsi/candidate-portal/internal/auth"
	"github.com/stemsi/candidate-portal/internal/candidate"
	"github.com/stemsi/candidate-portal/internal/config"
	"github.com/stemsi/candidate-portal/internal/database"
	"github.com/stemsi/candidate-portal/internal/exam"
	"github.com/stemsi/candidate-portal/internal/gateway"
	"github.com/stemsi/candidate-portal/internal/handler"
	"github.com/stemsi/candidate-portal/internal/logger"
	"github.com/stemsi/candidate-portal/internal/proctor"
	"github.com/stemsi/candidate-portal/internal/result"
	"github.com/stemsi/candidate-portal/internal/router"
	"github.com/stemsi/candidate-portal/internal/session"
	"github.com/stemsi/candidate-portal/internal/validator"
	"github.com/stemsi/candidate-portal/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("api", cfg.APIBaseURL).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Candidate Portal")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Session Store ────────────────────────────────────────────
	store, err := session.OpenBolt(cfg.SessionDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SessionDBPath).Msg("Failed to open session store")
	}
	defer store.Close()
	sess := session.New(store.Scope(session.ScopeDurable), session.NewMemoryBackend())

	// ─── Audit Queue (Redis when configured) ───────────────────────────
	var queue audit.Queue
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		queue = audit.NewRedisQueue(rdb, config.WorkerKey.ProctoringLogQueue)
	} else {
		log.Info().Int("size", cfg.AuditQueueSize).Msg("REDIS_URL not set, using in-process audit queue")
		queue = audit.NewChannelQueue(cfg.AuditQueueSize)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	client := gateway.New(cfg.APIBaseURL, cfg.HTTPTimeout, sess, log)
	authService := auth.NewService(client, sess, log)
	directory := candidate.NewDirectory(client, cfg.PageSize, log)
	viewer := result.NewViewer(client)

	policy := proctor.DefaultPolicy()
	policy.ViolationsPerWarning = cfg.ViolationsPerWarning
	policy.MaxWarnings = cfg.MaxWarnings
	examOpts := exam.Options{
		Duration: cfg.ExamDuration,
		Policy:   policy,
		Auditor:  audit.NewRecorder(queue, sess, log),
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Candidate: handler.NewCandidateHandler(directory),
		Dashboard: handler.NewDashboardHandler(directory, client, sess, log),
		Result:    handler.NewResultHandler(viewer, client),
		WS:        handler.NewWSHandler(client, examOpts, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	auditWorker := worker.NewAuditWorker(queue, client, sess, log)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		auditWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(sess, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker and wait for its final flush.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("Audit worker did not finish in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
