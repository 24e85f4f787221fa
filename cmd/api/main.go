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

	"vida_smart_backend/internal/coach"
	"vida_smart_backend/internal/email"
	"vida_smart_backend/internal/events"
	"vida_smart_backend/internal/gamification"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/internal/http/router"
	"vida_smart_backend/internal/plans"
	"vida_smart_backend/internal/proactive"
	"vida_smart_backend/internal/scheduler"
	"vida_smart_backend/internal/webhook"
	"vida_smart_backend/internal/whatsapp"
	"vida_smart_backend/platform/ai/openaichat"
	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/db"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis backs the webhook rate limiter. Without it the limiter
	// fails open, so a missing REDIS_URL only degrades, never blocks.
	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	llm := openaichat.New(cfg)

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("EVOLUTION_BASE_URL not configured; outbound WhatsApp disabled")
	}

	emailSender := email.NewSMTPSender(cfg)
	email.SubscribeEmergencyAlerts(eventBus, emailSender, log)

	jobQueue, closeQueue := initJobQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	loc := coachLocation(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	plansModule := plans.NewModule(pool, llm, eventBus, val, log)
	coachModule := coach.NewModule(pool, llm, plansModule.Service(), eventBus, val, log)
	gamificationModule := gamification.NewModule(pool, eventBus, val, log)
	proactiveModule := proactive.NewModule(pool, whatsappClient, loc, eventBus, val, log)
	webhookModule := webhook.NewModule(pool, rdb, coachModule.Service(), whatsappClient, proactiveModule.Service(), cfg, eventBus, log)
	whatsappModule := whatsapp.NewModule(whatsappClient, val)

	if jobQueue != nil {
		plansModule.SetJobQueue(jobQueue)
		webhookModule.SetQueue(jobQueue)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			coachModule,
			plansModule,
			gamificationModule,
			proactiveModule,
			webhookModule,
			whatsappModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initJobQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background jobs disabled")
		return nil, nil
	}

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize job queue client", "error", err)
		return nil, nil
	}

	return queueClient, func() {
		_ = queueClient.Close()
	}
}

func initRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; webhook rate limiting disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; webhook rate limiting disabled", "error", err)
		return nil
	}

	return redis.NewClient(opt)
}

func coachLocation(cfg config.SchedulerConfig, log *logger.Logger) *time.Location {
	loc, err := time.LoadLocation(cfg.GetCoachTimezone())
	if err != nil {
		log.Warn("invalid coach timezone, falling back to UTC", "timezone", cfg.GetCoachTimezone(), "error", err)
		return time.UTC
	}
	return loc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
