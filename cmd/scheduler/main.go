package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vida_smart_backend/internal/email"
	"vida_smart_backend/internal/events"
	"vida_smart_backend/internal/plans"
	"vida_smart_backend/internal/proactive"
	"vida_smart_backend/internal/scheduler"
	"vida_smart_backend/internal/whatsapp"
	"vida_smart_backend/platform/ai/openaichat"
	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/db"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	emailSender := email.NewSMTPSender(cfg)
	email.SubscribeEmergencyAlerts(eventBus, emailSender, log)

	val := validator.New()

	llm := openaichat.New(cfg)

	whatsappClient := whatsapp.NewClient(cfg, log)
	if whatsappClient == nil {
		log.Warn("EVOLUTION_BASE_URL not configured; proactive messages cannot be delivered")
	}

	loc, err := time.LoadLocation(cfg.GetCoachTimezone())
	if err != nil {
		log.Warn("invalid coach timezone, falling back to UTC", "timezone", cfg.GetCoachTimezone(), "error", err)
		loc = time.UTC
	}

	// Worker-side wiring only; no HTTP handlers are registered here.
	plansModule := plans.NewModule(pool, llm, eventBus, val, log)
	proactiveModule := proactive.NewModule(pool, whatsappClient, loc, eventBus, val, log)

	worker, err := scheduler.NewWorker(cfg, proactiveModule.Service(), plansModule.Service(), whatsappClient, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
