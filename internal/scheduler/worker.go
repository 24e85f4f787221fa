package scheduler

import (
	"context"
	"time"

	"vida_smart_backend/internal/plans"
	"vida_smart_backend/internal/proactive"
	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Sweeper runs one proactive evaluation pass. Satisfied by
// *proactive.Service.
type Sweeper interface {
	Sweep(ctx context.Context) (proactive.SweepResult, error)
}

// PlanGenerator produces one plan. Satisfied by *plans.Service.
type PlanGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, planType string, overrides plans.Overrides) (plans.Plan, int, error)
}

// Sender delivers outbound WhatsApp messages. Satisfied by the whatsapp
// client.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Worker consumes the task queue and runs the periodic sweep ticker.
type Worker struct {
	server        *asynq.Server
	mux           *asynq.ServeMux
	sweeper       Sweeper
	planGenerator PlanGenerator
	sender        Sender
	sweepInterval time.Duration
	log           *logger.Logger
}

// NewWorker creates the asynq worker with all task handlers registered.
func NewWorker(cfg config.SchedulerConfig, sweeper Sweeper, planGenerator PlanGenerator, sender Sender, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			defaultQueue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:        server,
		mux:           mux,
		sweeper:       sweeper,
		planGenerator: planGenerator,
		sender:        sender,
		sweepInterval: cfg.GetProactiveSweepInterval(),
		log:           log,
	}

	mux.HandleFunc(TaskProactiveSweep, w.handleProactiveSweep)
	mux.HandleFunc(TaskGeneratePlan, w.handleGeneratePlan)
	mux.HandleFunc(TaskSendWhatsApp, w.handleSendWhatsApp)

	return w, nil
}

// Run processes tasks until the context is cancelled. A ticker enqueues
// nothing itself; it triggers the sweep inline so a single worker instance
// does not need a separate beat process.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	if w.sweepInterval > 0 {
		go w.runSweepTicker(ctx)
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) runSweepTicker(ctx context.Context) {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.handleProactiveSweep(ctx, NewProactiveSweepTask()); err != nil {
				w.log.Error("periodic proactive sweep failed", "error", err)
			}
		}
	}
}

func (w *Worker) handleProactiveSweep(ctx context.Context, _ *asynq.Task) error {
	if w.sweeper == nil {
		return nil
	}

	result, err := w.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	w.log.Info("proactive sweep finished",
		"evaluated", result.Evaluated,
		"sent", result.Sent,
		"failed", result.Failed,
	)
	return nil
}

func (w *Worker) handleGeneratePlan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseGeneratePlanPayload(task)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return err
	}

	_, feedbacks, err := w.planGenerator.Generate(ctx, userID, payload.PlanType, payload.Overrides)
	if err != nil {
		return err
	}

	w.log.Info("plan generated",
		"user_id", payload.UserID,
		"plan_type", payload.PlanType,
		"feedbacks_processed", feedbacks,
	)
	return nil
}

func (w *Worker) handleSendWhatsApp(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSendWhatsAppPayload(task)
	if err != nil {
		return err
	}
	return w.sender.SendText(ctx, payload.Phone, payload.Text)
}
