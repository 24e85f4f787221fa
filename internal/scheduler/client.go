// Package scheduler provides asynq-backed background jobs: the periodic
// proactive sweep, deferred plan generation and queued WhatsApp sends.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"vida_smart_backend/internal/plans"
	"vida_smart_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultQueue = "default"

// Client enqueues background tasks.
type Client struct {
	client *asynq.Client
}

// NewClient creates the task client from scheduler config.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueProactiveSweep schedules one sweep run.
func (c *Client) EnqueueProactiveSweep(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.EnqueueContext(ctx, NewProactiveSweepTask(), asynq.Queue(defaultQueue))
	return err
}

// EnqueuePlanGeneration defers one plan generation to the worker.
func (c *Client) EnqueuePlanGeneration(ctx context.Context, userID uuid.UUID, planType string, overrides plans.Overrides) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewGeneratePlanTask(GeneratePlanPayload{
		UserID:    userID.String(),
		PlanType:  planType,
		Overrides: overrides,
	})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(defaultQueue), asynq.MaxRetry(3))
	return err
}

// EnqueueWhatsAppSend defers one outbound message, retried on failure.
func (c *Client) EnqueueWhatsAppSend(ctx context.Context, phone, text string) error {
	if c == nil || c.client == nil {
		return nil
	}
	task, err := NewSendWhatsAppTask(SendWhatsAppPayload{Phone: phone, Text: text})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(defaultQueue), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	return err
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
