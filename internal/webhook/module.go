package webhook

import (
	"vida_smart_backend/internal/events"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the webhook module with all its
// dependencies.
func NewModule(pool *pgxpool.Pool, rdb *redis.Client, coachEngine CoachEngine, sender Sender, proactive ProactiveTracker, cfg config.WebhookConfig, eventBus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	limiter := NewRateLimiter(rdb, cfg, log)
	service := NewService(repo, coachEngine, sender, proactive, limiter, eventBus, log)
	handler := NewHandler(service, cfg, log)

	return &Module{handler: handler, service: service}
}

// SetQueue enables queued retry for outbound sends.
func (m *Module) SetQueue(queue Queue) {
	m.service.SetQueue(queue)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the webhook endpoint. Auth is the Evolution shared
// secret in the apikey header, not JWT.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/webhook/evolution", m.handler.HandleEvolution)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
