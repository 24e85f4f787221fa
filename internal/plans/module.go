// Package plans provides the training plan bounded context module.
// This file defines the module that encapsulates setup and route registration.
package plans

import (
	"vida_smart_backend/internal/events"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the plans bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the plans module with all its dependencies.
func NewModule(pool *pgxpool.Pool, llm JSONCompleter, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	gen := NewGenerator(repo, llm)
	service := NewService(repo, gen, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "plans"
}

// Service exposes plan regeneration to sibling modules (the coach's chat
// intent) and the scheduler.
func (m *Module) Service() *Service {
	return m.service
}

// SetJobQueue enables async plan generation through the worker queue.
func (m *Module) SetJobQueue(queue JobQueue) {
	m.handler.queue = queue
}

// RegisterRoutes mounts plan routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	plansGroup := ctx.Protected.Group("/plans")
	plansGroup.GET("", m.handler.HandleListPlans)
	plansGroup.POST("/generate", m.handler.HandleGeneratePlan)
	plansGroup.POST("/regenerate", m.handler.HandleRegeneratePlans)
	plansGroup.POST("/feedback", m.handler.HandleSubmitFeedback)

	ctx.Internal.POST("/plans/regenerate", m.handler.HandleInternalRegenerate)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
