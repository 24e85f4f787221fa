// Package coach provides the coaching conversation bounded context module.
// This file defines the module that encapsulates setup and route registration.
package coach

import (
	"vida_smart_backend/internal/events"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the coach bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates and initializes the coach module with all its dependencies.
func NewModule(pool *pgxpool.Pool, llm ChatCompleter, regenerator PlanRegenerator, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, llm, regenerator, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{
		handler: handler,
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "coach"
}

// Service exposes the turn pipeline to sibling modules (webhook inbound flow).
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts coach routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	coachGroup := ctx.Protected.Group("/coach")
	coachGroup.POST("/chat", m.handler.HandleChat)
	coachGroup.GET("/memory", m.handler.HandleGetMemory)

	adminGroup := ctx.Admin.Group("/coach")
	adminGroup.POST("/stage/reset", m.handler.HandleResetStage)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
