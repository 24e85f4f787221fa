// Package gamification provides the XP, rewards and redemption bounded
// context.
package gamification

import (
	"vida_smart_backend/internal/events"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the gamification bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the gamification module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, eventBus, log)
	handler := NewHandler(service, val)

	return &Module{handler: handler}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "gamification"
}

// RegisterRoutes mounts gamification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/gamification")
	group.GET("/summary", m.handler.HandleGetSummary)
	group.GET("/rewards", m.handler.HandleListRewards)
	group.GET("/redemptions", m.handler.HandleListRedemptions)
	group.POST("/redeem", m.handler.HandleRedeem)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
