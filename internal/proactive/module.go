package proactive

import (
	"net/http"
	"time"

	"vida_smart_backend/internal/events"
	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/httpkit"
	"vida_smart_backend/platform/logger"
	"vida_smart_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the proactive messaging bounded context module implementing
// http.Module.
type Module struct {
	service *Service
	val     *validator.Validator
}

// NewModule creates and initializes the proactive module.
func NewModule(pool *pgxpool.Pool, sender Sender, loc *time.Location, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	engine := NewEngine(repo, loc)
	service := NewService(repo, engine, sender, eventBus, log)

	return &Module{service: service, val: val}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "proactive"
}

// Service exposes the service for the scheduler worker and the webhook
// module.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the internal trigger endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Internal.Group("/proactive")
	group.POST("/sweep", m.handleSweep)
	group.POST("/evaluate", m.handleEvaluate)
}

func (m *Module) handleSweep(c *gin.Context) {
	result, err := m.service.Sweep(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// EvaluateRequest triggers an evaluation for a single user.
type EvaluateRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

func (m *Module) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "userId inválido", nil)
		return
	}

	msg, err := m.service.EvaluateUser(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	if msg == nil {
		httpkit.OK(c, gin.H{"sent": false})
		return
	}
	httpkit.OK(c, gin.H{"sent": true, "messageType": msg.Type})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
