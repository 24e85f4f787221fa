package plans

import (
	"context"
	"net/http"

	"vida_smart_backend/platform/httpkit"
	"vida_smart_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// JobQueue defers plan generation to the worker. Satisfied by the
// scheduler client.
type JobQueue interface {
	EnqueuePlanGeneration(ctx context.Context, userID uuid.UUID, planType string, overrides Overrides) error
}

// Handler handles training plan HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
	queue   JobQueue
}

// NewHandler creates a new plans handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleListPlans returns the authenticated user's active plans.
// GET /api/v1/plans
func (h *Handler) HandleListPlans(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	plans, err := h.service.ActivePlans(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"plans": plans})
}

// GenerateRequest is the request body for generating one plan. Async
// requests are queued for the worker instead of blocking on the LLM call.
type GenerateRequest struct {
	PlanType  string    `json:"planType" validate:"required"`
	Overrides Overrides `json:"overrides"`
	Async     bool      `json:"async"`
}

// HandleGeneratePlan generates a single plan for the authenticated user.
// POST /api/v1/plans/generate
func (h *Handler) HandleGeneratePlan(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req GenerateRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if req.Async && h.queue != nil {
		if err := h.queue.EnqueuePlanGeneration(c.Request.Context(), id.UserID(), req.PlanType, req.Overrides); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "failed to queue plan generation", err.Error())
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": true, "planType": req.PlanType})
		return
	}

	plan, processed, err := h.service.Generate(c.Request.Context(), id.UserID(), req.PlanType, req.Overrides)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":            true,
		"plan":               plan,
		"feedbacksProcessed": processed,
	})
}

// RegenerateRequest is the request body for regenerating plans. PlanType
// accepts a string ("physical", "all") or a list of pillars.
type RegenerateRequest struct {
	PlanType  interface{} `json:"planType"`
	Overrides Overrides   `json:"overrides"`
	Summary   string      `json:"summary" validate:"max=2000"`
}

// HandleRegeneratePlans regenerates one or more plans for the
// authenticated user.
// POST /api/v1/plans/regenerate
func (h *Handler) HandleRegeneratePlans(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	h.regenerate(c, id.UserID())
}

// InternalRegenerateRequest is the service-to-service regeneration body.
type InternalRegenerateRequest struct {
	UserID    string      `json:"userId" validate:"required,uuid"`
	PlanType  interface{} `json:"planType"`
	Overrides Overrides   `json:"overrides"`
	Summary   string      `json:"summary" validate:"max=2000"`
}

// HandleInternalRegenerate regenerates plans on behalf of a user. Called
// by the scheduler worker.
// POST /api/v1/internal/plans/regenerate
func (h *Handler) HandleInternalRegenerate(c *gin.Context) {
	var req InternalRegenerateRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}

	result, err := h.service.Regenerate(c.Request.Context(), userID,
		FilterValidPlanTypes(NormalizePlanTypes(req.PlanType)), req.Overrides, req.Summary, "manual")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) regenerate(c *gin.Context, userID uuid.UUID) {
	var req RegenerateRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Regenerate(c.Request.Context(), userID,
		FilterValidPlanTypes(NormalizePlanTypes(req.PlanType)), req.Overrides, req.Summary, "manual")
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// FeedbackRequest is the request body for plan feedback.
type FeedbackRequest struct {
	PlanType string `json:"planType" validate:"required"`
	Feedback string `json:"feedback" validate:"required,min=3,max=2000"`
}

// HandleSubmitFeedback stores feedback to be incorporated on the next
// regeneration.
// POST /api/v1/plans/feedback
func (h *Handler) HandleSubmitFeedback(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req FeedbackRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	fb, err := h.service.SubmitFeedback(c.Request.Context(), id.UserID(), req.PlanType, req.Feedback)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": fb.ID, "status": fb.Status})
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return false
	}
	return true
}
