package coach

import (
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

// Handler handles coach HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new coach handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	Message   string `json:"message" validate:"required,min=1,max=4000"`
	SessionID string `json:"sessionId" validate:"max=100"`
}

// HandleChat processes one conversation turn for the authenticated user.
// POST /api/v1/coach/chat
func (h *Handler) HandleChat(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req ChatRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.ProcessTurn(c.Request.Context(), TurnInput{
		UserID:    id.UserID(),
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// HandleGetMemory returns the stored conversation memory.
// GET /api/v1/coach/memory
func (h *Handler) HandleGetMemory(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	entities, err := h.service.Memory(c.Request.Context(), id.UserID(), c.Query("sessionId"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"entities": entities})
}

// HandleResetStage puts a user's conversation back at first contact.
// POST /api/v1/admin/coach/stage/reset
func (h *Handler) HandleResetStage(c *gin.Context) {
	var req struct {
		UserID    string `json:"userId" validate:"required,uuid"`
		SessionID string `json:"sessionId" validate:"max=100"`
	}
	if !h.bindAndValidate(c, &req) {
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid user ID", nil)
		return
	}

	if err := h.service.ResetStage(c.Request.Context(), userID, req.SessionID); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "reset"})
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
