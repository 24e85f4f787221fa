package gamification

import (
	"encoding/json"
	"net/http"

	"vida_smart_backend/platform/httpkit"
	"vida_smart_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles gamification HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new gamification handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandleGetSummary returns XP, level and streak for the authenticated user.
// GET /api/v1/gamification/summary
func (h *Handler) HandleGetSummary(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

// HandleListRewards returns the active reward catalog.
// GET /api/v1/gamification/rewards
func (h *Handler) HandleListRewards(c *gin.Context) {
	rewards, err := h.service.ListRewards(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rewards": rewards})
}

// HandleListRedemptions returns the user's redemption history.
// GET /api/v1/gamification/redemptions
func (h *Handler) HandleListRedemptions(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	redemptions, err := h.service.ListRedemptions(c.Request.Context(), id.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"redemptions": redemptions})
}

// RedeemRequest is the request body for redeeming a reward.
type RedeemRequest struct {
	RewardID     string          `json:"rewardId" validate:"required,uuid"`
	DeliveryInfo json.RawMessage `json:"deliveryInfo"`
}

// HandleRedeem exchanges XP for a reward.
// POST /api/v1/gamification/redeem
func (h *Handler) HandleRedeem(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "rewardId é obrigatório", nil)
		return
	}

	result, err := h.service.Redeem(c.Request.Context(), id.UserID(), rewardID, req.DeliveryInfo)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"success":     true,
		"redemption":  result.Redemption,
		"reward":      result.Reward,
		"userXPAfter": result.UserXPAfter,
	})
}
