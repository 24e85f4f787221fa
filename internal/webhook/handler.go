package webhook

import (
	"crypto/subtle"
	"net/http"

	"vida_smart_backend/platform/config"
	"vida_smart_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler receives Evolution webhook calls.
type Handler struct {
	service *Service
	secret  string
	log     *logger.Logger
}

// NewHandler creates the webhook handler.
func NewHandler(service *Service, cfg config.WebhookConfig, log *logger.Logger) *Handler {
	return &Handler{service: service, secret: cfg.GetEvolutionWebhookSecret(), log: log}
}

// HandleEvolution processes one inbound event. Malformed bodies and
// non-message events are acknowledged with 200 so Evolution does not
// retry them.
// POST /api/v1/webhook/evolution
func (h *Handler) HandleEvolution(c *gin.Context) {
	apiKey := c.GetHeader("apikey")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(h.secret)) != 1 {
		h.log.Warn("unauthorized webhook access attempt", "client_ip", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "Unauthorized"})
		return
	}

	var payload InboundPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": StatusIgnored})
		return
	}

	result, err := h.service.Process(c.Request.Context(), payload)
	if err != nil {
		h.log.Error("webhook processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": result.Status})
}
