package whatsapp

import (
	"net/http"

	apphttp "vida_smart_backend/internal/http"
	"vida_smart_backend/platform/httpkit"
	"vida_smart_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Module exposes the admin pairing endpoint. The outbound client itself is
// shared with other modules through the composition root.
type Module struct {
	client *Client
	val    *validator.Validator
}

// NewModule creates the whatsapp module around an existing client.
func NewModule(client *Client, val *validator.Validator) *Module {
	return &Module{client: client, val: val}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "whatsapp"
}

// Client returns the shared outbound client, nil when unconfigured.
func (m *Module) Client() *Client {
	return m.client
}

// RegisterRoutes mounts the instance pairing endpoint for admins.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/whatsapp/qr", m.handleGenerateQR)
}

// QRRequest asks for a pairing code for one Evolution instance.
type QRRequest struct {
	InstanceID  string `json:"instance_id" validate:"required"`
	PhoneNumber string `json:"phone_number"`
}

func (m *Module) handleGenerateQR(c *gin.Context) {
	var req QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Instance ID is required", err.Error())
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Instance ID is required", err.Error())
		return
	}
	if m.client == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "WhatsApp não está configurado", nil)
		return
	}

	data, err := m.client.GeneratePairingQR(req.InstanceID, req.PhoneNumber)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"qr_data": data})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
