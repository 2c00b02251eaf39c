package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// emptyTwiML acknowledges an inbound Twilio message without replying
const emptyTwiML = "<Response></Response>"

// SystemHandler serves the unauthenticated operational endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// WhatsAppWebhook godoc
// @Summary      Inbound WhatsApp message
// @Description  Twilio callback. The message is logged and acknowledged with empty TwiML.
// @Tags         system
// @Accept       x-www-form-urlencoded
// @Produce      xml
// @Param        From formData string false "Sender"
// @Param        Body formData string false "Message text"
// @Success      200 {string} string "<Response></Response>"
// @Router       /webhooks/whatsapp [post]
func (h *SystemHandler) WhatsAppWebhook(c *gin.Context) {
	logger.L(c.Request.Context()).Info("Inbound WhatsApp message",
		zap.String("from", c.PostForm("From")),
		zap.String("body", c.PostForm("Body")),
	)
	c.Data(http.StatusOK, "application/xml", []byte(emptyTwiML))
}
