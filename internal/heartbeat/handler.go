package heartbeat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"auditwatch/pkg/errors"
	"auditwatch/pkg/models"
)

// HandleMessage decodes a heartbeat from the transport and registers it.
func (m *Monitor) HandleMessage(ctx context.Context, msg models.TransportMessage) error {
	var hb models.HeartbeatMessage
	if err := json.Unmarshal(msg.Body, &hb); err != nil {
		return errors.ErrMalformedMessage.WithCause(err).WithMessage("heartbeat body is not valid JSON")
	}
	if err := hb.Validate(); err != nil {
		return errors.ErrMalformedMessage.WithCause(err)
	}

	m.RegisterHeartbeat(ctx, hb.EndpointName, hb.Host, hb.ExecutedAt)
	return nil
}

type Handler struct {
	monitor *Monitor
}

func NewHandler(monitor *Monitor) *Handler {
	return &Handler{monitor: monitor}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	heartbeats := router.Group("/api/heartbeats")
	{
		heartbeats.GET("", h.List)
		heartbeats.GET("/stats", h.Stats)
	}
}

// @Summary      List endpoint instances
// @Description  Get the liveness of every endpoint instance that has sent a heartbeat
// @Tags         heartbeats
// @Produce      json
// @Success      200  {array}  Status
// @Router       /heartbeats [get]
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Statuses())
}

// @Summary      Heartbeat statistics
// @Description  Count endpoint instances by liveness as of the last sweep
// @Tags         heartbeats
// @Produce      json
// @Success      200  {object}  Stats
// @Router       /heartbeats/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Stats())
}
