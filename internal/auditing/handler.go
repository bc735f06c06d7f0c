package auditing

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"auditwatch/internal/bodystorage"
	"auditwatch/internal/logger"
	"auditwatch/pkg/errors"
)

type Handler struct {
	bodies bodystorage.Storage
	logger logger.Logger
}

func NewHandler(bodies bodystorage.Storage, log logger.Logger) *Handler {
	return &Handler{bodies: bodies, logger: log}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/messages/:id/body", h.GetBody)
}

func (h *Handler) GetBody(c *gin.Context) {
	body, err := h.bodies.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
		}
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(body.Data)))
	c.Data(http.StatusOK, body.ContentType, body.Data)
}
