package eventlog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"auditwatch/internal/constants"
	"auditwatch/internal/logger"
	"auditwatch/pkg/errors"
)

type Handler struct {
	store  Store
	logger logger.Logger
}

func NewHandler(store Store, log logger.Logger) *Handler {
	return &Handler{store: store, logger: log}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/api/eventlogitems", h.List)
}

// @Summary      List event log items
// @Description  Get the most recent monitoring events, newest first
// @Tags         eventlog
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of items"
// @Success      200    {array}   Item
// @Failure      500    {object}  map[string]interface{}
// @Router       /eventlogitems [get]
func (h *Handler) List(c *gin.Context) {
	items, err := h.store.List(c.Request.Context(), parseLimit(c.Query("limit")))
	if err != nil {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}
	if items == nil {
		items = []Item{}
	}
	c.JSON(http.StatusOK, items)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return constants.DefaultLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > constants.MaxLimit {
		return constants.DefaultLimit
	}
	return parsed
}
