package customchecks

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	tracker *Tracker
}

func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/api/customchecks", h.List)
}

// List serves every tracked check; ?status=fail keeps only failing ones.
//
// @Summary      List custom checks
// @Tags         customchecks
// @Produce      json
// @Param        status  query    string  false  "fail to list failing checks only"
// @Success      200     {array}  Status
// @Router       /customchecks [get]
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Statuses(c.Query("status") == "fail"))
}
