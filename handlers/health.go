package handlers

import (
	"net/http"

	"servicehub/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the last dependency check plus the socket manager's state.
func (hb *HandlerBundle) Health(c *gin.Context) {
	h := utils.GetHealthStatus()
	if h.CheckedAt.IsZero() {
		h = utils.CheckHealth(c.Request.Context(), hb.Redis, hb.API.Ping)
	}
	body := gin.H{"status": "ok", "health": h}
	if hb.Realtime != nil {
		body["realtime"] = hb.Realtime.Stats()
	}
	if !h.Upstream {
		body["status"] = "degraded"
	}
	c.JSON(http.StatusOK, body)
}
