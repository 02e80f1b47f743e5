package handlers

import (
	"net/http"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterDevice stores the caller's FCM token so notifications are also pushed.
func (hb *HandlerBundle) RegisterDevice(c *gin.Context) {
	if hb.Devices == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Push notifications are not configured", "")
		return
	}
	var d models.Device
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	d.UserID, d.Role = middleware.CurrentUser(c)

	if err := hb.Devices.Register(c.Request.Context(), d); err != nil {
		getLogger(c).Error("Failed to register device", zap.String("userId", d.UserID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Failed to register device", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"registered": true})
}
