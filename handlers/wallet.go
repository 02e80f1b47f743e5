package handlers

import (
	"net/http"

	"servicehub/models"
	"servicehub/services/api"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) GetWallet(c *gin.Context) {
	w, err := hb.client(c).Wallet(c.Request.Context(), listQuery(c, "type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (hb *HandlerBundle) ListNotifications(c *gin.Context) {
	page, err := api.List[models.Notification](c.Request.Context(), hb.client(c), api.Notifications, listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
