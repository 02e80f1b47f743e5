package handlers

import (
	"net/http"

	"servicehub/middleware"
	"servicehub/services/actions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartCheckout returns the hosted checkout URL for a full-page redirect.
func (hb *HandlerBundle) StartCheckout(c *gin.Context) {
	v, ok := hb.loadFor(c, actions.ActionPay)
	if !ok {
		return
	}
	url, err := hb.Payments.StartCheckout(c.Request.Context(), hb.client(c), v.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Checkout started", zap.String("bookingId", v.ID))
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// VerifyPayment is hit when the browser returns from checkout with ?session_id=.
func (hb *HandlerBundle) VerifyPayment(c *gin.Context) {
	_, role := middleware.CurrentUser(c)
	b, err := hb.Payments.Verify(c.Request.Context(), hb.client(c), c.Query("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hb.decorate(b, role))
}
