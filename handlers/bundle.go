package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"servicehub/middleware"
	"servicehub/models"
	"servicehub/services/api"
	"servicehub/services/catalog"
	"servicehub/services/payment"
	"servicehub/services/policy"
	"servicehub/services/realtime"
	"servicehub/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DeviceRegistrar is satisfied by *notification.Relay.
type DeviceRegistrar interface {
	Register(ctx context.Context, d models.Device) error
}

// HandlerBundle carries the dependencies every endpoint handler shares.
type HandlerBundle struct {
	API      *api.Client
	Realtime *realtime.Manager
	Devices  DeviceRegistrar
	Payments *payment.Service
	Catalog  *catalog.Service
	Assets   catalog.AssetResolver

	// Location is the zone booking slots are expressed in.
	Location *time.Location
	Now      func() time.Time
	// Redis is nil when Redis is not configured.
	Redis *redis.Client
}

func (hb *HandlerBundle) now() time.Time {
	if hb.Now != nil {
		return hb.Now()
	}
	return time.Now()
}

func (hb *HandlerBundle) location() *time.Location {
	if hb.Location != nil {
		return hb.Location
	}
	return time.Local
}

// client returns the remote API client for the caller's role.
func (hb *HandlerBundle) client(c *gin.Context) *api.Client {
	_, role := middleware.CurrentUser(c)
	return hb.API.WithRole(role)
}

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		utils.JSONError(c, http.StatusGatewayTimeout, "Request timed out", err.Error())
	case errors.As(err, &apiErr):
		if apiErr.Kind == api.KindServer || apiErr.Kind == api.KindNetwork {
			getLogger(c).Error("Remote API call failed", zap.Error(err))
		}
		utils.JSONError(c, api.HTTPStatus(err), api.Message(err), apiErr.Op)
	case errors.Is(err, policy.ErrReasonRequired),
		errors.Is(err, payment.ErrMissingSessionID),
		errors.Is(err, payment.ErrMissingBookingID),
		errors.Is(err, realtime.ErrEmptyMessage):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, policy.ErrSameDayCancellation),
		errors.Is(err, policy.ErrCancellationWindowClosed),
		errors.Is(err, policy.ErrInvalidSchedule),
		errors.Is(err, errActionNotAllowed):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, payment.ErrUnpaidSession):
		utils.JSONError(c, http.StatusPaymentRequired, "Payment not completed", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "Invalid input", err.Error())
}

// listQuery reads page, limit and search from the query string.
func listQuery(c *gin.Context, filters ...string) api.ListQuery {
	var q api.ListQuery
	q.Page = queryInt(c, "page")
	q.Limit = queryInt(c, "limit")
	q.Search = c.Query("search")
	for _, f := range filters {
		if v := c.Query(f); v != "" {
			if q.Filters == nil {
				q.Filters = map[string]string{}
			}
			q.Filters[f] = v
		}
	}
	return q
}
