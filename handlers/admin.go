package handlers

import (
	"encoding/json"
	"net/http"

	"servicehub/models"
	"servicehub/services/api"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// adminResource resolves :resource against the admin-managed collections.
func adminResource(c *gin.Context) (api.Resource, bool) {
	r, ok := api.AdminResources[c.Param("resource")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Unknown resource '" + c.Param("resource") + "'"})
	}
	return r, ok
}

// AdminList lists any admin-managed collection. Offers and coupons carry the expired flag.
func (hb *HandlerBundle) AdminList(c *gin.Context) {
	r, ok := adminResource(c)
	if !ok {
		return
	}
	ctx, client, q := c.Request.Context(), hb.client(c), listQuery(c, "status", "category")

	var (
		out any
		err error
	)
	switch r.Path {
	case api.Offers.Path:
		out, err = hb.listOffers(ctx, client, q)
	case api.Coupons.Path:
		out, err = hb.listCoupons(ctx, client, q)
	default:
		out, err = api.List[json.RawMessage](ctx, client, r, q)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (hb *HandlerBundle) AdminCreate(c *gin.Context) {
	r, ok := adminResource(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	item, err := api.Create[json.RawMessage](c.Request.Context(), hb.client(c), r, body)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Admin created item", zap.String("resource", r.Path))
	rawJSON(c, http.StatusCreated, item)
}

func (hb *HandlerBundle) AdminUpdate(c *gin.Context) {
	r, ok := adminResource(c)
	if !ok {
		return
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	item, err := api.Update[json.RawMessage](c.Request.Context(), hb.client(c), r, c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	rawJSON(c, http.StatusOK, item)
}

func (hb *HandlerBundle) AdminToggle(c *gin.Context) {
	r, ok := adminResource(c)
	if !ok {
		return
	}
	item, err := api.ToggleActive[json.RawMessage](c.Request.Context(), hb.client(c), r, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	rawJSON(c, http.StatusOK, item)
}

func (hb *HandlerBundle) AdminDelete(c *gin.Context) {
	r, ok := adminResource(c)
	if !ok {
		return
	}
	if err := api.Delete(c.Request.Context(), hb.client(c), r, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("Admin deleted item", zap.String("resource", r.Path), zap.String("id", c.Param("id")))
	c.Status(http.StatusNoContent)
}

// AdminUsers lists customer accounts.
func (hb *HandlerBundle) AdminUsers(c *gin.Context) {
	page, err := api.List[models.User](c.Request.Context(), hb.client(c), api.Users, listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// rawJSON writes an upstream item verbatim.
func rawJSON(c *gin.Context, status int, item json.RawMessage) {
	if len(item) == 0 {
		c.JSON(status, gin.H{"success": true})
		return
	}
	c.Data(status, "application/json; charset=utf-8", item)
}
