package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCategories handles GET /api/catalog/categories.
func (hb *HandlerBundle) GetCategories(c *gin.Context) {
	page, err := hb.Catalog.Categories(c.Request.Context(), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetServicesByCategory handles GET /api/catalog/categories/:id/services.
func (hb *HandlerBundle) GetServicesByCategory(c *gin.Context) {
	page, err := hb.Catalog.ServicesByCategory(c.Request.Context(), c.Param("id"), listQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
