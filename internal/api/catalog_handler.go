package api

import (
	"net/http"
	"strconv"

	"github.com/Prezentytu/fiziyo-admin-portal-sub000/internal/search"

	"github.com/gin-gonic/gin"
)

// CatalogHandler queries the shared-catalog search index.
type CatalogHandler struct {
	index *search.CatalogIndex
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(index *search.CatalogIndex) *CatalogHandler {
	return &CatalogHandler{index: index}
}

// Search runs a text query over the published catalog.
func (h *CatalogHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'q' is required.")
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "25"), 10, 64)
	results, err := h.index.Search(c.Request.Context(), query, limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Catalog search failed.")
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(results))
}
