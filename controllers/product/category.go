package productcontroller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Icon     string `json:"icon" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// GET /api/categories
func GetCategories(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := store.ListCategories(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// POST /admin/categories
func CreateCategory(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		category := &models.Category{Name: req.Name, Icon: req.Icon, IsActive: req.IsActive == nil || *req.IsActive}
		if err := catalog.CreateCategory(c.Request.Context(), category); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}
