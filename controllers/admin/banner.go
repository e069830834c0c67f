package adminController

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

// AdvertisementRequest describes a homepage banner. Images are URLs.
type AdvertisementRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image" binding:"required"`
	Link        string `json:"link"`
	IsActive    *bool  `json:"isActive"`
}

// GetBanners lists the active advertisements.
// GET /api/advertisements
func GetBanners(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ads, err := store.ActiveAdvertisements(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, ads)
	}
}

// GetAllBanners includes inactive advertisements.
// GET /admin/advertisements
func GetAllBanners(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ads, err := store.ListAdvertisements(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, ads)
	}
}

// POST /admin/advertisements
func CreateBanner(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdvertisementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		ad := &models.Advertisement{
			Title:       req.Title,
			Description: req.Description,
			Image:       req.Image,
			Link:        req.Link,
			IsActive:    req.IsActive == nil || *req.IsActive,
		}
		if err := catalog.CreateAdvertisement(c.Request.Context(), ad); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Banner created", "data": ad})
	}
}
