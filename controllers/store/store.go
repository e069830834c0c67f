package storeControllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

type StoreRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Logo        string `json:"logo"`
	CoverImage  string `json:"coverImage"`
	Category    string `json:"category" binding:"required"`
}

// GET /api/stores
func GetStores(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stores, err := store.ListStores(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, stores)
	}
}

// GET /api/stores/featured?limit=
func GetFeaturedStores(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		stores, err := store.FeaturedStores(c.Request.Context(), limit)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, stores)
	}
}

// GET /api/stores/:id
func GetStore(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		st, err := store.GetStore(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// GET /api/stores/:id/products
func GetStoreProducts(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := store.GetStore(ctx, id); err != nil {
			respond.Error(c, log, err)
			return
		}
		products, err := store.ListProducts(ctx, models.ProductFilter{StoreID: id})
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /api/stores/:id/reviews
func GetStoreReviews(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := store.GetStore(ctx, id); err != nil {
			respond.Error(c, log, err)
			return
		}
		reviews, err := store.StoreReviews(ctx, id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}

// POST /api/stores
func CreateStore(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		var req StoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		st := &models.Store{
			Name:        req.Name,
			Description: req.Description,
			Logo:        req.Logo,
			CoverImage:  req.CoverImage,
			Category:    req.Category,
		}
		if err := catalog.CreateStore(c.Request.Context(), userID, st); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, st)
	}
}

// POST /api/stores/:id/subscribe
func Subscribe(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		st, err := catalog.Subscribe(c.Request.Context(), userID, id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

// GET /api/stores/:id/low-stock
func GetLowStock(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		products, err := catalog.LowStock(c.Request.Context(), userID, id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
