package reviewControllers

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

type ReviewRequest struct {
	ProductID uint   `json:"productId"`
	StoreID   uint   `json:"storeId"`
	Title     string `json:"title"`
	Content   string `json:"content" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
}

type ReplyRequest struct {
	Content string `json:"content" binding:"required"`
}

// GET /api/reviews
func GetReviews(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviews, err := store.ListReviews(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}

// GET /api/reviews/featured?limit=
func GetFeaturedReviews(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		reviews, err := store.FeaturedReviews(c.Request.Context(), limit)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}

// GET /api/reviews/:id
func GetReview(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		review, err := store.GetReview(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, review)
	}
}

// POST /api/reviews
func CreateReview(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		if req.ProductID == 0 && req.StoreID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "productId or storeId is required"})
			return
		}

		review := &models.Review{
			ProductID: req.ProductID,
			StoreID:   req.StoreID,
			Title:     req.Title,
			Content:   req.Content,
			Rating:    req.Rating,
		}
		if err := catalog.CreateReview(c.Request.Context(), userID, review); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, review)
	}
}

// POST /api/reviews/:id/reply
func ReplyToReview(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req ReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		review, err := catalog.ReplyToReview(c.Request.Context(), userID, id, req.Content)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, review)
	}
}
