package productcontroller

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/storage"
)

// GetProducts lists products, optionally narrowed by the search, category,
// storeId, minPrice and maxPrice query parameters.
// GET /api/products
func GetProducts(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ProductFilter{
			Search:   c.Query("search"),
			Category: c.Query("category"),
		}
		if v := c.Query("storeId"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid storeId"})
				return
			}
			filter.StoreID = uint(id)
		}
		for name, dst := range map[string]*decimal.NullDecimal{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
			if v := c.Query(name); v != "" {
				d, err := decimal.NewFromString(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
					return
				}
				*dst = decimal.NewNullDecimal(d)
			}
		}

		products, err := store.ListProducts(c.Request.Context(), filter)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /api/products/featured?limit=
func GetFeaturedProducts(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		products, err := store.FeaturedProducts(c.Request.Context(), limit)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /api/products/offers
func GetOffers(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := store.DiscountedProducts(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /api/products/:id
func GetProductByID(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		product, err := store.GetProduct(c.Request.Context(), id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// GET /api/products/:id/reviews
func GetProductReviews(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		if _, err := store.GetProduct(ctx, id); err != nil {
			respond.Error(c, log, err)
			return
		}
		reviews, err := store.ProductReviews(ctx, id)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, reviews)
	}
}
