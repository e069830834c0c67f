package productcontroller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/services"
)

type InventoryRequest struct {
	Quantity          *int `json:"quantity" binding:"required"`
	LowStockThreshold *int `json:"lowStockThreshold"`
}

// PUT /api/products/:id
func UpdateProduct(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		product, err := catalog.UpdateProduct(c.Request.Context(), userID, id, req.input())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// PATCH /api/products/:id/inventory
func UpdateInventory(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var req InventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}

		product, err := catalog.UpdateInventory(c.Request.Context(), userID, id, *req.Quantity, req.LowStockThreshold)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
