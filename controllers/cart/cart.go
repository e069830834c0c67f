package cartControllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/services"
)

// AddItemInput adds one unit when quantity is left out.
type AddItemInput struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  *int `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GET /api/cart
func GetCart(carts *services.CartService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		view, err := carts.GetCart(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// POST /api/cart/items
func AddItem(carts *services.CartService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		quantity := 1
		if input.Quantity != nil {
			quantity = *input.Quantity
		}

		item, err := carts.AddItem(c.Request.Context(), userID, input.ProductID, quantity)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// PATCH /api/cart/items/:id
func UpdateItem(carts *services.CartService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		itemID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respond.BadRequest(c, err)
			return
		}

		item, err := carts.UpdateQuantity(c.Request.Context(), userID, itemID, input.Quantity)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// DELETE /api/cart/items/:id
func RemoveItem(carts *services.CartService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		itemID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		if err := carts.RemoveItem(c.Request.Context(), userID, itemID); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DELETE /api/cart
func ClearCart(carts *services.CartService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		if err := carts.ClearCart(c.Request.Context(), userID); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
