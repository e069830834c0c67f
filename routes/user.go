package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/yemenmarket/marketplace-api/controllers/cart"
	userControllers "github.com/yemenmarket/marketplace-api/controllers/user"
)

// SetupUserRoutes registers the cart and profile endpoints. Requires JWT middleware.
func SetupUserRoutes(api *gin.RouterGroup, d Deps, requireUser gin.HandlerFunc) {
	api.GET("/me", requireUser, userControllers.GetMe(d.Store, d.Log))

	// ──────────────── Shopping Cart ────────────────
	cartGroup := api.Group("/cart")
	cartGroup.Use(requireUser)
	{
		cartGroup.GET("", cartControllers.GetCart(d.Carts, d.Log))                 // GET /api/cart
		cartGroup.DELETE("", cartControllers.ClearCart(d.Carts, d.Log))            // DELETE /api/cart
		cartGroup.POST("/items", cartControllers.AddItem(d.Carts, d.Log))          // POST /api/cart/items
		cartGroup.PATCH("/items/:id", cartControllers.UpdateItem(d.Carts, d.Log))  // PATCH /api/cart/items/:id
		cartGroup.DELETE("/items/:id", cartControllers.RemoveItem(d.Carts, d.Log)) // DELETE /api/cart/items/:id
	}
}
