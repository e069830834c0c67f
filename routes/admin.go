package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/yemenmarket/marketplace-api/controllers/admin"
	orderControllers "github.com/yemenmarket/marketplace-api/controllers/order"
	productcontroller "github.com/yemenmarket/marketplace-api/controllers/product"
	"github.com/yemenmarket/marketplace-api/middleware"
)

// SetupAdminRoutes registers all “/admin/*” endpoints. Requires API‐Key middleware.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.ValidateAPIKey(d.AdminAPIKey))
	{
		// ─────────── Catalog Management ───────────
		adminGroup.POST("/categories", productcontroller.CreateCategory(d.Catalog, d.Log))
		adminGroup.POST("/payment-methods", adminController.CreatePaymentMethod(d.Catalog, d.Log))
		adminGroup.GET("/advertisements", adminController.GetAllBanners(d.Store, d.Log))
		adminGroup.POST("/advertisements", adminController.CreateBanner(d.Catalog, d.Log))

		// ─────────── Order Management ───────────
		adminGroup.PATCH("/orders/:id/status", orderControllers.UpdateOrderStatus(d.Orders, d.Log))
		adminGroup.PATCH("/orders/:id/payment-status", orderControllers.UpdatePaymentStatus(d.Orders, d.Log))
		adminGroup.PATCH("/order-items/:id/status", orderControllers.UpdateOrderItemStatus(d.Orders, d.Log))

		// websocket endpoint for real-time order updates
		adminGroup.GET("/orders/ws", orderControllers.OrderWebSocketHandler(d.Hub))
	}
}
