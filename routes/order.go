package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/yemenmarket/marketplace-api/controllers/order"
)

func SetupOrderRoutes(api *gin.RouterGroup, d Deps, requireUser gin.HandlerFunc) {
	// Turn the cart into an order
	api.POST("/checkout", requireUser, orderControllers.Checkout(d.Orders, d.Log))

	orders := api.Group("/orders")
	orders.Use(requireUser)
	{
		// Orders of the caller, newest first
		orders.GET("/user", orderControllers.GetUserOrders(d.Orders, d.Log))

		orders.GET("/:id", orderControllers.GetOrder(d.Orders, d.Log))
	}
}
