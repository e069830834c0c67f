package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/yemenmarket/marketplace-api/controllers/order"
	productcontroller "github.com/yemenmarket/marketplace-api/controllers/product"
	reviewControllers "github.com/yemenmarket/marketplace-api/controllers/review"
	storeControllers "github.com/yemenmarket/marketplace-api/controllers/store"
)

// SetupVendorRoutes registers the store dashboard writes. Requires JWT
// middleware; store ownership is checked per request.
func SetupVendorRoutes(api *gin.RouterGroup, d Deps, requireUser gin.HandlerFunc) {
	stores := api.Group("/stores")
	stores.Use(requireUser)
	{
		stores.POST("", storeControllers.CreateStore(d.Catalog, d.Log))
		stores.POST("/:id/subscribe", storeControllers.Subscribe(d.Catalog, d.Log))
		stores.GET("/:id/low-stock", storeControllers.GetLowStock(d.Catalog, d.Log))
		stores.GET("/:id/orders", orderControllers.GetStoreOrders(d.Orders, d.Log))
		stores.GET("/:id/products/export", productcontroller.ExportProductsToExcel(d.Catalog, d.Log))
		stores.POST("/:id/products/import", productcontroller.ImportProductsFromExcel(d.Catalog, d.Log))
	}

	products := api.Group("/products")
	products.Use(requireUser)
	{
		products.POST("", productcontroller.CreateProduct(d.Catalog, d.Log))
		products.PUT("/:id", productcontroller.UpdateProduct(d.Catalog, d.Log))
		products.PATCH("/:id/inventory", productcontroller.UpdateInventory(d.Catalog, d.Log))
		products.DELETE("/:id", productcontroller.DeleteProduct(d.Catalog, d.Log))
	}

	reviews := api.Group("/reviews")
	reviews.Use(requireUser)
	{
		reviews.POST("", reviewControllers.CreateReview(d.Catalog, d.Log))
		reviews.POST("/:id/reply", reviewControllers.ReplyToReview(d.Catalog, d.Log))
	}
}
