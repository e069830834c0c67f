package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/yemenmarket/marketplace-api/controllers/admin"
	productcontroller "github.com/yemenmarket/marketplace-api/controllers/product"
	reviewControllers "github.com/yemenmarket/marketplace-api/controllers/review"
	storeControllers "github.com/yemenmarket/marketplace-api/controllers/store"
	userControllers "github.com/yemenmarket/marketplace-api/controllers/user"
)

// SetupCatalogRoutes registers the public read endpoints.
func SetupCatalogRoutes(api *gin.RouterGroup, d Deps) {
	// ──────────────── Products ────────────────
	products := api.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(d.Store, d.Log))
		products.GET("/featured", productcontroller.GetFeaturedProducts(d.Store, d.Log))
		products.GET("/offers", productcontroller.GetOffers(d.Store, d.Log))
		products.GET("/:id", productcontroller.GetProductByID(d.Store, d.Log))
		products.GET("/:id/reviews", productcontroller.GetProductReviews(d.Store, d.Log))
	}

	// ──────────────── Stores ────────────────
	stores := api.Group("/stores")
	{
		stores.GET("", storeControllers.GetStores(d.Store, d.Log))
		stores.GET("/featured", storeControllers.GetFeaturedStores(d.Store, d.Log))
		stores.GET("/:id", storeControllers.GetStore(d.Store, d.Log))
		stores.GET("/:id/products", storeControllers.GetStoreProducts(d.Store, d.Log))
		stores.GET("/:id/reviews", storeControllers.GetStoreReviews(d.Store, d.Log))
	}

	// ──────────────── Reviews ────────────────
	reviews := api.Group("/reviews")
	{
		reviews.GET("", reviewControllers.GetReviews(d.Store, d.Log))
		reviews.GET("/featured", reviewControllers.GetFeaturedReviews(d.Store, d.Log))
		reviews.GET("/:id", reviewControllers.GetReview(d.Store, d.Log))
	}

	api.GET("/payment-methods", adminController.GetPaymentMethods(d.Store, d.Log))
	api.GET("/categories", productcontroller.GetCategories(d.Store, d.Log))
	api.GET("/advertisements", adminController.GetBanners(d.Store, d.Log))
	api.GET("/users/:id", userControllers.GetUser(d.Store, d.Log))
}
