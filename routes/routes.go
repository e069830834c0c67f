package routes

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/events"
	"github.com/yemenmarket/marketplace-api/middleware"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

// Deps carries everything the handlers need.
type Deps struct {
	Log     *slog.Logger
	Store   storage.Storage
	Carts   *services.CartService
	Orders  *services.OrderService
	Catalog *services.CatalogService
	Hub     *events.Hub

	JWTSecret   string
	AdminAPIKey string
}

// SetupRoutes is the single entry‐point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	requireUser := middleware.ValidateToken(d.JWTSecret)

	// 1️⃣ Public auth routes (no middleware)
	SetupAuthRoutes(api, d)

	// 2️⃣ Public catalog reads
	SetupCatalogRoutes(api, d)

	// 3️⃣ Cart and profile (JWT‐protected)
	SetupUserRoutes(api, d, requireUser)

	// 4️⃣ Checkout and orders (JWT‐protected)
	SetupOrderRoutes(api, d, requireUser)

	// 5️⃣ Vendor dashboard (JWT‐protected, store owner checks in services)
	SetupVendorRoutes(api, d, requireUser)

	// 6️⃣ Admin routes (API‐Key‐protected)
	SetupAdminRoutes(r, d)
}
