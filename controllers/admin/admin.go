package adminController

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/services"
	"github.com/yemenmarket/marketplace-api/storage"
)

type PaymentMethodRequest struct {
	Name     string `json:"name" binding:"required"`
	Image    string `json:"image" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// GET /api/payment-methods
func GetPaymentMethods(store storage.Storage, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		methods, err := store.ListPaymentMethods(c.Request.Context())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, methods)
	}
}

// POST /admin/payment-methods
func CreatePaymentMethod(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentMethodRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		pm := &models.PaymentMethod{Name: req.Name, Image: req.Image, IsActive: req.IsActive == nil || *req.IsActive}
		if err := catalog.CreatePaymentMethod(c.Request.Context(), pm); err != nil {
			respond.Error(c, log, err)
			return
		}
		log.Info("payment method created", "payment_method_id", pm.ID)
		c.JSON(http.StatusCreated, pm)
	}
}
