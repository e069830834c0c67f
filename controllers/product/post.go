package productcontroller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/services"
)

// ProductRequest is the JSON body of product create and update calls.
type ProductRequest struct {
	StoreID           uint                `json:"storeId"`
	Name              string              `json:"name" binding:"required"`
	Description       string              `json:"description"`
	Image             string              `json:"image"`
	Category          string              `json:"category"`
	SKU               string              `json:"sku"`
	Price             decimal.Decimal     `json:"price"`
	OldPrice          decimal.NullDecimal `json:"oldPrice"`
	Quantity          int                 `json:"quantity" binding:"min=0"`
	LowStockThreshold *int                `json:"lowStockThreshold"`
	IsInStock         *bool               `json:"isInStock"`
	IsNew             bool                `json:"isNew"`
	HasDiscount       bool                `json:"hasDiscount"`
	IsBestseller      bool                `json:"isBestseller"`
	Weight            float64             `json:"weight"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:              r.Name,
		Description:       r.Description,
		Image:             r.Image,
		Category:          r.Category,
		SKU:               r.SKU,
		Price:             r.Price,
		OldPrice:          r.OldPrice,
		Quantity:          r.Quantity,
		LowStockThreshold: r.LowStockThreshold,
		IsInStock:         r.IsInStock,
		IsNew:             r.IsNew,
		HasDiscount:       r.HasDiscount,
		IsBestseller:      r.IsBestseller,
		Weight:            r.Weight,
	}
}

// POST /api/products
func CreateProduct(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.BadRequest(c, err)
			return
		}
		if req.StoreID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "storeId is required"})
			return
		}

		product, err := catalog.CreateProduct(c.Request.Context(), userID, req.StoreID, req.input())
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}
