package productcontroller

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/services"
)

// DELETE /api/products/:id
func DeleteProduct(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		id, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		if err := catalog.DeleteProduct(c.Request.Context(), userID, id); err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
	}
}
