package productcontroller

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/models"
	"github.com/yemenmarket/marketplace-api/services"
)

// GET /api/stores/:id/products/export
func ExportProductsToExcel(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		storeID, ok := respond.ID(c, "id")
		if !ok {
			return
		}
		products, err := catalog.StoreInventory(c.Request.Context(), userID, storeID)
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		file, err := productSheet(products)
		if err != nil {
			respond.Error(c, log, err)
			return
		}

		// Set response headers for download
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=store-%d-products.xlsx", storeID))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Status(http.StatusOK)

		if err := file.Write(c.Writer); err != nil {
			log.Error("failed to write Excel file", "store_id", storeID, "err", err)
		}
	}
}

func productSheet(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	headerRow.AddCell().SetString("ID")
	for _, h := range sheetColumns {
		headerRow.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		if p.OldPrice.Valid {
			row.AddCell().SetString(p.OldPrice.Decimal.StringFixed(2))
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetInt(p.Quantity)
		row.AddCell().SetInt(p.LowStockThreshold)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.Image)
		row.AddCell().SetString(p.SKU)
		row.AddCell().SetFloat(p.Weight)
	}
	return file, nil
}
