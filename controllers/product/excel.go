package productcontroller

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/yemenmarket/marketplace-api/controllers/respond"
	"github.com/yemenmarket/marketplace-api/services"
)

// Spreadsheet columns shared by import and export. Export prepends an ID
// column, which import skips when the header starts with it.
var sheetColumns = []string{
	"Name", "Description", "Price", "OldPrice", "Quantity",
	"LowStockThreshold", "Category", "Image", "SKU", "Weight",
}

// POST /api/stores/:id/products/import
//
// The first row is a header. The whole sheet is rejected when any row is
// invalid.
func ImportProductsFromExcel(catalog *services.CatalogService, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := respond.UserID(c)
		if !ok {
			return
		}
		storeID, ok := respond.ID(c, "id")
		if !ok {
			return
		}

		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is required"})
			return
		}
		file, err := excelFileHeader.Open()
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel file"})
			return
		}
		if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Excel file is empty or missing header row"})
			return
		}

		rows := xlFile.Sheets[0].Rows
		offset := 0
		if header := rows[0]; header != nil && len(header.Cells) > 0 &&
			strings.EqualFold(strings.TrimSpace(header.Cells[0].String()), "ID") {
			offset = 1
		}

		var inputs []services.ProductInput
		for i, row := range rows[1:] {
			in, skip, err := parseRow(row, offset)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("row %d: %v", i+2, err)})
				return
			}
			if !skip {
				inputs = append(inputs, in)
			}
		}

		created, err := catalog.ImportProducts(c.Request.Context(), userID, storeID, inputs)
		if err != nil {
			respond.Error(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": len(created),
		})
	}
}

// parseRow reads one product row. Blank rows are skipped.
func parseRow(row *xlsx.Row, offset int) (in services.ProductInput, skip bool, err error) {
	get := func(index int) string {
		index += offset
		if row != nil && index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	blank := true
	for i := range sheetColumns {
		if get(i) != "" {
			blank = false
			break
		}
	}
	if blank {
		return in, true, nil
	}

	in.Name = get(0)
	in.Description = get(1)
	if in.Price, err = decimal.NewFromString(get(2)); err != nil {
		return in, false, fmt.Errorf("invalid price %q", get(2))
	}
	if v := get(3); v != "" {
		old, err := decimal.NewFromString(v)
		if err != nil {
			return in, false, fmt.Errorf("invalid old price %q", v)
		}
		in.OldPrice = decimal.NewNullDecimal(old)
	}
	if v := get(4); v != "" {
		if in.Quantity, err = strconv.Atoi(v); err != nil {
			return in, false, fmt.Errorf("invalid quantity %q", v)
		}
	}
	if v := get(5); v != "" {
		threshold, err := strconv.Atoi(v)
		if err != nil {
			return in, false, fmt.Errorf("invalid low stock threshold %q", v)
		}
		in.LowStockThreshold = &threshold
	}
	in.Category = get(6)
	in.Image = get(7)
	in.SKU = get(8)
	if v := get(9); v != "" {
		if in.Weight, err = strconv.ParseFloat(v, 64); err != nil {
			return in, false, fmt.Errorf("invalid weight %q", v)
		}
	}
	return in, false, nil
}
