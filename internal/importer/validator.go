package importer

import (
	"strconv"
	"strings"

	"catalog-service/internal/models"
)

// junk placeholder some export tools write into empty image cells.
const objectPlaceholder = "[object Object]"

// ValidateRows walks the data rows, skips blanks, and splits the rest into
// validated rows and per-row failure records. Validation is first-failure-wins:
// a row contributes at most one failure, in a fixed check order, so the
// summary stays deterministic for a given sheet.
func ValidateRows(sheet *Sheet, media *MediaSet, summary *models.ImportSummary) []ValidatedRow {
	validated := make([]ValidatedRow, 0, len(sheet.Rows))

	for i := range sheet.Rows {
		// Data row i sits at spreadsheet row i+2 (row 1 is the header).
		rowNumber := i + 2

		if rowIsBlank(sheet, i) {
			continue
		}
		summary.TotalRows++
		summary.ProcessedRows++

		row, reason := validateRow(sheet, i, rowNumber)
		if reason != "" {
			summary.AddFailure(rowNumber, reason)
			continue
		}

		// Explicit URLs win over anything embedded in the document.
		if len(row.ImageURLs) == 0 {
			if imgs := media.ForRow(rowNumber); len(imgs) > 0 {
				row.EmbeddedImages = imgs
			} else if media != nil && media.Fallback != nil {
				row.EmbeddedImages = []EmbeddedImage{*media.Fallback}
			}
		}

		validated = append(validated, row)
	}

	return validated
}

func validateRow(sheet *Sheet, dataRow, rowNumber int) (ValidatedRow, string) {
	row := ValidatedRow{RowNumber: rowNumber}

	row.Title = sheet.Cell(dataRow, models.ImportColTitle)
	if row.Title == "" {
		return row, "Title is required"
	}

	row.CategoryName = sheet.Cell(dataRow, models.ImportColCategory)
	if row.CategoryName == "" {
		return row, "Category title is required"
	}

	row.BrandName = sheet.Cell(dataRow, models.ImportColBrand)
	if row.BrandName == "" {
		return row, "Brand title is required"
	}

	row.Currency = sheet.Cell(dataRow, models.ImportColCurrency)
	if row.Currency == "" {
		return row, "Currency is required"
	}

	price, err := strconv.ParseFloat(sheet.Cell(dataRow, models.ImportColPrice), 64)
	if err != nil {
		return row, "Price must be a valid number"
	}
	row.Price = price

	stock, err := strconv.Atoi(sheet.Cell(dataRow, models.ImportColStockQuantity))
	if err != nil {
		return row, "Stock quantity must be a valid integer"
	}
	row.StockQuantity = stock

	row.Description = sheet.Cell(dataRow, models.ImportColDescription)

	for _, col := range models.ImportImageColumns() {
		value := sheet.Cell(dataRow, col)
		if value == "" || strings.EqualFold(value, objectPlaceholder) {
			continue
		}
		row.ImageURLs = append(row.ImageURLs, value)
	}

	return row, ""
}

// rowIsBlank reports whether every tracked column of the data row is empty.
func rowIsBlank(sheet *Sheet, dataRow int) bool {
	for col := 0; col < len(models.ImportColumns()); col++ {
		if sheet.Cell(dataRow, col) != "" {
			return false
		}
	}
	return true
}
