package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catalog-service/internal/models"
)

func row(cells ...string) []string { return cells }

func goodRow() []string {
	return row("Air Max", "Classic runner", "129.99", "25", "Shoes", "Nike", "USD")
}

func TestValidateRowsHappyPath(t *testing.T) {
	sheet := &Sheet{Rows: [][]string{goodRow()}}
	summary := &models.ImportSummary{}

	rows := ValidateRows(sheet, nil, summary)

	assert.Len(t, rows, 1)
	assert.Equal(t, 1, summary.ProcessedRows)
	assert.Empty(t, summary.Failures)

	got := rows[0]
	assert.Equal(t, 2, got.RowNumber)
	assert.Equal(t, "Air Max", got.Title)
	assert.Equal(t, 129.99, got.Price)
	assert.Equal(t, 25, got.StockQuantity)
	assert.Equal(t, "Shoes", got.CategoryName)
	assert.Equal(t, "Nike", got.BrandName)
	assert.Equal(t, "USD", got.Currency)
}

func TestValidateRowsSkipsBlankRows(t *testing.T) {
	sheet := &Sheet{Rows: [][]string{
		{"", "", "", "", "", "", "", "", "", "", "", ""},
		goodRow(),
		{},
	}}
	summary := &models.ImportSummary{}

	rows := ValidateRows(sheet, nil, summary)

	assert.Len(t, rows, 1)
	assert.Equal(t, 1, summary.ProcessedRows)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Equal(t, 3, rows[0].RowNumber)
}

func TestValidateRowsFailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		row    []string
		reason string
	}{
		{"missing title", row("", "d", "10", "1", "Shoes", "Nike", "USD"), "Title is required"},
		{"missing category", row("T", "d", "10", "1", "", "Nike", "USD"), "Category title is required"},
		{"missing brand", row("T", "d", "10", "1", "Shoes", "", "USD"), "Brand title is required"},
		{"missing currency", row("T", "d", "10", "1", "Shoes", "Nike", ""), "Currency is required"},
		{"bad price", row("T", "d", "abc", "1", "Shoes", "Nike", "USD"), "Price must be a valid number"},
		{"bad stock", row("T", "d", "10", "lots", "Shoes", "Nike", "USD"), "Stock quantity must be a valid integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := &models.ImportSummary{}
			rows := ValidateRows(&Sheet{Rows: [][]string{tt.row}}, nil, summary)

			assert.Empty(t, rows)
			assert.Equal(t, 1, summary.FailedCount)
			assert.Equal(t, 2, summary.Failures[0].RowNumber)
			assert.Equal(t, tt.reason, summary.Failures[0].Reason)
		})
	}
}

func TestValidateRowsReportsFirstFailureOnly(t *testing.T) {
	// Missing title and unparseable price on the same row: only the first
	// check in order reports.
	summary := &models.ImportSummary{}
	ValidateRows(&Sheet{Rows: [][]string{row("", "d", "abc", "xyz", "", "", "")}}, nil, summary)

	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, "Title is required", summary.Failures[0].Reason)
}

func TestValidateRowsCollectsImageURLs(t *testing.T) {
	cells := append(goodRow(), "https://cdn.example.com/a.png", "[object Object]", "", "https://cdn.example.com/b.png")
	summary := &models.ImportSummary{}

	rows := ValidateRows(&Sheet{Rows: [][]string{cells}}, nil, summary)

	assert.Len(t, rows, 1)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}, rows[0].ImageURLs)
}

func TestValidateRowsExplicitURLsSuppressEmbedded(t *testing.T) {
	media := &MediaSet{byRow: map[int][]EmbeddedImage{
		2: {{FileName: "embedded-row2-col8.png", MIMEType: "image/png"}},
	}}
	cells := append(goodRow(), "https://cdn.example.com/a.png")
	summary := &models.ImportSummary{}

	rows := ValidateRows(&Sheet{Rows: [][]string{cells}}, media, summary)

	assert.Len(t, rows, 1)
	assert.Empty(t, rows[0].EmbeddedImages)
	assert.False(t, rows[0].HasEmbedded())
}

func TestValidateRowsAttachesEmbeddedImages(t *testing.T) {
	media := &MediaSet{byRow: map[int][]EmbeddedImage{
		2: {{FileName: "embedded-row2-col8.png", MIMEType: "image/png"}},
	}}
	summary := &models.ImportSummary{}

	rows := ValidateRows(&Sheet{Rows: [][]string{goodRow()}}, media, summary)

	assert.Len(t, rows, 1)
	assert.True(t, rows[0].HasEmbedded())
	assert.Equal(t, "embedded-row2-col8.png", rows[0].EmbeddedImages[0].FileName)
}

func TestValidateRowsUsesFallbackImage(t *testing.T) {
	media := &MediaSet{
		byRow:    map[int][]EmbeddedImage{},
		Fallback: &EmbeddedImage{FileName: "embedded-default.png", MIMEType: "image/png"},
	}
	summary := &models.ImportSummary{}

	rows := ValidateRows(&Sheet{Rows: [][]string{goodRow()}}, media, summary)

	assert.Len(t, rows, 1)
	assert.True(t, rows[0].HasEmbedded())
	assert.Equal(t, "embedded-default.png", rows[0].EmbeddedImages[0].FileName)
}

func TestCheckHeader(t *testing.T) {
	expected := models.ImportColumns()

	ok := &Sheet{Header: []string{"Title", "DESCRIPTION", "price", "stock_quantity", "categorytitle", "brandtitle", "currency", "image1", "image2", "image3", "image4", "image5"}}
	assert.NoError(t, ok.CheckHeader(expected))

	short := &Sheet{Header: []string{"title", "description"}}
	assert.ErrorIs(t, short.CheckHeader(expected), ErrHeaderMismatch)

	wrong := &Sheet{Header: append([]string{"name"}, expected[1:]...)}
	assert.ErrorIs(t, wrong.CheckHeader(expected), ErrHeaderMismatch)
}
