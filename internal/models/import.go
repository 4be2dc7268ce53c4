package models

// ImportColumns returns the ordered header contract for the bulk upload sheet.
// The header row must match these names case-insensitively and positionally.
func ImportColumns() []string {
	return []string{
		"title",
		"description",
		"price",
		"stock_quantity",
		"categorytitle",
		"brandtitle",
		"currency",
		"image1",
		"image2",
		"image3",
		"image4",
		"image5",
	}
}

// Zero-based column positions within the import header.
const (
	ImportColTitle         = 0
	ImportColDescription   = 1
	ImportColPrice         = 2
	ImportColStockQuantity = 3
	ImportColCategory      = 4
	ImportColBrand         = 5
	ImportColCurrency      = 6
	ImportColFirstImage    = 7
	ImportMaxImages        = 5
)

// ImportImageColumns returns the zero-based indices of the image slot columns.
func ImportImageColumns() []int {
	cols := make([]int, 0, ImportMaxImages)
	for i := 0; i < ImportMaxImages; i++ {
		cols = append(cols, ImportColFirstImage+i)
	}
	return cols
}

// FailureRecord reports a single failed row. A row fails at most once; the
// only exception is a row created successfully whose image upload then fails,
// which is counted as created and reported here as well.
type FailureRecord struct {
	RowNumber int    `json:"rowNumber"`
	Reason    string `json:"reason"`
}

// ImportSummary is the synchronous result of a bulk upload run.
type ImportSummary struct {
	TotalRows     int             `json:"totalRows"`
	ProcessedRows int             `json:"processedRows"`
	CreatedCount  int             `json:"createdCount"`
	FailedCount   int             `json:"failedCount"`
	Failures      []FailureRecord `json:"failures"`
	CreatedSKUs   []string        `json:"createdSkus"`
}

// AddFailure appends a failure record and bumps the failed counter.
func (s *ImportSummary) AddFailure(rowNumber int, reason string) {
	s.Failures = append(s.Failures, FailureRecord{RowNumber: rowNumber, Reason: reason})
	s.FailedCount = len(s.Failures)
}
