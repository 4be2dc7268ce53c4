package importer

import (
	"context"

	"github.com/sirupsen/logrus"

	"catalog-service/internal/events"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
)

// Importer runs the bulk upload pipeline end to end: decode the spreadsheet,
// validate the header eagerly, then push every data row as far as it can get.
// Only an unreadable document or a wrong header fails the whole batch; every
// other problem becomes a per-row failure record in the returned summary.
type Importer struct {
	store     Store
	engine    *Engine
	publisher *events.Publisher
	logger    *logrus.Logger
}

// New wires the pipeline. publisher may be nil.
func New(store Store, uploader Uploader, publisher *events.Publisher, logger *logrus.Logger) *Importer {
	return &Importer{
		store:     store,
		engine:    NewEngine(store, uploader, logger),
		publisher: publisher,
		logger:    logger,
	}
}

// Import processes one uploaded spreadsheet. The authorization header of the
// originating request is forwarded to the files backend for embedded image
// uploads.
func (imp *Importer) Import(ctx context.Context, data []byte, authorization string) (*models.ImportSummary, error) {
	sheet, err := ReadSheet(data)
	if err != nil {
		metrics.ImportRuns.WithLabelValues("invalid_document").Inc()
		return nil, err
	}

	if err := sheet.CheckHeader(models.ImportColumns()); err != nil {
		metrics.ImportRuns.WithLabelValues("header_mismatch").Inc()
		return nil, err
	}

	media := ExtractImages(data, models.ImportImageColumns())

	summary := &models.ImportSummary{
		Failures:    []models.FailureRecord{},
		CreatedSKUs: []string{},
	}

	rows := ValidateRows(sheet, media, summary)
	allocated := imp.allocate(ctx, rows, summary)
	imp.engine.Run(ctx, allocated, authorization, summary)

	metrics.ImportRuns.WithLabelValues("completed").Inc()
	metrics.ImportRowsCreated.Add(float64(summary.CreatedCount))
	metrics.ImportRowsFailed.Add(float64(summary.FailedCount))

	imp.logger.WithFields(logrus.Fields{
		"totalRows":     summary.TotalRows,
		"processedRows": summary.ProcessedRows,
		"created":       summary.CreatedCount,
		"failed":        summary.FailedCount,
	}).Info("Bulk upload completed")

	imp.publisher.ImportCompleted(summary)

	return summary, nil
}

// allocate resolves taxonomy references and assigns SKUs. Rows that cannot be
// resolved fail individually; the rest continue to persistence.
func (imp *Importer) allocate(ctx context.Context, rows []ValidatedRow, summary *models.ImportSummary) []AllocatedRow {
	resolver := NewResolver(imp.store)
	allocator := NewAllocator(imp.store)

	allocated := make([]AllocatedRow, 0, len(rows))
	for _, row := range rows {
		category, err := resolver.Category(ctx, row.CategoryName)
		if err != nil {
			summary.AddFailure(row.RowNumber, err.Error())
			continue
		}

		brand, err := resolver.Brand(ctx, row.BrandName)
		if err != nil {
			summary.AddFailure(row.RowNumber, err.Error())
			continue
		}

		prefix, err := SKUPrefix(row.BrandName, row.CategoryName)
		if err != nil {
			summary.AddFailure(row.RowNumber, err.Error())
			continue
		}

		sku, err := allocator.Next(ctx, prefix)
		if err != nil {
			summary.AddFailure(row.RowNumber, err.Error())
			continue
		}

		allocated = append(allocated, AllocatedRow{
			ValidatedRow: row,
			CategoryID:   category.ID,
			BrandID:      brand.ID,
			SKUPrefix:    prefix,
			SKU:          sku,
		})
	}
	return allocated
}
