package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
)

// chunkSize bounds the number of products persisted per bulk insert.
const chunkSize = 10

// Engine persists allocated rows and attaches their images. Rows are
// processed in chunks: a chunk with no embedded images goes through a single
// bulk insert, everything else falls back to row-by-row handling so one bad
// row or one failed upload never takes its neighbors down with it.
type Engine struct {
	store    Store
	uploader Uploader
	logger   *logrus.Logger
}

// NewEngine wires a persistence engine over the given store and uploader.
func NewEngine(store Store, uploader Uploader, logger *logrus.Logger) *Engine {
	return &Engine{store: store, uploader: uploader, logger: logger}
}

// Run persists the rows and records outcomes on the summary. The
// authorization header is forwarded verbatim to the files backend.
func (e *Engine) Run(ctx context.Context, rows []AllocatedRow, authorization string, summary *models.ImportSummary) {
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		e.runChunk(ctx, rows[start:end], authorization, summary)
	}
}

func (e *Engine) runChunk(ctx context.Context, chunk []AllocatedRow, authorization string, summary *models.ImportSummary) {
	hasEmbedded := false
	for i := range chunk {
		if chunk[i].HasEmbedded() {
			hasEmbedded = true
			break
		}
	}

	if !hasEmbedded {
		if e.bulkInsert(ctx, chunk, summary) {
			return
		}
		e.logger.WithField("chunkSize", len(chunk)).Warn("Bulk insert failed, retrying rows individually")
	}

	for i := range chunk {
		e.insertRow(ctx, &chunk[i], authorization, summary)
	}
}

// bulkInsert tries the fast path for a chunk without embedded images.
// It reports false when the caller should retry the chunk row by row.
func (e *Engine) bulkInsert(ctx context.Context, chunk []AllocatedRow, summary *models.ImportSummary) bool {
	products := make([]*models.Product, len(chunk))
	for i := range chunk {
		products[i] = buildProduct(&chunk[i])
	}

	if err := e.store.BulkCreateProducts(ctx, products); err != nil {
		return false
	}

	for i := range chunk {
		summary.CreatedCount++
		summary.CreatedSKUs = append(summary.CreatedSKUs, chunk[i].SKU)
		e.attachGallery(ctx, products[i].ID, chunk[i].ImageURLs)
	}
	return true
}

// insertRow persists one product, then uploads and links its images.
// An insert failure fails the row; an image failure after a successful
// insert keeps the product and is reported alongside it.
func (e *Engine) insertRow(ctx context.Context, row *AllocatedRow, authorization string, summary *models.ImportSummary) {
	product := buildProduct(row)

	if err := e.store.CreateProduct(ctx, product); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"row": row.RowNumber,
			"sku": row.SKU,
		}).Error("Failed to insert product")
		summary.AddFailure(row.RowNumber, fmt.Sprintf("failed to insert product: %v", err))
		return
	}

	summary.CreatedCount++
	summary.CreatedSKUs = append(summary.CreatedSKUs, row.SKU)

	if row.HasEmbedded() {
		if err := e.uploadEmbedded(ctx, product, row, authorization); err != nil {
			summary.AddFailure(row.RowNumber, fmt.Sprintf("image upload failed: %v", err))
		}
		return
	}

	e.attachGallery(ctx, product.ID, row.ImageURLs)
}

// uploadEmbedded pushes the row's extracted images to the files backend and
// links the results to the product. The first successfully linked URL becomes
// the product's primary image.
func (e *Engine) uploadEmbedded(ctx context.Context, product *models.Product, row *AllocatedRow, authorization string) error {
	images := make([]models.ProductImage, 0, len(row.EmbeddedImages))
	for _, embedded := range row.EmbeddedImages {
		uploaded, err := e.uploader.UploadProductImage(ctx, product.ID.String(), embedded.FileName, embedded.MIMEType, embedded.Data, authorization)
		if err != nil {
			return err
		}
		images = append(images, models.ProductImage{
			ProductID: product.ID,
			URL:       uploaded.URL,
			FileName:  uploaded.FileName,
			SortOrder: len(images) + 1,
		})
	}

	if len(images) == 0 {
		return nil
	}

	if err := e.store.CreateProductImages(ctx, images); err != nil {
		return err
	}
	if err := e.store.SetProductImageURL(ctx, product.ID, images[0].URL); err != nil {
		return err
	}
	return nil
}

// attachGallery persists explicit URL gallery rows. Failures here are logged
// only; the product already carries its primary image URL.
func (e *Engine) attachGallery(ctx context.Context, productID uuid.UUID, urls []string) {
	if len(urls) == 0 {
		return
	}

	images := make([]models.ProductImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, models.ProductImage{
			ProductID: productID,
			URL:       url,
			FileName:  url,
			SortOrder: i + 1,
		})
	}
	if err := e.store.CreateProductImages(ctx, images); err != nil {
		e.logger.WithError(err).WithField("productId", productID).Warn("Failed to persist gallery images")
	}
}

func buildProduct(row *AllocatedRow) *models.Product {
	product := &models.Product{
		Title:         row.Title,
		Price:         row.Price,
		StockQuantity: row.StockQuantity,
		CategoryID:    row.CategoryID,
		BrandID:       row.BrandID,
		Currency:      row.Currency,
		SKU:           row.SKU,
	}
	if row.Description != "" {
		description := row.Description
		product.Description = &description
	}
	if len(row.ImageURLs) > 0 {
		primary := row.ImageURLs[0]
		product.ProductImgURL = &primary
	}
	return product
}
