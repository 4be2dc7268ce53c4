package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// Document-fatal errors. Anything else raised during a run is captured as a
// per-row failure record and never aborts the batch.
var (
	ErrInvalidDocument = errors.New("invalid or unreadable spreadsheet document")
	ErrHeaderMismatch  = errors.New("header row does not match the import template")
)

// EmbeddedImage is a binary image extracted from inside the uploaded
// spreadsheet container. It is never persisted directly; it only becomes a
// durable URL after an upload to the files backend.
type EmbeddedImage struct {
	Data     []byte
	MIMEType string
	FileName string
}

// ValidatedRow is a raw row that passed per-row validation.
// ImageURLs and EmbeddedImages are mutually exclusive: when any explicit URL
// is present the extracted images for that row are discarded.
type ValidatedRow struct {
	RowNumber      int
	Title          string
	Description    string
	Price          float64
	StockQuantity  int
	CategoryName   string
	BrandName      string
	Currency       string
	ImageURLs      []string
	EmbeddedImages []EmbeddedImage
}

// HasEmbedded reports whether the row carries extracted images awaiting upload.
func (r *ValidatedRow) HasEmbedded() bool {
	return len(r.ImageURLs) == 0 && len(r.EmbeddedImages) > 0
}

// AllocatedRow is a validated row with resolved taxonomy references and a
// final generated SKU, ready for persistence.
type AllocatedRow struct {
	ValidatedRow
	CategoryID uuid.UUID
	BrandID    uuid.UUID
	SKUPrefix  string
	SKU        string
}

// Store is the persistence surface the pipeline needs. Lookup methods return
// (nil, nil) when the entity does not exist.
type Store interface {
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	FindBrandByName(ctx context.Context, name string) (*models.Brand, error)
	CreateBrand(ctx context.Context, brand *models.Brand) error

	// MaxSKUForPrefix returns the lexicographically greatest persisted SKU
	// matching "<prefix>-%", or "" when none exists.
	MaxSKUForPrefix(ctx context.Context, prefix string) (string, error)

	CreateProduct(ctx context.Context, product *models.Product) error
	BulkCreateProducts(ctx context.Context, products []*models.Product) error
	CreateProductImages(ctx context.Context, images []models.ProductImage) error
	SetProductImageURL(ctx context.Context, productID uuid.UUID, url string) error
}

// UploadedImage is the files backend's answer for one uploaded payload.
type UploadedImage struct {
	URL      string
	FileName string
}

// Uploader pushes extracted image payloads to the remote file-storage service.
type Uploader interface {
	UploadProductImage(ctx context.Context, productID, fileName, mimeType string, data []byte, authorization string) (*UploadedImage, error)
}
