package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category represents a product category
type Category struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex:idx_categories_name"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Brand represents a product brand
type Brand struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string          `json:"name" gorm:"not null;uniqueIndex:idx_brands_name"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// Product represents a catalog product
// sku carries a unique index; concurrent imports that race on the same
// brand+category prefix surface as a row insert failure, never as silent
// duplicates.
type Product struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title         string          `json:"title" gorm:"not null"`
	Description   *string         `json:"description,omitempty"`
	Price         float64         `json:"price" gorm:"type:numeric;not null"`
	StockQuantity int             `json:"stockQuantity" gorm:"not null"`
	CategoryID    uuid.UUID       `json:"categoryId" gorm:"type:uuid;not null;index"`
	BrandID       uuid.UUID       `json:"brandId" gorm:"type:uuid;not null;index"`
	Currency      string          `json:"currency" gorm:"not null"`
	SKU           string          `json:"sku" gorm:"not null;uniqueIndex:idx_products_sku"`
	ProductImgURL *string         `json:"productImgUrl,omitempty" gorm:"column:product_img_url"`
	Category      *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Brand         *Brand          `json:"brand,omitempty" gorm:"foreignKey:BrandID"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// ProductImage represents a gallery image attached to a product.
// SortOrder is 1..5 and contiguous per product.
type ProductImage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index;uniqueIndex:idx_product_images_product_sort"`
	URL       string    `json:"url" gorm:"not null"`
	FileName  string    `json:"fileName" gorm:"not null"`
	SortOrder int       `json:"sortOrder" gorm:"not null;uniqueIndex:idx_product_images_product_sort"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the Brand model
func (Brand) TableName() string {
	return "brands"
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductImage model
func (ProductImage) TableName() string {
	return "product_images"
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description,omitempty"`
	Price         float64 `json:"price" binding:"required"`
	StockQuantity int     `json:"stockQuantity"`
	CategoryID    string  `json:"categoryId" binding:"required"`
	BrandID       string  `json:"brandId" binding:"required"`
	Currency      string  `json:"currency" binding:"required"`
	ProductImgURL *string `json:"productImgUrl,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Title         *string  `json:"title,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	StockQuantity *int     `json:"stockQuantity,omitempty"`
	CategoryID    *string  `json:"categoryId,omitempty"`
	BrandID       *string  `json:"brandId,omitempty"`
	Currency      *string  `json:"currency,omitempty"`
}

// CreateTaxonomyRequest represents a request to create a category or brand
type CreateTaxonomyRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// UpdateTaxonomyRequest represents a request to update a category or brand
type UpdateTaxonomyRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DropdownOption is an id+name pair for select inputs
type DropdownOption struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Response types
type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}
