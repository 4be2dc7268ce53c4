package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"catalog-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL  = 5 * time.Minute  // Single product cache
	ListCacheTTL     = 2 * time.Minute  // Product list cache (shorter due to frequent changes)
	DropdownCacheTTL = 30 * time.Minute // Categories and brands rarely change
)

const cacheKeyPrefix = "catalog:"

// ProductFilter narrows and pages the product listing.
type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Page       int
	Limit      int
}

type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{db: db, redis: redisClient}
}

// Cache helpers. Every cache operation is best effort: a missing or broken
// Redis never fails a request.

func (r *CatalogRepository) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if r.redis == nil {
		return false
	}
	data, err := r.redis.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (r *CatalogRepository) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if r.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = r.redis.Set(ctx, cacheKeyPrefix+key, data, ttl).Err()
}

func (r *CatalogRepository) cacheDeletePattern(ctx context.Context, pattern string) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, cacheKeyPrefix+pattern, 100).Iterator()
	for iter.Next(ctx) {
		_ = r.redis.Del(ctx, iter.Val()).Err()
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

func (r *CatalogRepository) invalidateProductCaches(ctx context.Context, productID uuid.UUID) {
	r.cacheDeletePattern(ctx, fmt.Sprintf("product:%s", productID.String()))
	r.cacheDeletePattern(ctx, "products:list:*")
}

func (r *CatalogRepository) invalidateTaxonomyCaches(ctx context.Context) {
	r.cacheDeletePattern(ctx, "categories:*")
	r.cacheDeletePattern(ctx, "brands:*")
}

// Product CRUD Operations

// CreateProduct creates a new product
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		r.cacheDeletePattern(ctx, "products:list:*")
	}
	return err
}

// BulkCreateProducts inserts a batch of products in one transaction. The
// batch is all or nothing; callers retry row by row on failure.
func (r *CatalogRepository) BulkCreateProducts(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now()
	for _, product := range products {
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		product.CreatedAt = now
		product.UpdatedAt = now
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(products).Error
	})
	if err == nil {
		r.cacheDeletePattern(ctx, "products:list:*")
	}
	return err
}

// GetProductByID retrieves a product with its taxonomy references
func (r *CatalogRepository) GetProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", productID.String())

	var cached models.Product
	if r.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	r.cacheSet(ctx, cacheKey, &product, ProductCacheTTL)
	return &product, nil
}

// GetProducts retrieves products with filters and pagination
func (r *CatalogRepository) GetProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	cacheKey := generateListCacheKey("products:list", filter)

	type listPage struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}
	var cached listPage
	if r.cacheGet(ctx, cacheKey, &cached) {
		return cached.Products, cached.Total, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Joins("LEFT JOIN brands ON brands.id = products.brand_id")

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"products.title ILIKE ? OR products.sku ILIKE ? OR products.currency ILIKE ? OR categories.name ILIKE ? OR brands.name ILIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	if filter.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.BrandID != nil {
		query = query.Where("products.brand_id = ?", *filter.BrandID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	offset := (filter.Page - 1) * filter.Limit
	err := query.
		Preload("Category").
		Preload("Brand").
		Order("products.created_at DESC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	r.cacheSet(ctx, cacheKey, listPage{Products: products, Total: total}, ListCacheTTL)
	return products, total, nil
}

// UpdateProduct applies partial updates to a product
func (r *CatalogRepository) UpdateProduct(ctx context.Context, productID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateProductCaches(ctx, productID)
	return nil
}

// DeleteProduct soft deletes a product and removes its gallery rows
func (r *CatalogRepository) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", productID).Delete(&models.Product{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error
	})
	if err != nil {
		return err
	}

	r.invalidateProductCaches(ctx, productID)
	return nil
}

// MaxSKUForPrefix returns the greatest persisted SKU under "<prefix>-", or ""
// when the prefix has never been used.
func (r *CatalogRepository) MaxSKUForPrefix(ctx context.Context, prefix string) (string, error) {
	var sku string
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("sku").
		Where("sku LIKE ?", prefix+"-%").
		Order("sku DESC").
		Limit(1).
		Scan(&sku).Error
	if err != nil {
		return "", err
	}
	return sku, nil
}

// SetProductImageURL sets the product's primary image URL
func (r *CatalogRepository) SetProductImageURL(ctx context.Context, productID uuid.UUID, url string) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"product_img_url": url,
			"updated_at":      time.Now(),
		}).Error
	if err == nil {
		r.invalidateProductCaches(ctx, productID)
	}
	return err
}

// Product Image Operations

// CreateProductImages persists gallery rows for a product
func (r *CatalogRepository) CreateProductImages(ctx context.Context, images []models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		if images[i].ID == uuid.Nil {
			images[i].ID = uuid.New()
		}
		images[i].CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

// GetProductImages returns a product's gallery ordered by sort order
func (r *CatalogRepository) GetProductImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("sort_order ASC").
		Find(&images).Error
	return images, err
}

// Category Operations

// FindCategoryByName looks a category up by case-insensitive name.
// Returns (nil, nil) when absent.
func (r *CatalogRepository) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetCategoryByID returns a category or (nil, nil) when absent
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("id = ?", categoryID).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// CreateCategory creates a new category
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(category).Error
	if err == nil {
		r.invalidateTaxonomyCaches(ctx)
	}
	return err
}

// GetCategories returns all categories ordered by name
func (r *CatalogRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetCategoryDropdown returns cached id+name pairs for select inputs
func (r *CatalogRepository) GetCategoryDropdown(ctx context.Context) ([]models.DropdownOption, error) {
	var cached []models.DropdownOption
	if r.cacheGet(ctx, "categories:dropdown", &cached) {
		return cached, nil
	}

	var options []models.DropdownOption
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Select("id, name").
		Order("name ASC").
		Scan(&options).Error
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, "categories:dropdown", options, DropdownCacheTTL)
	return options, nil
}

// UpdateCategory applies partial updates to a category
func (r *CatalogRepository) UpdateCategory(ctx context.Context, categoryID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("id = ?", categoryID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateTaxonomyCaches(ctx)
	return nil
}

// DeleteCategory soft deletes a category
func (r *CatalogRepository) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", categoryID).Delete(&models.Category{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateTaxonomyCaches(ctx)
	return nil
}

// Brand Operations

// FindBrandByName looks a brand up by case-insensitive name.
// Returns (nil, nil) when absent.
func (r *CatalogRepository) FindBrandByName(ctx context.Context, name string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&brand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

// GetBrandByID returns a brand or (nil, nil) when absent
func (r *CatalogRepository) GetBrandByID(ctx context.Context, brandID uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.WithContext(ctx).Where("id = ?", brandID).First(&brand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &brand, nil
}

// CreateBrand creates a new brand
func (r *CatalogRepository) CreateBrand(ctx context.Context, brand *models.Brand) error {
	if brand.ID == uuid.Nil {
		brand.ID = uuid.New()
	}
	brand.CreatedAt = time.Now()
	brand.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(brand).Error
	if err == nil {
		r.invalidateTaxonomyCaches(ctx)
	}
	return err
}

// GetBrands returns all brands ordered by name
func (r *CatalogRepository) GetBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error
	return brands, err
}

// GetBrandDropdown returns cached id+name pairs for select inputs
func (r *CatalogRepository) GetBrandDropdown(ctx context.Context) ([]models.DropdownOption, error) {
	var cached []models.DropdownOption
	if r.cacheGet(ctx, "brands:dropdown", &cached) {
		return cached, nil
	}

	var options []models.DropdownOption
	err := r.db.WithContext(ctx).Model(&models.Brand{}).
		Select("id, name").
		Order("name ASC").
		Scan(&options).Error
	if err != nil {
		return nil, err
	}

	r.cacheSet(ctx, "brands:dropdown", options, DropdownCacheTTL)
	return options, nil
}

// UpdateBrand applies partial updates to a brand
func (r *CatalogRepository) UpdateBrand(ctx context.Context, brandID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.Brand{}).
		Where("id = ?", brandID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateTaxonomyCaches(ctx)
	return nil
}

// DeleteBrand soft deletes a brand
func (r *CatalogRepository) DeleteBrand(ctx context.Context, brandID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", brandID).Delete(&models.Brand{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateTaxonomyCaches(ctx)
	return nil
}
