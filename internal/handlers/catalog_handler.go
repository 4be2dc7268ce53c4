package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ImageDeleter removes a stored file from the remote files backend.
type ImageDeleter interface {
	DeleteProductImage(ctx context.Context, fileName, authorization string) error
}

type CatalogHandler struct {
	repo    *repository.CatalogRepository
	deleter ImageDeleter
	logger  *logrus.Logger
}

func NewCatalogHandler(repo *repository.CatalogRepository, deleter ImageDeleter, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, deleter: deleter, logger: logger}
}

func conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, models.ErrorResponse{
		Error: models.Error{Code: "CONFLICT", Message: message},
	})
}

func badRequest(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.Error{Code: code, Message: message},
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: models.Error{Code: "NOT_FOUND", Message: message},
	})
}

func internalError(c *gin.Context, logger *logrus.Logger, err error, message string) {
	logger.WithError(err).Error(message)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: models.Error{Code: "INTERNAL_ERROR", Message: message},
	})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// Product endpoints

// GetProducts lists products with search and pagination
// GET /api/v1/products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	page, limit := parsePagination(c)

	filter := repository.ProductFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "INVALID_ID", "categoryId must be a valid UUID")
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("brandId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "INVALID_ID", "brandId must be a valid UUID")
			return
		}
		filter.BrandID = &id
	}

	products, total, err := h.repo.GetProducts(c.Request.Context(), filter)
	if err != nil {
		internalError(c, h.logger, err, "Failed to list products")
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProduct returns a single product with its taxonomy references
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "Product id must be a valid UUID")
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load product")
		return
	}
	if product == nil {
		notFound(c, "Product not found")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// CreateProduct creates a single product
// POST /api/v1/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		badRequest(c, "INVALID_ID", "categoryId must be a valid UUID")
		return
	}
	brandID, err := uuid.Parse(req.BrandID)
	if err != nil {
		badRequest(c, "INVALID_ID", "brandId must be a valid UUID")
		return
	}

	ctx := c.Request.Context()
	category, err := h.repo.GetCategoryByID(ctx, categoryID)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load category")
		return
	}
	if category == nil {
		badRequest(c, "INVALID_ID", "Category does not exist")
		return
	}
	brand, err := h.repo.GetBrandByID(ctx, brandID)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load brand")
		return
	}
	if brand == nil {
		badRequest(c, "INVALID_ID", "Brand does not exist")
		return
	}

	// Single creates share the SKU scheme with bulk uploads.
	prefix, err := importer.SKUPrefix(brand.Name, category.Name)
	if err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}
	sku, err := importer.NewAllocator(h.repo).Next(ctx, prefix)
	if err != nil {
		internalError(c, h.logger, err, "Failed to allocate SKU")
		return
	}

	product := &models.Product{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    categoryID,
		BrandID:       brandID,
		Currency:      req.Currency,
		SKU:           sku,
		ProductImgURL: req.ProductImgURL,
	}
	if err := h.repo.CreateProduct(ctx, product); err != nil {
		internalError(c, h.logger, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: product})
}

// UpdateProduct applies partial updates to a product
// PUT /api/v1/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "Product id must be a valid UUID")
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			badRequest(c, "INVALID_ID", "categoryId must be a valid UUID")
			return
		}
		updates["category_id"] = categoryID
	}
	if req.BrandID != nil {
		brandID, err := uuid.Parse(*req.BrandID)
		if err != nil {
			badRequest(c, "INVALID_ID", "brandId must be a valid UUID")
			return
		}
		updates["brand_id"] = brandID
	}
	if len(updates) == 0 {
		badRequest(c, "VALIDATION_ERROR", "No updatable fields were provided")
		return
	}

	if err := h.repo.UpdateProduct(c.Request.Context(), id, updates); err != nil {
		if isNotFound(err) {
			notFound(c, "Product not found")
			return
		}
		internalError(c, h.logger, err, "Failed to update product")
		return
	}

	product, err := h.repo.GetProductByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load product")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: product})
}

// DeleteProduct soft deletes a product
// DELETE /api/v1/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "Product id must be a valid UUID")
		return
	}

	// Capture gallery file names before the rows go away.
	images, err := h.repo.GetProductImages(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load product images")
		return
	}

	if err := h.repo.DeleteProduct(c.Request.Context(), id); err != nil {
		if isNotFound(err) {
			notFound(c, "Product not found")
			return
		}
		internalError(c, h.logger, err, "Failed to delete product")
		return
	}

	// Best-effort remote cleanup; the catalog delete already succeeded.
	if h.deleter != nil {
		authorization := c.GetHeader("Authorization")
		for _, image := range images {
			if err := h.deleter.DeleteProductImage(c.Request.Context(), image.FileName, authorization); err != nil {
				h.logger.WithError(err).WithField("fileName", image.FileName).Warn("Failed to delete remote image")
			}
		}
	}

	message := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// GetProductImages returns a product's gallery
// GET /api/v1/products/:id/images
func (h *CatalogHandler) GetProductImages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", "Product id must be a valid UUID")
		return
	}

	images, err := h.repo.GetProductImages(c.Request.Context(), id)
	if err != nil {
		internalError(c, h.logger, err, "Failed to load product images")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: images})
}

// Category endpoints

// GetCategories lists all categories
// GET /api/v1/categories
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	categories, err := h.repo.GetCategories(c.Request.Context())
	if err != nil {
		internalError(c, h.logger, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: categories})
}

// GetCategoryDropdown returns id+name pairs for select inputs
// GET /api/v1/categories/dropdown
func (h *CatalogHandler) GetCategoryDropdown(c *gin.Context) {
	options, err := h.repo.GetCategoryDropdown(c.Request.Context())
	if err != nil {
		internalError(c, h.logger, err, "Failed to load category dropdown")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: options})
}

// CreateCategory creates a category
// POST /api/v1/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req models.CreateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	existing, err := h.repo.FindCategoryByName(c.Request.Context(), req.Name)
	if err != nil {
		internalError(c, h.logger, err, "Failed to create category")
		return
	}
	if existing != nil {
		conflict(c, "A category with this name already exists")
		return
	}

	category := &models.Category{Name: req.Name, Description: req.Description}
	if err := h.repo.CreateCategory(c.Request.Context(), category); err != nil {
		internalError(c, h.logger, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: category})
}

// UpdateCategory applies partial updates to a category
// PUT /api/v1/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	h.updateTaxonomy(c, func(id uuid.UUID, updates map[string]interface{}) error {
		return h.repo.UpdateCategory(c.Request.Context(), id, updates)
	}, "Category")
}

// DeleteCategory soft deletes a category
// DELETE /api/v1/categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	h.deleteTaxonomy(c, func(id uuid.UUID) error {
		return h.repo.DeleteCategory(c.Request.Context(), id)
	}, "Category")
}

// Brand endpoints

// GetBrands lists all brands
// GET /api/v1/brands
func (h *CatalogHandler) GetBrands(c *gin.Context) {
	brands, err := h.repo.GetBrands(c.Request.Context())
	if err != nil {
		internalError(c, h.logger, err, "Failed to list brands")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: brands})
}

// GetBrandDropdown returns id+name pairs for select inputs
// GET /api/v1/brands/dropdown
func (h *CatalogHandler) GetBrandDropdown(c *gin.Context) {
	options, err := h.repo.GetBrandDropdown(c.Request.Context())
	if err != nil {
		internalError(c, h.logger, err, "Failed to load brand dropdown")
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: options})
}

// CreateBrand creates a brand
// POST /api/v1/brands
func (h *CatalogHandler) CreateBrand(c *gin.Context) {
	var req models.CreateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	existing, err := h.repo.FindBrandByName(c.Request.Context(), req.Name)
	if err != nil {
		internalError(c, h.logger, err, "Failed to create brand")
		return
	}
	if existing != nil {
		conflict(c, "A brand with this name already exists")
		return
	}

	brand := &models.Brand{Name: req.Name, Description: req.Description}
	if err := h.repo.CreateBrand(c.Request.Context(), brand); err != nil {
		internalError(c, h.logger, err, "Failed to create brand")
		return
	}
	c.JSON(http.StatusCreated, models.SuccessResponse{Success: true, Data: brand})
}

// UpdateBrand applies partial updates to a brand
// PUT /api/v1/brands/:id
func (h *CatalogHandler) UpdateBrand(c *gin.Context) {
	h.updateTaxonomy(c, func(id uuid.UUID, updates map[string]interface{}) error {
		return h.repo.UpdateBrand(c.Request.Context(), id, updates)
	}, "Brand")
}

// DeleteBrand soft deletes a brand
// DELETE /api/v1/brands/:id
func (h *CatalogHandler) DeleteBrand(c *gin.Context) {
	h.deleteTaxonomy(c, func(id uuid.UUID) error {
		return h.repo.DeleteBrand(c.Request.Context(), id)
	}, "Brand")
}

func (h *CatalogHandler) updateTaxonomy(c *gin.Context, apply func(uuid.UUID, map[string]interface{}) error, entity string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", entity+" id must be a valid UUID")
		return
	}

	var req models.UpdateTaxonomyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "VALIDATION_ERROR", err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		badRequest(c, "VALIDATION_ERROR", "No updatable fields were provided")
		return
	}

	if err := apply(id, updates); err != nil {
		if isNotFound(err) {
			notFound(c, entity+" not found")
			return
		}
		internalError(c, h.logger, err, "Failed to update "+entity)
		return
	}

	message := entity + " updated"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

func (h *CatalogHandler) deleteTaxonomy(c *gin.Context, apply func(uuid.UUID) error, entity string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "INVALID_ID", entity+" id must be a valid UUID")
		return
	}

	if err := apply(id); err != nil {
		if isNotFound(err) {
			notFound(c, entity+" not found")
			return
		}
		internalError(c, h.logger, err, "Failed to delete "+entity)
		return
	}

	message := entity + " deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}
