package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catalog-service/internal/models"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	categories map[string]*models.Category
	brands     map[string]*models.Brand
	maxSKU     map[string]string

	products []*models.Product
	images   []models.ProductImage
	primary  map[uuid.UUID]string

	categoryCreates int
	brandCreates    int
	seedLookups     int

	bulkErr           error
	createProductErr  map[string]error
	createCategoryErr error

	// when set, a failing CreateCategory also makes the name findable,
	// emulating a concurrent writer winning the insert race
	categoryRaceWinner *models.Category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:       make(map[string]*models.Category),
		brands:           make(map[string]*models.Brand),
		maxSKU:           make(map[string]string),
		primary:          make(map[uuid.UUID]string),
		createProductErr: make(map[string]error),
	}
}

func (s *fakeStore) FindCategoryByName(_ context.Context, name string) (*models.Category, error) {
	return s.categories[strings.ToLower(strings.TrimSpace(name))], nil
}

func (s *fakeStore) CreateCategory(_ context.Context, category *models.Category) error {
	if s.createCategoryErr != nil {
		if s.categoryRaceWinner != nil {
			s.categories[strings.ToLower(category.Name)] = s.categoryRaceWinner
		}
		return s.createCategoryErr
	}
	s.categoryCreates++
	category.ID = uuid.New()
	s.categories[strings.ToLower(category.Name)] = category
	return nil
}

func (s *fakeStore) FindBrandByName(_ context.Context, name string) (*models.Brand, error) {
	return s.brands[strings.ToLower(strings.TrimSpace(name))], nil
}

func (s *fakeStore) CreateBrand(_ context.Context, brand *models.Brand) error {
	s.brandCreates++
	brand.ID = uuid.New()
	s.brands[strings.ToLower(brand.Name)] = brand
	return nil
}

func (s *fakeStore) MaxSKUForPrefix(_ context.Context, prefix string) (string, error) {
	s.seedLookups++
	return s.maxSKU[prefix], nil
}

func (s *fakeStore) CreateProduct(_ context.Context, product *models.Product) error {
	if err := s.createProductErr[product.SKU]; err != nil {
		return err
	}
	product.ID = uuid.New()
	s.products = append(s.products, product)
	return nil
}

func (s *fakeStore) BulkCreateProducts(ctx context.Context, products []*models.Product) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	for _, product := range products {
		if err := s.CreateProduct(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeStore) CreateProductImages(_ context.Context, images []models.ProductImage) error {
	s.images = append(s.images, images...)
	return nil
}

func (s *fakeStore) SetProductImageURL(_ context.Context, productID uuid.UUID, url string) error {
	s.primary[productID] = url
	return nil
}

func (s *fakeStore) productBySKU(sku string) *models.Product {
	for _, product := range s.products {
		if product.SKU == sku {
			return product
		}
	}
	return nil
}

// fakeUploader records uploads and can be forced to fail.
type fakeUploader struct {
	uploads []string
	authz   []string
	err     error
}

func (u *fakeUploader) UploadProductImage(_ context.Context, productID, fileName, _ string, _ []byte, authorization string) (*UploadedImage, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.uploads = append(u.uploads, fileName)
	u.authz = append(u.authz, authorization)
	return &UploadedImage{
		URL:      fmt.Sprintf("https://files.example.com/%s/%s", productID, fileName),
		FileName: fileName,
	}, nil
}
