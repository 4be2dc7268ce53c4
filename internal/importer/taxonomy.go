package importer

import (
	"context"
	"fmt"
	"strings"

	"catalog-service/internal/models"
)

// Resolver turns category and brand names into persisted entities, creating
// them on first sight. Names are memoized per run after trimming and
// lowercasing, so "Nike", "nike" and " NIKE " resolve to the same entity and
// cost one round trip between them.
type Resolver struct {
	store      Store
	categories map[string]*models.Category
	brands     map[string]*models.Brand
}

// NewResolver returns a Resolver with empty per-run caches.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:      store,
		categories: make(map[string]*models.Category),
		brands:     make(map[string]*models.Brand),
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Category resolves a category by name, creating it if absent.
func (r *Resolver) Category(ctx context.Context, name string) (*models.Category, error) {
	key := normalizeName(name)
	if cached, ok := r.categories[key]; ok {
		return cached, nil
	}

	category, err := r.store.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve category '%s': %w", name, err)
	}
	if category == nil {
		category = &models.Category{Name: strings.TrimSpace(name)}
		if createErr := r.store.CreateCategory(ctx, category); createErr != nil {
			// A concurrent writer may have created the same name; look it
			// up once more before giving up on the row.
			category, err = r.store.FindCategoryByName(ctx, name)
			if err != nil || category == nil {
				return nil, fmt.Errorf("cannot resolve category '%s': %v", name, createErr)
			}
		}
	}

	r.categories[key] = category
	return category, nil
}

// Brand resolves a brand by name, creating it if absent.
func (r *Resolver) Brand(ctx context.Context, name string) (*models.Brand, error) {
	key := normalizeName(name)
	if cached, ok := r.brands[key]; ok {
		return cached, nil
	}

	brand, err := r.store.FindBrandByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve brand '%s': %w", name, err)
	}
	if brand == nil {
		brand = &models.Brand{Name: strings.TrimSpace(name)}
		if createErr := r.store.CreateBrand(ctx, brand); createErr != nil {
			brand, err = r.store.FindBrandByName(ctx, name)
			if err != nil || brand == nil {
				return nil, fmt.Errorf("cannot resolve brand '%s': %v", name, createErr)
			}
		}
	}

	r.brands[key] = brand
	return brand, nil
}
