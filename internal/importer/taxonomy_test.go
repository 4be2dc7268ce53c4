package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/models"
)

func TestResolverCreatesOnFirstSight(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store)

	category, err := resolver.Category(context.Background(), "Shoes")
	require.NoError(t, err)
	assert.Equal(t, "Shoes", category.Name)
	assert.Equal(t, 1, store.categoryCreates)

	// Same entity on repeat, no second create.
	again, err := resolver.Category(context.Background(), "shoes")
	require.NoError(t, err)
	assert.Equal(t, category.ID, again.ID)
	assert.Equal(t, 1, store.categoryCreates)
}

func TestResolverRecoversFromInsertRace(t *testing.T) {
	winner := &models.Category{ID: uuid.New(), Name: "Shoes"}
	store := newFakeStore()
	store.createCategoryErr = errors.New("duplicate key value violates unique constraint")
	store.categoryRaceWinner = winner

	resolver := NewResolver(store)
	category, err := resolver.Category(context.Background(), "Shoes")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, category.ID)
}

func TestResolverFailsWhenUnresolvable(t *testing.T) {
	store := newFakeStore()
	store.createCategoryErr = errors.New("connection refused")

	resolver := NewResolver(store)
	_, err := resolver.Category(context.Background(), "Shoes")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot resolve category 'Shoes'")
}
