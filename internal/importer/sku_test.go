package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Nike", "NIKE"},
		{"spaces become dashes", "Running Shoes", "RUNNING-SHOES"},
		{"punctuation stripped", "Running Shoes!", "RUNNING-SHOES"},
		{"surrounding whitespace", "  nike  ", "NIKE"},
		{"dash runs collapsed", "a--b---c", "A-B-C"},
		{"edge dashes trimmed", "-nike-", "NIKE"},
		{"only punctuation", "???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeSegment(tt.input))
		})
	}
}

func TestSKUPrefix(t *testing.T) {
	prefix, err := SKUPrefix("Nike", "Shoes")
	assert.NoError(t, err)
	assert.Equal(t, "NIKE-SHOES", prefix)

	prefix, err = SKUPrefix("Dr. Martens", "Boots & Shoes")
	assert.NoError(t, err)
	assert.Equal(t, "DR-MARTENS-BOOTS-SHOES", prefix)

	_, err = SKUPrefix("???", "Shoes")
	assert.Error(t, err)
}

func TestAllocatorStartsAtOne(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store)

	sku, err := allocator.Next(context.Background(), "NIKE-SHOES")
	assert.NoError(t, err)
	assert.Equal(t, "NIKE-SHOES-0001", sku)

	sku, err = allocator.Next(context.Background(), "NIKE-SHOES")
	assert.NoError(t, err)
	assert.Equal(t, "NIKE-SHOES-0002", sku)
}

func TestAllocatorSeedsFromPersistedMax(t *testing.T) {
	store := newFakeStore()
	store.maxSKU["NIKE-SHOES"] = "NIKE-SHOES-0009"
	allocator := NewAllocator(store)

	sku, err := allocator.Next(context.Background(), "NIKE-SHOES")
	assert.NoError(t, err)
	assert.Equal(t, "NIKE-SHOES-0010", sku)
}

func TestAllocatorSeedsOncePerPrefix(t *testing.T) {
	store := newFakeStore()
	allocator := NewAllocator(store)

	for i := 0; i < 5; i++ {
		_, err := allocator.Next(context.Background(), "NIKE-SHOES")
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, store.seedLookups)
}

func TestAllocatorIgnoresMalformedSuffix(t *testing.T) {
	store := newFakeStore()
	store.maxSKU["ACME-TOOLS"] = "ACME-TOOLS-LEGACY"
	allocator := NewAllocator(store)

	sku, err := allocator.Next(context.Background(), "ACME-TOOLS")
	assert.NoError(t, err)
	assert.Equal(t, "ACME-TOOLS-0001", sku)
}
