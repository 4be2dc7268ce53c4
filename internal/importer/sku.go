package importer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	skuStripPattern  = regexp.MustCompile(`[^A-Z0-9 -]`)
	skuDashCollapse  = regexp.MustCompile(`-+`)
	skuSuffixPattern = regexp.MustCompile(`-(\d{4})$`)
)

// SanitizeSegment normalizes a brand or category name into a SKU segment:
// uppercased, punctuation stripped, spaces turned into dashes, runs of dashes
// collapsed, leading and trailing dashes removed. "Running Shoes!" becomes
// "RUNNING-SHOES". An empty result means the name cannot participate in SKU
// generation.
func SanitizeSegment(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = skuStripPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = skuDashCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SKUPrefix builds the "BRAND-CATEGORY" prefix from the raw names. It returns
// an error when either segment sanitizes to nothing.
func SKUPrefix(brandName, categoryName string) (string, error) {
	brand := SanitizeSegment(brandName)
	category := SanitizeSegment(categoryName)
	if brand == "" || category == "" {
		return "", fmt.Errorf("invalid brand/category for SKU generation")
	}
	return brand + "-" + category, nil
}

// Allocator hands out sequential SKUs per prefix. Each prefix is seeded once
// per run from the highest persisted suffix; after that the counter advances
// in memory, so one run never reuses a number it already allocated. The
// products table's unique sku index is the backstop across concurrent runs.
type Allocator struct {
	store Store
	next  map[string]int
}

// NewAllocator returns an Allocator with no seeded prefixes.
func NewAllocator(store Store) *Allocator {
	return &Allocator{store: store, next: make(map[string]int)}
}

// Next returns the next SKU for the given prefix, e.g. "NIKE-SHOES-0007".
func (a *Allocator) Next(ctx context.Context, prefix string) (string, error) {
	n, seeded := a.next[prefix]
	if !seeded {
		maxSKU, err := a.store.MaxSKUForPrefix(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("cannot seed SKU sequence for prefix '%s': %w", prefix, err)
		}
		n = 1
		if m := skuSuffixPattern.FindStringSubmatch(maxSKU); m != nil {
			parsed, _ := strconv.Atoi(m[1])
			n = parsed + 1
		}
	}

	a.next[prefix] = n + 1
	return fmt.Sprintf("%s-%04d", prefix, n), nil
}
