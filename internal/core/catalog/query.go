// Package catalog filters, sorts and paginates product collections.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Query applies q to products and returns the page window together
// with the number of products matching the filters.
//
// The input slice is not modified.
func Query(products []domain.Product, q domain.ProductQuery) domain.ProductPage {
	matched := filter(products, q.SearchTerm, q.Category)
	sortByPrice(matched, q.SortOrder)

	return domain.ProductPage{
		Products:   window(matched, q.Page, q.PageSize),
		TotalCount: len(matched),
	}
}

func filter(
	products []domain.Product, searchTerm string, category domain.Category,
) []domain.Product {
	term := strings.ToLower(searchTerm)

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if term != "" && !MatchesSearch(p, term) {
			continue
		}
		if !category.IsAll() && p.Category != category {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// MatchesSearch reports whether the lower-cased term is a substring
// of the product name or description, ignoring case.
func MatchesSearch(p domain.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// sortByPrice keeps the prior relative order of equally priced products.
func sortByPrice(products []domain.Product, order domain.SortOrder) {
	cmp := func(a, b domain.Product) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	}
	if order == domain.SortDesc {
		asc := cmp
		cmp = func(a, b domain.Product) int { return asc(b, a) }
	}
	slices.SortStableFunc(products, cmp)
}

func window(products []domain.Product, page, pageSize int) []domain.Product {
	if !HasPage(len(products), page, pageSize) {
		return []domain.Product{}
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(products))
	return products[start:end]
}

// HasPage reports whether page holds at least one of total items.
// It never multiplies page by pageSize, so huge pages are safe.
func HasPage(total, page, pageSize int) bool {
	if page < 1 || pageSize < 1 || total < 1 {
		return false
	}
	return page-1 < (total-1)/pageSize+1
}

// Normalize fills the defaults of absent query fields.
//
// Page and size values set by the caller are kept even if out of range.
func Normalize(q domain.ProductQuery) domain.ProductQuery {
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortField == "" {
		q.SortField = domain.SortByPrice
	}
	if q.SortOrder == "" {
		q.SortOrder = domain.SortAsc
	}
	if q.Category == "" {
		q.Category = domain.CategoryAll
	}
	return q
}

func ParseSortOrder(s string) (domain.SortOrder, error) {
	switch o := domain.SortOrder(strings.ToLower(s)); o {
	case "":
		return domain.SortAsc, nil
	case domain.SortAsc, domain.SortDesc:
		return o, nil
	}
	return "", fmt.Errorf("sort order %q: %w", s, domain.ErrValidationFailed)
}

func ParseSortField(s string) (domain.SortField, error) {
	switch f := domain.SortField(strings.ToLower(s)); f {
	case "", domain.SortByPrice:
		return domain.SortByPrice, nil
	}
	return "", fmt.Errorf("sort field %q: %w", s, domain.ErrValidationFailed)
}

// ParseCategory accepts any case of a known category or the "All" sentinel.
func ParseCategory(s string) (domain.Category, error) {
	if s == "" || strings.EqualFold(s, string(domain.CategoryAll)) {
		return domain.CategoryAll, nil
	}
	for _, c := range domain.Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("category %q: %w", s, domain.ErrValidationFailed)
}
