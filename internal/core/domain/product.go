package domain

import "math"

type Category string

const (
	CategoryAll         Category = "All"
	CategoryElectronics Category = "Electronics"
	CategorySports      Category = "Sports"
	CategoryHome        Category = "Home"
	CategoryAccessories Category = "Accessories"
)

// Categories returns the categories a product can belong to.
func Categories() []Category {
	return []Category{
		CategoryElectronics,
		CategorySports,
		CategoryHome,
		CategoryAccessories,
	}
}

// IsAll reports whether c disables category filtering.
func (c Category) IsAll() bool {
	return c == "" || c == CategoryAll
}

// A Product is owned by the data source and is never modified after fetch.
type Product struct {
	ProductID     string
	Name          string
	Price         float64
	Category      Category
	Image         string
	Description   string
	Stock         int
	OriginalPrice *float64
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

type (
	SortField string
	SortOrder string
)

const (
	SortByPrice SortField = "price"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ProductQuery struct {
	Page       int
	PageSize   int
	SearchTerm string
	Category   Category
	SortField  SortField
	SortOrder  SortOrder
}

type ProductPage struct {
	Products   []Product
	TotalCount int
}

// PageCount returns the number of pages of pageSize covering TotalCount.
func (p ProductPage) PageCount(pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return int(math.Ceil(float64(p.TotalCount) / float64(pageSize)))
}
