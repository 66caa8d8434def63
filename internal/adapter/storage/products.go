package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/catalog"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const productColumns = `product_id, name, price, category,
	image, description, stock, original_price`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

// ReadProducts counts the matching rows and then reads the page window.
//
// Rows with equal prices keep their catalog position order.
func (r ProductsRepository) ReadProducts(
	ctx context.Context, q domain.ProductQuery,
) (domain.ProductPage, error) {
	const op = "ProductsRepository.ReadProducts"

	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}

	where, args := productsFilter(q)

	var total int
	countQuery := "SELECT COUNT(*) FROM products" + where + ";"
	if err := r.sqldb.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: failed to count: %w", op, err)
	}

	page := domain.ProductPage{Products: []domain.Product{}, TotalCount: total}
	if !catalog.HasPage(total, q.Page, q.PageSize) {
		return page, nil
	}
	offset := (q.Page - 1) * q.PageSize

	n := len(args)
	query := "SELECT " + productColumns + " FROM products" + where +
		" ORDER BY price " + sortDirection(q.SortOrder) + ", position ASC" +
		" LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2) + ";"
	args = append(args, q.PageSize, offset)

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: failed to query: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
		}
		page.Products = append(page.Products, p)
	}
	if err := rows.Err(); err != nil {
		return domain.ProductPage{}, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	query := "SELECT " + productColumns + " FROM products WHERE product_id = $1;"

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		p             domain.Product
		category      string
		originalPrice sql.NullFloat64
	)
	err := row.Scan(
		&p.ProductID, &p.Name, &p.Price, &category,
		&p.Image, &p.Description, &p.Stock, &originalPrice,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.Category(category)
	if originalPrice.Valid {
		v := originalPrice.Float64
		p.OriginalPrice = &v
	}
	return p, nil
}

// productsFilter builds the WHERE clause shared by the count and page queries.
func productsFilter(q domain.ProductQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if q.SearchTerm != "" {
		args = append(args, "%"+escapeLike(q.SearchTerm)+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(name ILIKE $"+n+" OR description ILIKE $"+n+")")
	}

	if !q.Category.IsAll() {
		args = append(args, string(q.Category))
		conds = append(conds, "category = $"+strconv.Itoa(len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes the LIKE wildcards of s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func sortDirection(o domain.SortOrder) string {
	if o == domain.SortDesc {
		return "DESC"
	}
	return "ASC"
}
