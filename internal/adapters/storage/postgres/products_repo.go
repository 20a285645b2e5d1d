package postgres

import (
	"context"
	"database/sql"
	"errors"

	"petcare-backend/internal/domain/products"

	sq "github.com/Masterminds/squirrel"
)

const productColumns = `id, name, description, category, price, stock, sold_count, image_url, is_active, created_at, updated_at`

type ProductsRepo struct {
	db *sql.DB
}

func NewProductsRepo(db *sql.DB) *ProductsRepo {
	return &ProductsRepo{db: db}
}

func (r *ProductsRepo) Create(ctx context.Context, p products.Product) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.Stock,
		p.SoldCount,
		p.ImageURL,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update no toca sold_count: sólo lo mueven Reserve/Release.
func (r *ProductsRepo) Update(ctx context.Context, p products.Product) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE products
		SET
			name = $2,
			description = $3,
			category = $4,
			price = $5,
			stock = $6,
			image_url = $7,
			is_active = $8,
			updated_at = $9
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Description,
		p.Category,
		p.Price,
		p.Stock,
		p.ImageURL,
		p.IsActive,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return products.ErrNotFound
	}
	return nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (products.Product, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

var productOrder = map[products.Sort]string{
	products.SortNewest:    "created_at DESC",
	products.SortPriceAsc:  "price ASC",
	products.SortPriceDesc: "price DESC",
	products.SortPopular:   "sold_count DESC",
	products.SortName:      "lower(name) ASC",
}

func (r *ProductsRepo) List(ctx context.Context, f products.ListFilter) ([]products.Product, int, error) {
	where := sq.And{}
	if !f.IncludeInactive {
		where = append(where, sq.Eq{"is_active": true})
	}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.InStockOnly {
		where = append(where, sq.Gt{"stock": 0})
	}
	if f.MinPrice != nil {
		where = append(where, sq.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		where = append(where, sq.LtOrEq{"price": *f.MaxPrice})
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		where = append(where, sq.Or{sq.ILike{"name": like}, sq.ILike{"description": like}})
	}

	order, ok := productOrder[f.Sort]
	if !ok {
		order = productOrder[products.SortNewest]
	}

	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("products").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(productColumns).From("products").Where(where).
		OrderBy(order, "id ASC"), f.Offset, f.Limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]products.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *ProductsRepo) CategoryCounts(ctx context.Context) ([]products.CategoryCount, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM products
		WHERE is_active
		GROUP BY category
		ORDER BY category ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]products.CategoryCount, 0)
	for rows.Next() {
		var c products.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reserve descuenta con un UPDATE condicional: dos pedidos concurrentes
// nunca dejan stock negativo.
func (r *ProductsRepo) Reserve(ctx context.Context, id string, qty int) (products.Product, error) {
	q := conn(ctx, r.db)
	row := q.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2,
			sold_count = sold_count + $2,
			updated_at = now()
		WHERE id = $1 AND is_active AND stock >= $2
		RETURNING `+productColumns, id, qty)

	p, err := scanProduct(row)
	if !errors.Is(err, products.ErrNotFound) {
		return p, err
	}

	// No se actualizó nada: distinguir inexistente/inactivo de sin stock.
	var active bool
	if err := q.QueryRowContext(ctx, `SELECT is_active FROM products WHERE id = $1`, id).Scan(&active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrNotFound
		}
		return products.Product{}, err
	}
	if !active {
		return products.Product{}, products.ErrNotFound
	}
	return products.Product{}, products.ErrInsufficientStock
}

func (r *ProductsRepo) Release(ctx context.Context, id string, qty int) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
			sold_count = GREATEST(sold_count - $2, 0),
			updated_at = now()
		WHERE id = $1
	`, id, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return products.ErrNotFound
	}
	return nil
}

func scanProduct(row rowScanner) (products.Product, error) {
	var p products.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.Stock,
		&p.SoldCount,
		&p.ImageURL,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return products.Product{}, products.ErrNotFound
	}
	return p, err
}
