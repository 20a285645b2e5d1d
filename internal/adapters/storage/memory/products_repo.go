package memory

import (
	"context"
	"sort"
	"strings"

	"petcare-backend/internal/domain/products"
)

type productRepo struct{ s *Store }

func (r productRepo) Create(ctx context.Context, p products.Product) error {
	defer r.s.lock(ctx)()

	put(ctx, r.s, r.s.products, p.ID, p)
	return nil
}

func (r productRepo) Update(ctx context.Context, p products.Product) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.products[p.ID]; !ok {
		return products.ErrNotFound
	}
	put(ctx, r.s, r.s.products, p.ID, p)
	return nil
}

func (r productRepo) GetByID(ctx context.Context, id string) (products.Product, error) {
	defer r.s.rlock(ctx)()

	p, ok := r.s.products[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (r productRepo) List(ctx context.Context, f products.ListFilter) ([]products.Product, int, error) {
	defer r.s.rlock(ctx)()

	q := strings.ToLower(f.Query)
	out := make([]products.Product, 0)
	for _, p := range r.s.products {
		switch {
		case !f.IncludeInactive && !p.IsActive:
			continue
		case f.Category != "" && p.Category != f.Category:
			continue
		case f.InStockOnly && p.Stock == 0:
			continue
		case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
			continue
		case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
			continue
		case q != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description), q):
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.SliceStable(out, productLess(out, f.Sort))
	return window(out, f.Offset, f.Limit), len(out), nil
}

func productLess(ps []products.Product, s products.Sort) func(i, j int) bool {
	switch s {
	case products.SortPriceAsc:
		return func(i, j int) bool { return ps[i].Price.LessThan(ps[j].Price) }
	case products.SortPriceDesc:
		return func(i, j int) bool { return ps[i].Price.GreaterThan(ps[j].Price) }
	case products.SortPopular:
		return func(i, j int) bool { return ps[i].SoldCount > ps[j].SoldCount }
	case products.SortName:
		return func(i, j int) bool { return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name) }
	default:
		return func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) }
	}
}

func (r productRepo) CategoryCounts(ctx context.Context) ([]products.CategoryCount, error) {
	defer r.s.rlock(ctx)()

	counts := map[string]int{}
	for _, p := range r.s.products {
		if p.IsActive {
			counts[p.Category]++
		}
	}

	out := make([]products.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, products.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// Reserve chequea y descuenta bajo el mismo lock.
func (r productRepo) Reserve(ctx context.Context, id string, qty int) (products.Product, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.products[id]
	if !ok || !p.IsActive {
		return products.Product{}, products.ErrNotFound
	}
	if p.Stock < qty {
		return products.Product{}, products.ErrInsufficientStock
	}
	p.Stock -= qty
	p.SoldCount += qty
	put(ctx, r.s, r.s.products, id, p)
	return p, nil
}

func (r productRepo) Release(ctx context.Context, id string, qty int) error {
	defer r.s.lock(ctx)()

	p, ok := r.s.products[id]
	if !ok {
		return products.ErrNotFound
	}
	p.Stock += qty
	p.SoldCount = max(p.SoldCount-qty, 0)
	put(ctx, r.s, r.s.products, id, p)
	return nil
}
