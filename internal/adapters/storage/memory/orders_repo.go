package memory

import (
	"context"
	"slices"
	"sort"

	"petcare-backend/internal/domain/orders"
)

type orderRepo struct{ s *Store }

func cloneOrder(o orders.Order) orders.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

func (r orderRepo) Create(ctx context.Context, o orders.Order) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return orders.ErrDuplicateNumber
		}
	}
	put(ctx, r.s, r.s.orders, o.ID, cloneOrder(o))
	return nil
}

func (r orderRepo) Update(ctx context.Context, o orders.Order) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.orders[o.ID]; !ok {
		return orders.ErrNotFound
	}
	put(ctx, r.s, r.s.orders, o.ID, cloneOrder(o))
	return nil
}

func (r orderRepo) GetByID(ctx context.Context, id string) (orders.Order, error) {
	defer r.s.rlock(ctx)()

	o, ok := r.s.orders[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return cloneOrder(o), nil
}

// GetForUpdate: dentro de WithinTx el lock de escritura del store ya está tomado.
func (r orderRepo) GetForUpdate(ctx context.Context, id string) (orders.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orderRepo) List(ctx context.Context, f orders.ListFilter) ([]orders.Order, int, error) {
	defer r.s.rlock(ctx)()

	out := make([]orders.Order, 0)
	for _, o := range r.s.orders {
		switch {
		case f.CustomerID != "" && o.CustomerID != f.CustomerID:
			continue
		case f.Status != "" && o.Status != f.Status:
			continue
		case f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus:
			continue
		}
		out = append(out, cloneOrder(o))
	}

	// más nuevos primero
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OrderNumber > out[j].OrderNumber
	})
	return window(out, f.Offset, f.Limit), len(out), nil
}
