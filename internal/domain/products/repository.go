package products

import "context"

type Repository interface {
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	GetByID(ctx context.Context, id string) (Product, error)
	List(ctx context.Context, f ListFilter) ([]Product, int, error)

	// CategoryCounts agrupa productos activos por categoría.
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)

	// Reserve descuenta qty de stock (y suma a SoldCount) sólo si el producto está
	// activo y stock >= qty, en una única operación atómica.
	// Errores: ErrNotFound, ErrInsufficientStock.
	Reserve(ctx context.Context, id string, qty int) (Product, error)

	// Release devuelve qty a stock (y la resta de SoldCount). No exige IsActive.
	Release(ctx context.Context, id string, qty int) error
}
