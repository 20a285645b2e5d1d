package orders

import (
	"context"

	"petcare-backend/internal/domain/products"
)

type Repository interface {
	// Create falla con ErrDuplicateNumber si OrderNumber ya existe.
	Create(ctx context.Context, o Order) error
	Update(ctx context.Context, o Order) error
	GetByID(ctx context.Context, id string) (Order, error)

	// GetForUpdate lee el pedido bloqueándolo hasta el fin de la transacción en curso.
	// Se usa dentro de tx.Manager.WithinTx antes de decidir un cambio de estado.
	GetForUpdate(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
}

// Inventory es la parte de products que usa el checkout (implementado por products.Service).
type Inventory interface {
	Reserve(ctx context.Context, productID string, qty int) (products.Product, error)
	Release(ctx context.Context, productID string, qty int) error
}
