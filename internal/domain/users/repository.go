package users

import "context"

// Repository persiste usuarios.
// Create devuelve ErrEmailTaken si el email ya existe; Get*/Update/Delete devuelven ErrNotFound.
type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, f ListFilter) ([]User, int, error)
}
