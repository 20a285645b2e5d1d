package news

import "context"

type Repository interface {
	Create(ctx context.Context, a Article) error
	Update(ctx context.Context, a Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Article, error)

	// List ordena por PublishedAt (publicadas) o CreatedAt, más nuevas primero.
	List(ctx context.Context, f ListFilter) ([]Article, int, error)

	// IncrementViews suma 1 a Views sólo si la noticia está publicada, en una
	// única operación, y devuelve la noticia actualizada. No publicada => ErrNotFound.
	IncrementViews(ctx context.Context, id string) (Article, error)
}

// AuthorDirectory resuelve el nombre visible del autor (implementado sobre users.Service).
type AuthorDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
