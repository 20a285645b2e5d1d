package tx

import "context"

// Manager ejecuta fn dentro de una transacción.
// Si fn devuelve error se hace rollback; si no, commit.
// Llamadas anidadas (ctx ya transaccional) se suman a la transacción externa.
type Manager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
