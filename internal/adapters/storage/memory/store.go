// Package memory guarda todo en mapas dentro de un único Store. Se usa en dev
// (sin DB_DSN) y en tests de integración del router.
package memory

import (
	"context"
	"sync"

	"petcare-backend/internal/domain/booking"
	"petcare-backend/internal/domain/news"
	"petcare-backend/internal/domain/orders"
	"petcare-backend/internal/domain/pets"
	"petcare-backend/internal/domain/products"
	"petcare-backend/internal/domain/users"
	"petcare-backend/internal/platform/pagination"
)

// Store comparte un solo RWMutex entre todos los agregados: una transacción
// toma el lock de escritura completo y las operaciones dentro de ella no vuelven a lockear.
type Store struct {
	mu sync.RWMutex

	users        map[string]users.User
	pets         map[string]pets.Pet
	products     map[string]products.Product
	appointments map[string]booking.Appointment
	orders       map[string]orders.Order
	news         map[string]news.Article
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]users.User),
		pets:         make(map[string]pets.Pet),
		products:     make(map[string]products.Product),
		appointments: make(map[string]booking.Appointment),
		orders:       make(map[string]orders.Order),
		news:         make(map[string]news.Article),
	}
}

func (s *Store) Users() users.Repository { return userRepo{s} }
func (s *Store) Pets() pets.Repository { return petRepo{s} }
func (s *Store) Products() products.Repository { return productRepo{s} }
func (s *Store) Appointments() booking.Repository { return appointmentRepo{s} }
func (s *Store) Orders() orders.Repository { return orderRepo{s} }
func (s *Store) News() news.Repository { return newsRepo{s} }

// -------------------------
// Transacciones
// -------------------------

type txKey struct{}

type txState struct {
	store *Store
	undo  []func()
}

func (s *Store) txFrom(ctx context.Context) *txState {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.store != s {
		return nil
	}
	return st
}

// WithinTx implementa tx.Manager. Si fn falla o entra en pánico se deshacen sus
// escrituras en orden inverso; el pánico se vuelve a lanzar después.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		st.rollback()
		return err
	}
	return nil
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

func (s *Store) lock(ctx context.Context) func() {
	if s.txFrom(ctx) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock(ctx context.Context) func() {
	if s.txFrom(ctx) != nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

// put y remove registran la operación inversa cuando hay transacción en curso.
func put[V any](ctx context.Context, s *Store, m map[string]V, id string, v V) {
	if st := s.txFrom(ctx); st != nil {
		prev, existed := m[id]
		st.undo = append(st.undo, func() {
			if existed {
				m[id] = prev
			} else {
				delete(m, id)
			}
		})
	}
	m[id] = v
}

func remove[V any](ctx context.Context, s *Store, m map[string]V, id string) {
	prev, existed := m[id]
	if !existed {
		return
	}
	if st := s.txFrom(ctx); st != nil {
		st.undo = append(st.undo, func() { m[id] = prev })
	}
	delete(m, id)
}

// window aplica Offset/Limit de los ListFilter. limit <= 0 devuelve todo.
func window[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	return pagination.Slice(items, pagination.Params{Page: offset/limit + 1, Limit: limit}).Items
}
