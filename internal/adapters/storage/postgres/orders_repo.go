package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"petcare-backend/internal/domain/orders"

	sq "github.com/Masterminds/squirrel"
)

const orderColumns = `id, order_number, customer_id, items, total, shipping, payment_method, payment_status, payment_ref, status, notes, paid_at, cancelled_at, created_at, updated_at`

type OrdersRepo struct {
	db *sql.DB
}

func NewOrdersRepo(db *sql.DB) *OrdersRepo {
	return &OrdersRepo{db: db}
}

func (r *OrdersRepo) Create(ctx context.Context, o orders.Order) error {
	items, err := marshalJSON(o.Items, "[]")
	if err != nil {
		return err
	}
	shipping, err := marshalJSON(o.Shipping, "{}")
	if err != nil {
		return err
	}

	_, err = conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4::jsonb,$5,$6::jsonb,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		o.ID,
		o.OrderNumber,
		o.CustomerID,
		items,
		o.Total,
		shipping,
		o.PaymentMethod,
		o.PaymentStatus,
		o.PaymentRef,
		o.Status,
		o.Notes,
		nullTime(o.PaidAt),
		nullTime(o.CancelledAt),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if isUniqueViolation(err, "orders_number_uniq") {
		return orders.ErrDuplicateNumber
	}
	return err
}

// Update persiste el ciclo de vida (estado, pago). Líneas y total son inmutables.
func (r *OrdersRepo) Update(ctx context.Context, o orders.Order) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE orders
		SET
			payment_status = $2,
			payment_ref = $3,
			status = $4,
			notes = $5,
			paid_at = $6,
			cancelled_at = $7,
			updated_at = $8
		WHERE id = $1
	`,
		o.ID,
		o.PaymentStatus,
		o.PaymentRef,
		o.Status,
		o.Notes,
		nullTime(o.PaidAt),
		nullTime(o.CancelledAt),
		o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (r *OrdersRepo) GetByID(ctx context.Context, id string) (orders.Order, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetForUpdate toma un lock de fila; sólo tiene efecto dentro de TxManager.WithinTx.
func (r *OrdersRepo) GetForUpdate(ctx context.Context, id string) (orders.Order, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

func (r *OrdersRepo) List(ctx context.Context, f orders.ListFilter) ([]orders.Order, int, error) {
	where := sq.And{}
	if f.CustomerID != "" {
		where = append(where, sq.Eq{"customer_id": f.CustomerID})
	}
	if f.Status != "" {
		where = append(where, sq.Eq{"status": f.Status})
	}
	if f.PaymentStatus != "" {
		where = append(where, sq.Eq{"payment_status": f.PaymentStatus})
	}

	q := conn(ctx, r.db)
	total, err := count(ctx, q, psql.Select("COUNT(*)").From("orders").Where(where))
	if err != nil {
		return nil, 0, err
	}

	query, args, err := page(psql.Select(orderColumns).From("orders").Where(where).
		OrderBy("created_at DESC", "order_number DESC"), f.Offset, f.Limit).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]orders.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func scanOrder(row rowScanner) (orders.Order, error) {
	var o orders.Order
	var items, shipping []byte
	var paidAt, cancelledAt sql.NullTime
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&items,
		&o.Total,
		&shipping,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.PaymentRef,
		&o.Status,
		&o.Notes,
		&paidAt,
		&cancelledAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return orders.Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return orders.Order{}, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.Shipping); err != nil {
		return orders.Order{}, fmt.Errorf("decode shipping: %w", err)
	}
	o.PaidAt = timePtr(paidAt)
	o.CancelledAt = timePtr(cancelledAt)
	return o, nil
}
