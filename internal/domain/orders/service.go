package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"petcare-backend/internal/platform/apperr"
	"petcare-backend/internal/platform/logger"
	"petcare-backend/internal/platform/pagination"
	"petcare-backend/internal/ports/payments"
	"petcare-backend/internal/ports/tx"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInput       = apperr.New(apperr.KindValidation, "invalid input")
	ErrNotFound           = apperr.New(apperr.KindNotFound, "order not found")
	ErrDuplicateNumber    = apperr.New(apperr.KindConflict, "order number already exists")
	ErrNotCancellable     = apperr.New(apperr.KindValidation, "order can no longer be cancelled")
	ErrAlreadyPaid        = apperr.New(apperr.KindValidation, "order is already paid")
	ErrNotPayable         = apperr.New(apperr.KindValidation, "cannot pay a cancelled order")
	ErrPaymentDeclined    = apperr.New(apperr.KindValidation, "payment declined")
	ErrPaymentUnavailable = apperr.New(apperr.KindInternal, "payment provider unavailable")
	ErrBadTransition      = apperr.New(apperr.KindValidation, "invalid status transition")
)

// orderNumberAttempts: intentos totales antes de rendirse con ErrDuplicateNumber.
const orderNumberAttempts = 5

var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusProcessing},
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

type Service struct {
	repo      Repository
	inventory Inventory
	tx        tx.Manager
	payments  payments.Provider
	log       logger.Logger

	now     func() time.Time
	randN   func(n int) int
	backoff func() retry.Backoff
}

func NewService(repo Repository, inventory Inventory, txm tx.Manager, provider payments.Provider, log logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:      repo,
		inventory: inventory,
		tx:        txm,
		payments:  provider,
		log:       log.With(map[string]any{"module": "orders"}),
		now:       time.Now,
		randN:     rand.Intn,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(orderNumberAttempts-1, retry.NewConstant(10*time.Millisecond))
		},
	}
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateInput struct {
	CustomerID    string
	Items         []ItemInput
	Shipping      Shipping
	PaymentMethod string
	Notes         string
}

// Create reserva stock de todas las líneas y guarda el pedido en una sola transacción:
// si cualquier reserva falla no queda stock descontado.
// Una colisión de número de pedido repite la transacción completa con otro número.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return Order{}, ErrInvalidInput.With("customer is required")
	}
	method := PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !method.Valid() {
		return Order{}, ErrInvalidInput.With("payment_method must be cash_on_delivery, credit_card, bank_transfer or e_wallet")
	}
	shipping, err := normalizeShipping(in.Shipping)
	if err != nil {
		return Order{}, err
	}
	lines, err := mergeLines(in.Items)
	if err != nil {
		return Order{}, err
	}

	var created Order
	err = retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
			items := make([]Item, 0, len(lines))
			total := decimal.Zero
			for _, l := range lines {
				p, err := s.inventory.Reserve(ctx, l.ProductID, l.Quantity)
				if err != nil {
					return err
				}
				it := Item{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: l.Quantity}
				items = append(items, it)
				total = total.Add(it.Subtotal())
			}

			now := s.now()
			o := Order{
				ID:            uuid.NewString(),
				OrderNumber:   s.orderNumber(now),
				CustomerID:    customerID,
				Items:         items,
				Total:         total.Round(2),
				Shipping:      shipping,
				PaymentMethod: method,
				PaymentStatus: PaymentPending,
				Status:        StatusPending,
				Notes:         strings.TrimSpace(in.Notes),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := s.repo.Create(ctx, o); err != nil {
				return err
			}
			created = o
			return nil
		})
		if errors.Is(err, ErrDuplicateNumber) {
			s.log.Warn("order number collision, retrying", nil)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return Order{}, err
	}

	s.log.Info("order created", map[string]any{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"items":        len(created.Items),
		"total":        created.Total.StringFixed(2),
	})
	return created, nil
}

// Cancel libera el stock de todas las líneas. Si estaba pagado, primero reembolsa:
// un reembolso fallido deja el pedido intacto. La lectura, el chequeo de estado y
// la escritura van en la misma transacción con el pedido bloqueado, así dos
// cancelaciones concurrentes no devuelven el stock dos veces.
func (s *Service) Cancel(ctx context.Context, id string) (Order, error) {
	var (
		o        Order
		refunded bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if !o.Status.Cancellable() {
			return ErrNotCancellable.With("order in status " + string(o.Status) + " can no longer be cancelled")
		}

		if o.PaymentStatus == PaymentPaid {
			if err := s.payments.Refund(ctx, payments.RefundRequest{
				OrderID:       o.ID,
				TransactionID: o.PaymentRef,
				Amount:        o.Total,
			}); err != nil {
				s.log.Error("refund failed", map[string]any{"order_id": o.ID, "error": err.Error()})
				return fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
			}
			refunded = true
		}

		for _, it := range o.Items {
			if err := s.inventory.Release(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		now := s.now()
		o.Status = StatusCancelled
		o.CancelledAt = &now
		o.UpdatedAt = now
		if refunded {
			o.PaymentStatus = PaymentRefunded
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		if refunded {
			s.log.Error("order refunded but cancel failed", map[string]any{"order_id": o.ID, "error": err.Error()})
		}
		return Order{}, err
	}

	s.log.Info("order cancelled", map[string]any{"order_id": o.ID, "refunded": refunded})
	return o, nil
}

// ProcessPayment cobra el total con el provider.
// Aprobado => paid + confirmed. Rechazado => failed (se puede reintentar) y ErrPaymentDeclined.
// El pedido queda bloqueado durante el cobro: un cancel concurrente espera y ve el resultado.
func (s *Service) ProcessPayment(ctx context.Context, id string) (Order, error) {
	var (
		o      Order
		reason string
		ok     bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		switch {
		case o.Status == StatusCancelled:
			return ErrNotPayable
		case o.PaymentStatus == PaymentPaid || o.PaymentStatus == PaymentRefunded:
			return ErrAlreadyPaid
		}

		res, err := s.payments.Charge(ctx, payments.ChargeRequest{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			CustomerID:  o.CustomerID,
			Amount:      o.Total,
			Method:      string(o.PaymentMethod),
		})
		if err != nil {
			s.log.Error("charge failed", map[string]any{"order_id": o.ID, "error": err.Error()})
			return fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
		}

		now := s.now()
		o.UpdatedAt = now
		ok = res.Approved
		if !ok {
			// el rechazo se persiste: no es un error de la transacción
			reason = res.Reason
			o.PaymentStatus = PaymentFailed
			return s.repo.Update(ctx, o)
		}

		o.PaymentStatus = PaymentPaid
		o.PaymentRef = res.TransactionID
		o.PaidAt = &now
		if o.Status == StatusPending {
			o.Status = StatusConfirmed
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}

	if !ok {
		s.log.Warn("payment declined", map[string]any{"order_id": o.ID, "reason": reason})
		msg := "payment declined"
		if reason != "" {
			msg += ": " + reason
		}
		return o, ErrPaymentDeclined.With(msg)
	}

	s.log.Info("payment approved", map[string]any{"order_id": o.ID, "payment_ref": o.PaymentRef})
	return o, nil
}

// UpdateStatus (staff/admin). Pasar a cancelled equivale a Cancel.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (Order, error) {
	if !next.Valid() {
		return Order{}, ErrInvalidInput.With("unknown status")
	}
	if next == StatusCancelled {
		return s.Cancel(ctx, id)
	}

	var o Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, strings.TrimSpace(id))
		if err != nil {
			return err
		}
		if !canTransition(o.Status, next) {
			return ErrBadTransition.With("cannot move order from " + string(o.Status) + " to " + string(next))
		}

		o.Status = next
		o.UpdatedAt = s.now()
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return Order{}, err
	}

	s.log.Info("order status updated", map[string]any{"order_id": o.ID, "status": string(next)})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) List(ctx context.Context, f ListFilter, p pagination.Params) (pagination.Page[Order], error) {
	if f.Status != "" && !f.Status.Valid() {
		return pagination.Page[Order]{}, ErrInvalidInput.With("unknown status")
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return pagination.Page[Order]{}, ErrInvalidInput.With("unknown payment_status")
	}

	p = p.Normalize()
	f.Offset, f.Limit = p.Offset(), p.Limit

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return pagination.Page[Order]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

func (s *Service) orderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), s.randN(10000))
}

// mergeLines junta líneas repetidas del mismo producto conservando el orden de aparición.
func mergeLines(in []ItemInput) ([]ItemInput, error) {
	if len(in) == 0 {
		return nil, ErrInvalidInput.With("order must contain at least one item")
	}

	idx := map[string]int{}
	out := make([]ItemInput, 0, len(in))
	for _, it := range in {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, ErrInvalidInput.With("product_id is required")
		}
		if it.Quantity < 1 {
			return nil, ErrInvalidInput.With("quantity must be at least 1")
		}
		if i, ok := idx[id]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[id] = len(out)
		out = append(out, ItemInput{ProductID: id, Quantity: it.Quantity})
	}
	return out, nil
}

func normalizeShipping(in Shipping) (Shipping, error) {
	out := Shipping{
		FullName:   strings.TrimSpace(in.FullName),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
	}
	if out.FullName == "" || out.Phone == "" || out.Address == "" || out.City == "" {
		return Shipping{}, ErrInvalidInput.With("shipping address requires full_name, phone, address and city")
	}
	return out, nil
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
