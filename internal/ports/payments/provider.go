package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	OrderID     string
	OrderNumber string
	CustomerID  string
	Amount      decimal.Decimal
	Method      string
}

type ChargeResult struct {
	Approved      bool
	TransactionID string
	// Reason viene informado cuando Approved=false.
	Reason string
}

type RefundRequest struct {
	OrderID       string
	TransactionID string
	Amount        decimal.Decimal
}

// Provider es el gateway de cobros. Un error significa que el gateway no respondió
// (no que el pago fue rechazado: eso es ChargeResult.Approved=false).
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}
