// Package mockpay es el proveedor de pagos de desarrollo: no cobra nada,
// aprueba según una tasa configurable.
package mockpay

import (
	"context"
	"math/rand"

	"petcare-backend/internal/ports/payments"

	"github.com/google/uuid"
)

type Provider struct {
	approveRate float64
	// rnd devuelve [0,1); reemplazable en tests
	rnd func() float64
}

// New: approveRate se recorta a [0,1]. 1 aprueba siempre, 0 rechaza siempre.
func New(approveRate float64) *Provider {
	switch {
	case approveRate < 0:
		approveRate = 0
	case approveRate > 1:
		approveRate = 1
	}
	return &Provider{approveRate: approveRate, rnd: rand.Float64}
}

func (p *Provider) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return payments.ChargeResult{}, err
	}
	if p.rnd() >= p.approveRate {
		return payments.ChargeResult{Approved: false, Reason: "payment declined by mock provider"}, nil
	}
	return payments.ChargeResult{Approved: true, TransactionID: "mock_" + uuid.NewString()}, nil
}

func (p *Provider) Refund(ctx context.Context, req payments.RefundRequest) error {
	return ctx.Err()
}
