package mockpay

import (
	"context"
	"strings"
	"testing"

	"petcare-backend/internal/ports/payments"

	"github.com/shopspring/decimal"
)

func TestProvider_Charge(t *testing.T) {
	req := payments.ChargeRequest{OrderID: "o1", Amount: decimal.NewFromInt(10)}

	always := New(1)
	res, err := always.Charge(context.Background(), req)
	if err != nil || !res.Approved || !strings.HasPrefix(res.TransactionID, "mock_") {
		t.Fatalf("expected approval, got %+v err=%v", res, err)
	}

	never := New(0)
	res, err = never.Charge(context.Background(), req)
	if err != nil || res.Approved || res.Reason == "" {
		t.Fatalf("expected decline, got %+v err=%v", res, err)
	}

	p := New(0.9)
	p.rnd = func() float64 { return 0.95 }
	if res, _ := p.Charge(context.Background(), req); res.Approved {
		t.Fatalf("0.95 >= 0.9 must decline")
	}
	p.rnd = func() float64 { return 0.5 }
	if res, _ := p.Charge(context.Background(), req); !res.Approved {
		t.Fatalf("0.5 < 0.9 must approve")
	}
}

func TestProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(1).Charge(ctx, payments.ChargeRequest{}); err == nil {
		t.Fatalf("expected context error")
	}
	if err := New(1).Refund(ctx, payments.RefundRequest{}); err == nil {
		t.Fatalf("expected context error")
	}
}
