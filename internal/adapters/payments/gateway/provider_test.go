package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"petcare-backend/internal/platform/httpclient"
	"petcare-backend/internal/ports/payments"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := New(srv.URL, "key-123", time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	p.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	return p
}

func TestProvider_Charge(t *testing.T) {
	var got chargeRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/charges" || r.Header.Get(apiKeyHeader) != "key-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		status := "approved"
		if got.Method == "e_wallet" {
			status = "declined"
		}
		_ = json.NewEncoder(w).Encode(chargeResponse{ID: "ch_9", Status: status, Reason: "insufficient funds"})
	})

	res, err := p.Charge(context.Background(), payments.ChargeRequest{
		OrderID:     "o1",
		OrderNumber: "ORD-20250601-0001",
		Amount:      decimal.RequireFromString("27.5"),
		Method:      "credit_card",
	})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if !res.Approved || res.TransactionID != "ch_9" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.Amount != "27.50" || got.OrderNumber != "ORD-20250601-0001" {
		t.Fatalf("unexpected request body: %+v", got)
	}

	res, err = p.Charge(context.Background(), payments.ChargeRequest{OrderID: "o2", Method: "e_wallet"})
	if err != nil {
		t.Fatalf("charge: %v", err)
	}
	if res.Approved || res.Reason != "insufficient funds" {
		t.Fatalf("expected decline, got %+v", res)
	}
}

func TestProvider_RetriesServerErrorsWithSameKey(t *testing.T) {
	var calls atomic.Int32
	keys := make(chan string, 3)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		keys <- r.Header.Get("Idempotency-Key")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := p.Refund(context.Background(), payments.RefundRequest{OrderID: "o1", TransactionID: "ch_9"}); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
	first := <-keys
	if first == "" || <-keys != first || <-keys != first {
		t.Fatalf("idempotency key must be stable across retries")
	}
}

func TestProvider_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown transaction", http.StatusNotFound)
	})

	err := p.Refund(context.Background(), payments.RefundRequest{TransactionID: "nope"})
	var he *httpclient.HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("", "k", time.Second); err == nil {
		t.Fatalf("expected error without base url")
	}
}
