// Package gateway implementa payments.Provider contra un gateway HTTP/JSON.
//
//	POST /v1/charges  {order_id, order_number, customer_id, amount, method}
//	                  -> {id, status: approved|declined, reason}
//	POST /v1/refunds  {order_id, transaction_id, amount} -> 2xx
//
// Errores de red, 429 y 5xx se reintentan con la misma Idempotency-Key.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"petcare-backend/internal/platform/httpclient"
	"petcare-backend/internal/ports/payments"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

const apiKeyHeader = "X-API-Key"

type Provider struct {
	client  *httpclient.Client
	backoff func() retry.Backoff
}

func New(baseURL, apiKey string, timeout time.Duration) (*Provider, error) {
	c, err := httpclient.New(baseURL, timeout, httpclient.WithHeader(apiKeyHeader, apiKey))
	if err != nil {
		return nil, err
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base url is required")
	}
	return &Provider{
		client: c,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
		},
	}, nil
}

type chargeRequest struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type refundRequest struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

func (p *Provider) Charge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	body := chargeRequest{
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		CustomerID:  req.CustomerID,
		Amount:      req.Amount.StringFixed(2),
		Method:      req.Method,
	}

	var out chargeResponse
	if err := p.post(ctx, "/v1/charges", body, &out); err != nil {
		return payments.ChargeResult{}, err
	}

	switch out.Status {
	case "approved":
		return payments.ChargeResult{Approved: true, TransactionID: out.ID}, nil
	case "declined":
		return payments.ChargeResult{Approved: false, TransactionID: out.ID, Reason: out.Reason}, nil
	default:
		return payments.ChargeResult{}, fmt.Errorf("gateway: unexpected charge status %q", out.Status)
	}
}

func (p *Provider) Refund(ctx context.Context, req payments.RefundRequest) error {
	return p.post(ctx, "/v1/refunds", refundRequest{
		OrderID:       req.OrderID,
		TransactionID: req.TransactionID,
		Amount:        req.Amount.StringFixed(2),
	}, nil)
}

func (p *Provider) post(ctx context.Context, path string, in, out any) error {
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}

	return retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		err := p.client.DoJSON(ctx, http.MethodPost, path, headers, in, out)
		if httpclient.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
