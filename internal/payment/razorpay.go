package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// Credentials are the gateway key pair. The key id is public and handed to
// the checkout widget; the secret signs callbacks.
type Credentials struct {
	KeyID     string
	KeySecret string
}

func (c Credentials) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// OrderClient creates payment orders at the gateway.
type OrderClient interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

var ErrTimeout = errors.New("gateway request timed out")

// orderAPI is the subset of the Razorpay SDK used here.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayClient struct {
	orders  orderAPI
	timeout time.Duration
}

func NewRazorpayClient(creds Credentials, timeout time.Duration) *RazorpayClient {
	client := razorpay.NewClient(creds.KeyID, creds.KeySecret)
	return &RazorpayClient{orders: client.Order, timeout: timeout}
}

// CreateOrder calls the Orders API. The SDK call is not cancellable, so the
// wait is bounded by the client timeout and ctx instead.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := c.orders.Create(data, nil)
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("razorpay create order: %w", r.err)
		}
		return parseOrder(r.body)
	}
}

func parseOrder(body map[string]interface{}) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay create order: response has no order id")
	}
	currency, _ := body["currency"].(string)

	var amount int64
	switch v := body["amount"].(type) {
	case float64:
		amount = int64(v)
	case int64:
		amount = v
	case int:
		amount = int64(v)
	}
	return &Order{ID: id, Amount: amount, Currency: currency}, nil
}
