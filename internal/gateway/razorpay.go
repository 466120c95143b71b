// Package gateway wraps the Razorpay payment gateway. The client is an
// explicit dependency handed to the payment handlers at construction time,
// so tests can substitute a double and nothing reads credentials from
// process-wide state.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Order is the gateway-side order returned by CreateOrder.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client registers orders with the payment gateway ahead of checkout.
type Client interface {
	// CreateOrder registers an order for the given amount in minor
	// currency units (paise), tagged with the receipt string.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error)
}

type razorpayClient struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewRazorpayClient builds a client for the Razorpay Orders API
// authenticated with the given key pair.
func NewRazorpayClient(keyID, keySecret string) Client {
	return &razorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *razorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*Order, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: create order: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var gwErr gatewayError
		if err := json.Unmarshal(data, &gwErr); err == nil && gwErr.Error.Description != "" {
			return nil, fmt.Errorf("gateway: create order failed (%d): %s", resp.StatusCode, gwErr.Error.Description)
		}
		return nil, fmt.Errorf("gateway: create order failed with status %d", resp.StatusCode)
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("gateway: decode order response: %w", err)
	}
	return &order, nil
}
