package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"hotel-booking-backend/models"
)

// Order is the gateway-side handle for a payment to be collected.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentGateway creates payment orders. The gateway never decides business
// outcomes; it only issues orders and (via VerifySignature) proves that a
// callback is authentic.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (Order, error)
}

// Client talks to the external payment gateway over HTTP with key/secret
// basic auth.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	httpc     *http.Client
	log       *logrus.Logger
}

func NewClient(baseURL, keyID, keySecret string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder issues a payment order for the due amount. Network errors and
// 5xx responses surface as ErrGatewayUnavailable so the caller can retry with
// bounded backoff; 4xx responses are permanent failures.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (Order, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return Order{}, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("payment gateway unreachable")
		return Order{}, fmt.Errorf("create order: %w", models.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		c.log.WithField("status", resp.StatusCode).Warn("payment gateway returned server error")
		return Order{}, fmt.Errorf("create order: status %d: %w", resp.StatusCode, models.ErrGatewayUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Order{}, fmt.Errorf("create order rejected: status %d: %s", resp.StatusCode, string(raw))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode order response: %w", err)
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("gateway returned order without id")
	}
	return order, nil
}
