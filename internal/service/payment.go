package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"pettag-service/internal/model"
	"pettag-service/pkg/config"
)

// OrderTotals is the breakdown the payment processor computes for a checkout.
type OrderTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Charge is a completed-charge confirmation from the payment processor.
type Charge struct {
	ID        string `json:"charge_id"`
	Confirmed bool   `json:"confirmed"`
}

// PaymentProcessor is the contract for the external payment gateway. The
// purchase flow only needs a checkout redirect reference; the merchandise
// checkout flow captures the charge synchronously.
type PaymentProcessor interface {
	Totals(items []model.OrderItem) OrderTotals
	Charge(ctx context.Context, amount decimal.Decimal, currency, source string) (*Charge, error)
	CheckoutRef(orderID uint) string
}

// GatewayProcessor talks to the configured payment gateway over HTTP.
type GatewayProcessor struct {
	cfg        config.PaymentConfig
	httpClient *http.Client
}

func NewGatewayProcessor(cfg config.PaymentConfig) *GatewayProcessor {
	return &GatewayProcessor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Totals computes subtotal, tax and flat-rate shipping for the given items.
func (p *GatewayProcessor) Totals(items []model.OrderItem) OrderTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := subtotal.Mul(decimal.NewFromFloat(p.cfg.TaxRate)).Round(2)
	shipping := decimal.NewFromFloat(p.cfg.ShippingFee)
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}

	return OrderTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Charge captures a payment through the gateway's charge endpoint.
func (p *GatewayProcessor) Charge(ctx context.Context, amount decimal.Decimal, currency, source string) (*Charge, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amount.String(),
		"currency": currency,
		"source":   source,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/charges", p.cfg.GatewayURL), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var charge Charge
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	return &charge, nil
}

// CheckoutRef returns the hosted-checkout redirect reference for an order.
func (p *GatewayProcessor) CheckoutRef(orderID uint) string {
	return fmt.Sprintf("%s/checkout/orders/%d", p.cfg.GatewayURL, orderID)
}
