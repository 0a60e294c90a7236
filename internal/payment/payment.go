// Package payment wraps the external card gateway. A capture is two
// sequential calls: create a customer from the buyer's details and source
// token, then create a charge against that customer. Either failure aborts
// the capture; nothing is retried here, so re-invoking Charge runs both
// steps again and may charge twice. A fresh Idempotency-Key is attached to
// each charge call, which only guards that single attempt against
// transport-level retries.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mac2503/e-tiet2/internal/config"
	"github.com/mac2503/e-tiet2/internal/models"
)

type ChargeParams struct {
	AmountMinor int64
	Description string
	Email       string
	Name        string
	Address     string
	SourceToken string
}

type Receipt struct {
	CustomerID string
	ChargeID   string
}

type Client struct {
	http     *resty.Client
	currency string
}

func NewClient(cfg *config.Config) *Client {
	http := resty.New().
		SetBaseURL(cfg.StripeBaseURL).
		SetTimeout(cfg.GatewayTimeout).
		SetBasicAuth(cfg.StripeKey, "")
	return &Client{http: http, currency: cfg.Currency}
}

type gatewayObject struct {
	ID    string `json:"id"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge runs the create-customer then create-charge sequence and returns
// the gateway identifiers. Failures wrap models.ErrPaymentFailed with the
// gateway detail for logging; callers surface only the sentinel.
func (c *Client) Charge(ctx context.Context, p ChargeParams) (*Receipt, error) {
	customerID, err := c.createCustomer(ctx, p)
	if err != nil {
		return nil, err
	}

	chargeID, err := c.createCharge(ctx, p, customerID)
	if err != nil {
		return nil, err
	}
	return &Receipt{CustomerID: customerID, ChargeID: chargeID}, nil
}

func (c *Client) createCustomer(ctx context.Context, p ChargeParams) (string, error) {
	var out gatewayObject
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":          p.Email,
			"name":           p.Name,
			"address[line1]": p.Address,
			"source":         p.SourceToken,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/v1/customers")
	return out.ID, c.check("create customer", resp, err, &out)
}

func (c *Client) createCharge(ctx context.Context, p ChargeParams, customerID string) (string, error) {
	var out gatewayObject
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetFormData(map[string]string{
			"amount":      strconv.FormatInt(p.AmountMinor, 10),
			"currency":    c.currency,
			"description": p.Description,
			"customer":    customerID,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/v1/charges")
	return out.ID, c.check("create charge", resp, err, &out)
}

func (c *Client) check(step string, resp *resty.Response, err error, out *gatewayObject) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrPaymentFailed, step, err)
	}
	if resp.IsError() || out.Error != nil {
		detail := resp.Status()
		if out.Error != nil {
			detail = out.Error.Message
		}
		return fmt.Errorf("%w: %s: %s", models.ErrPaymentFailed, step, detail)
	}
	if out.ID == "" {
		return fmt.Errorf("%w: %s: empty gateway response", models.ErrPaymentFailed, step)
	}
	return nil
}
