package api

import (
	"context"
	"net/http"

	"github.com/and161185/storefront/internal/model"
)

// CreatePayment starts payment of an order and returns the processor redirect.
func (c *Client) CreatePayment(ctx context.Context, orderID int64) (*model.PaymentHandoff, error) {
	var out model.PaymentHandoff
	if err := c.do(ctx, http.MethodPost, join("pagos", "crear", itoa(orderID)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
