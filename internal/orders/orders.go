// Package orders hands order requests captured at checkout to the fulfilment side.
package orders

import (
	"context"
	"time"

	"github.com/m3rciful/fishbot/internal/cart"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Publisher delivers order requests.
type Publisher interface {
	Publish(ctx context.Context, req shop.OrderRequest) error
	Close() error
}

// Noop drops every request. Used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, shop.OrderRequest) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// BuildRequest snapshots a cart into an order request.
func BuildRequest(userID int64, email string, items []shop.CartItem, at time.Time) shop.OrderRequest {
	req := shop.OrderRequest{
		UserID:    userID,
		Email:     email,
		Items:     make([]shop.OrderLine, 0, len(items)),
		Total:     cart.ComputeTotal(items),
		CreatedAt: at.UTC(),
	}
	for _, it := range items {
		line := shop.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if it.Product != nil {
			line.Title = it.Product.Name
			line.Price = it.Product.Price
		}
		req.Items = append(req.Items, line)
	}
	return req
}
