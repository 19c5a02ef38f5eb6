// Package cart manages the single CMS cart each Telegram user owns.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Backend is the part of the CMS client the cart service needs.
type Backend interface {
	FindCartByUser(ctx context.Context, userID int64) (shop.Cart, bool, error)
	CreateCart(ctx context.Context, userID int64) (shop.Cart, error)
	ListCartItems(ctx context.Context, cartID int64) ([]shop.CartItem, error)
	FindCartItem(ctx context.Context, cartID, productID int64) (shop.CartItem, bool, error)
	CreateCartItem(ctx context.Context, cartID, productID int64, qty decimal.Decimal) (shop.CartItem, error)
	UpdateCartItem(ctx context.Context, key string, qty decimal.Decimal) (shop.CartItem, error)
	DeleteCartItem(ctx context.Context, key string) error
}

// Service implements cart operations on top of the CMS.
// Calls for one user must be serialized by the caller.
type Service struct {
	backend Backend
}

// NewService wraps a CMS backend.
func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// FindCart returns the user's cart without creating one.
func (s *Service) FindCart(ctx context.Context, userID int64) (shop.Cart, bool, error) {
	c, ok, err := s.backend.FindCartByUser(ctx, userID)
	if err != nil {
		return shop.Cart{}, false, fmt.Errorf("find cart for user %d: %w", userID, err)
	}
	return c, ok, nil
}

// GetOrCreateCart returns the user's cart, creating it on first use.
func (s *Service) GetOrCreateCart(ctx context.Context, userID int64) (shop.Cart, error) {
	c, ok, err := s.FindCart(ctx, userID)
	if err != nil {
		return shop.Cart{}, err
	}
	if ok {
		return c, nil
	}
	c, err = s.backend.CreateCart(ctx, userID)
	if err != nil {
		return shop.Cart{}, fmt.Errorf("create cart for user %d: %w", userID, err)
	}
	if c.UserID == 0 {
		c.UserID = userID
	}
	logger.Info(ctx, "service.cart", "cart.created",
		slog.Int64("cart_id", c.ID),
		slog.Int64("user_id", userID),
	)
	return c, nil
}

// AddItem increases the quantity of productID in the cart by qty, creating the line if needed.
func (s *Service) AddItem(ctx context.Context, c shop.Cart, productID int64, qty decimal.Decimal) (shop.CartItem, error) {
	if !qty.IsPositive() {
		return shop.CartItem{}, &shop.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	existing, ok, err := s.backend.FindCartItem(ctx, c.ID, productID)
	if err != nil {
		return shop.CartItem{}, fmt.Errorf("find cart line: %w", err)
	}
	if !ok {
		return s.createLine(ctx, c, productID, qty)
	}

	total := existing.Quantity.Add(qty)
	item, err := s.backend.UpdateCartItem(ctx, existing.Key(), total)
	switch {
	case err == nil:
		item.CartID, item.ProductID = c.ID, productID
		logger.Info(ctx, "service.cart", "item.updated",
			slog.Int64("cart_id", c.ID),
			slog.Int64("product_id", productID),
			slog.String("qty", total.String()),
		)
		return item, nil
	case shop.IsNotFound(err):
		// line was deleted between lookup and update
		return s.createLine(ctx, c, productID, total)
	default:
		return shop.CartItem{}, fmt.Errorf("update cart line: %w", err)
	}
}

func (s *Service) createLine(ctx context.Context, c shop.Cart, productID int64, qty decimal.Decimal) (shop.CartItem, error) {
	item, err := s.backend.CreateCartItem(ctx, c.ID, productID, qty)
	if err != nil {
		return shop.CartItem{}, fmt.Errorf("create cart line: %w", err)
	}
	logger.Info(ctx, "service.cart", "item.created",
		slog.Int64("cart_id", c.ID),
		slog.Int64("product_id", productID),
		slog.String("qty", qty.String()),
	)
	return item, nil
}

// RemoveItem deletes a line of the cart. An item that is not in this cart is a *shop.NotFoundError.
func (s *Service) RemoveItem(ctx context.Context, c shop.Cart, itemID int64) error {
	items, err := s.backend.ListCartItems(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("list cart lines: %w", err)
	}
	notFound := &shop.NotFoundError{Kind: "cart item", ID: strconv.FormatInt(itemID, 10)}
	var target *shop.CartItem
	for i := range items {
		if items[i].ID == itemID {
			target = &items[i]
			break
		}
	}
	if target == nil {
		return notFound
	}
	if err := s.backend.DeleteCartItem(ctx, target.Key()); err != nil {
		if shop.IsNotFound(err) {
			return notFound
		}
		return fmt.Errorf("delete cart line: %w", err)
	}
	logger.Info(ctx, "service.cart", "item.removed",
		slog.Int64("cart_id", c.ID),
		slog.Int64("item_id", itemID),
	)
	return nil
}

// ListItems returns the cart lines with their products. Lines without a positive quantity are skipped.
func (s *Service) ListItems(ctx context.Context, c shop.Cart) ([]shop.CartItem, error) {
	items, err := s.backend.ListCartItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	out := items[:0]
	for _, it := range items {
		if !it.Quantity.IsPositive() {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
