package strapi

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/internal/shop"
)

// ListProducts returns the catalog in CMS order.
func (c *Client) ListProducts(ctx context.Context) ([]shop.Product, error) {
	var resp listResponse[productDTO]
	if err := c.do(ctx, http.MethodGet, resourceProducts, "", NewQuery().Populate(), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]shop.Product, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.ID == 0 {
			continue
		}
		out = append(out, d.toProduct(c.base))
	}
	return out, nil
}

// FindProduct looks a product up by numeric id.
func (c *Client) FindProduct(ctx context.Context, id int64) (shop.Product, bool, error) {
	var resp listResponse[productDTO]
	q := NewQuery().Eq(id, "id").Populate()
	if err := c.do(ctx, http.MethodGet, resourceProducts, "", q, nil, &resp); err != nil {
		return shop.Product{}, false, err
	}
	if len(resp.Data) == 0 {
		return shop.Product{}, false, nil
	}
	return resp.Data[0].toProduct(c.base), true, nil
}

// FindCartByUser returns the cart owned by a Telegram user.
func (c *Client) FindCartByUser(ctx context.Context, userID int64) (shop.Cart, bool, error) {
	var resp listResponse[cartDTO]
	if err := c.do(ctx, http.MethodGet, resourceCarts, "", NewQuery().Eq(tgID(userID), "tg_id"), nil, &resp); err != nil {
		return shop.Cart{}, false, err
	}
	if len(resp.Data) == 0 {
		return shop.Cart{}, false, nil
	}
	return resp.Data[0].toCart(userID), true, nil
}

// CreateCart creates an empty cart for a Telegram user.
func (c *Client) CreateCart(ctx context.Context, userID int64) (shop.Cart, error) {
	body := writeRequest{Data: map[string]any{"tg_id": tgID(userID)}}
	var resp itemResponse[cartDTO]
	if err := c.do(ctx, http.MethodPost, resourceCarts, "", nil, body, &resp); err != nil {
		return shop.Cart{}, err
	}
	if resp.Data == nil {
		return shop.Cart{}, emptyData(resourceCarts, http.MethodPost)
	}
	return resp.Data.toCart(userID), nil
}

// ListCartItems returns the lines of a cart with their products populated.
func (c *Client) ListCartItems(ctx context.Context, cartID int64) ([]shop.CartItem, error) {
	var resp listResponse[cartItemDTO]
	q := NewQuery().Eq(cartID, "cart", "id").Populate("product")
	if err := c.do(ctx, http.MethodGet, resourceCartItems, "", q, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]shop.CartItem, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, d.toItem(c.base, cartID, 0))
	}
	return out, nil
}

// FindCartItem returns the line for productID in a cart.
func (c *Client) FindCartItem(ctx context.Context, cartID, productID int64) (shop.CartItem, bool, error) {
	var resp listResponse[cartItemDTO]
	q := NewQuery().Eq(cartID, "cart", "id").Eq(productID, "product", "id")
	if err := c.do(ctx, http.MethodGet, resourceCartItems, "", q, nil, &resp); err != nil {
		return shop.CartItem{}, false, err
	}
	if len(resp.Data) == 0 {
		return shop.CartItem{}, false, nil
	}
	return resp.Data[0].toItem(c.base, cartID, productID), true, nil
}

// CreateCartItem adds a new line to a cart.
func (c *Client) CreateCartItem(ctx context.Context, cartID, productID int64, qty decimal.Decimal) (shop.CartItem, error) {
	body := writeRequest{Data: map[string]any{
		"cart":    cartID,
		"product": productID,
		"qty_kg":  number(qty),
	}}
	var resp itemResponse[cartItemDTO]
	if err := c.do(ctx, http.MethodPost, resourceCartItems, "", nil, body, &resp); err != nil {
		return shop.CartItem{}, err
	}
	if resp.Data == nil {
		return shop.CartItem{}, emptyData(resourceCartItems, http.MethodPost)
	}
	return resp.Data.toItem(c.base, cartID, productID), nil
}

// UpdateCartItem sets the quantity of an existing line identified by its key.
func (c *Client) UpdateCartItem(ctx context.Context, key string, qty decimal.Decimal) (shop.CartItem, error) {
	body := writeRequest{Data: map[string]any{"qty_kg": number(qty)}}
	var resp itemResponse[cartItemDTO]
	if err := c.do(ctx, http.MethodPut, resourceCartItems, key, nil, body, &resp); err != nil {
		return shop.CartItem{}, err
	}
	if resp.Data == nil {
		return shop.CartItem{}, emptyData(resourceCartItems, http.MethodPut)
	}
	return resp.Data.toItem(c.base, 0, 0), nil
}

// DeleteCartItem removes a line by key.
func (c *Client) DeleteCartItem(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, resourceCartItems, key, nil, nil, nil)
}

// FindClientByUser returns the client record of a Telegram user.
func (c *Client) FindClientByUser(ctx context.Context, userID int64) (shop.Client, bool, error) {
	var resp listResponse[clientDTO]
	if err := c.do(ctx, http.MethodGet, resourceClients, "", NewQuery().Eq(tgID(userID), "tg_id"), nil, &resp); err != nil {
		return shop.Client{}, false, err
	}
	if len(resp.Data) == 0 {
		return shop.Client{}, false, nil
	}
	return resp.Data[0].toClient(userID), true, nil
}

// CreateClient stores a new client with its e-mail.
func (c *Client) CreateClient(ctx context.Context, userID int64, email string) (shop.Client, error) {
	body := writeRequest{Data: map[string]any{"tg_id": tgID(userID), "email": email}}
	var resp itemResponse[clientDTO]
	if err := c.do(ctx, http.MethodPost, resourceClients, "", nil, body, &resp); err != nil {
		return shop.Client{}, err
	}
	if resp.Data == nil {
		return shop.Client{}, emptyData(resourceClients, http.MethodPost)
	}
	return resp.Data.toClient(userID), nil
}

// UpdateClient replaces the e-mail of an existing client identified by its key.
func (c *Client) UpdateClient(ctx context.Context, key string, email string) (shop.Client, error) {
	body := writeRequest{Data: map[string]any{"email": email}}
	var resp itemResponse[clientDTO]
	if err := c.do(ctx, http.MethodPut, resourceClients, key, nil, body, &resp); err != nil {
		return shop.Client{}, err
	}
	if resp.Data == nil {
		return shop.Client{}, emptyData(resourceClients, http.MethodPut)
	}
	return resp.Data.toClient(0), nil
}

func emptyData(resource, verb string) error {
	return &RemoteServiceError{Resource: resource, Verb: verb, Err: errEmptyData}
}
