// Package shop holds the catalog, cart and client records shared by the bot services.
// All of them are owned by the CMS; values here are read results, never authoritative copies.
package shop

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry sold by weight.
type Product struct {
	ID          int64
	DocumentID  string
	Name        string
	Description string
	Price       decimal.Decimal
	// Weight is the quantity added to the cart by one "add" press.
	Weight   decimal.Decimal
	ImageURL string
}

// Cart belongs to exactly one Telegram user.
type Cart struct {
	ID         int64
	DocumentID string
	UserID     int64
}

// CartItem is a (product, quantity) line inside a cart.
type CartItem struct {
	ID         int64
	DocumentID string
	CartID     int64
	ProductID  int64
	Quantity   decimal.Decimal
	// Product is set when the item was listed with its product populated.
	Product *Product
}

// Key returns the identifier used in item URLs: documentId when present, else the numeric id.
func (i CartItem) Key() string {
	return recordKey(i.DocumentID, i.ID)
}

// Client stores the contact e-mail captured at checkout.
type Client struct {
	ID         int64
	DocumentID string
	UserID     int64
	Email      string
}

// Key returns the identifier used in client URLs.
func (c Client) Key() string {
	return recordKey(c.DocumentID, c.ID)
}

// OrderRequest is published once a client leaves an e-mail for a non-empty cart.
type OrderRequest struct {
	UserID    int64           `json:"user_id"`
	Email     string          `json:"email"`
	Items     []OrderLine     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderLine is one cart line inside an OrderRequest.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// DefaultWeight is used when the CMS has no weight for a product.
var DefaultWeight = decimal.NewFromInt(1)

// EffectiveWeight returns the product weight, falling back to DefaultWeight for zero or negative values.
func (p Product) EffectiveWeight() decimal.Decimal {
	if p.Weight.IsPositive() {
		return p.Weight
	}
	return DefaultWeight
}

func recordKey(documentID string, id int64) string {
	if documentID != "" {
		return documentID
	}
	return strconv.FormatInt(id, 10)
}
