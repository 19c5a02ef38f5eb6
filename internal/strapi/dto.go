package strapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/internal/shop"
)

type listResponse[T any] struct {
	Data []T `json:"data"`
}

type itemResponse[T any] struct {
	Data *T `json:"data"`
}

type writeRequest struct {
	Data map[string]any `json:"data"`
}

type mediaFormat struct {
	URL string `json:"url"`
}

type mediaDTO struct {
	URL     string                 `json:"url"`
	Formats map[string]mediaFormat `json:"formats"`
}

// best picks medium, then small, then the original upload.
func (m mediaDTO) best() string {
	for _, name := range []string{"medium", "small"} {
		if f, ok := m.Formats[name]; ok && f.URL != "" {
			return f.URL
		}
	}
	return m.URL
}

type productDTO struct {
	ID          int64               `json:"id"`
	DocumentID  string              `json:"documentId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	QtyKg       decimal.NullDecimal `json:"qty_kg"`
	Picture     json.RawMessage     `json:"picture"`
}

type cartDTO struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
}

type cartItemDTO struct {
	ID         int64               `json:"id"`
	DocumentID string              `json:"documentId"`
	QtyKg      decimal.NullDecimal `json:"qty_kg"`
	Product    *productDTO         `json:"product"`
	Cart       *cartDTO            `json:"cart"`
}

type clientDTO struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Email      string `json:"email"`
}

// pictureURL accepts a single media object or a list of them.
func pictureURL(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '[' {
		var list []mediaDTO
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		return list[0].best()
	}
	var m mediaDTO
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	return m.best()
}

// resolveURL joins relative upload paths with the CMS base URL.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	rel, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(rel).String()
}

func (d productDTO) toProduct(base *url.URL) shop.Product {
	p := shop.Product{
		ID:          d.ID,
		DocumentID:  d.DocumentID,
		Name:        strings.TrimSpace(d.Title),
		Description: d.Description,
		ImageURL:    resolveURL(base, pictureURL(d.Picture)),
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("Product #%d", d.ID)
	}
	if d.Price.Valid {
		p.Price = d.Price.Decimal
	}
	if d.QtyKg.Valid {
		p.Weight = d.QtyKg.Decimal
	}
	return p
}

func (d cartDTO) toCart(userID int64) shop.Cart {
	return shop.Cart{ID: d.ID, DocumentID: d.DocumentID, UserID: userID}
}

func (d cartItemDTO) toItem(base *url.URL, cartID, productID int64) shop.CartItem {
	item := shop.CartItem{
		ID:         d.ID,
		DocumentID: d.DocumentID,
		CartID:     cartID,
		ProductID:  productID,
	}
	if d.QtyKg.Valid {
		item.Quantity = d.QtyKg.Decimal
	}
	if d.Cart != nil && d.Cart.ID != 0 {
		item.CartID = d.Cart.ID
	}
	if d.Product != nil {
		p := d.Product.toProduct(base)
		item.Product = &p
		if p.ID != 0 {
			item.ProductID = p.ID
		}
	}
	return item
}

func (d clientDTO) toClient(userID int64) shop.Client {
	return shop.Client{ID: d.ID, DocumentID: d.DocumentID, UserID: userID, Email: d.Email}
}

// tgID renders a Telegram user id the way the CMS stores it (a string field).
func tgID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// number keeps decimals as JSON numbers in request bodies.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
