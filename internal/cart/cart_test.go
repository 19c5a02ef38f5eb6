package cart

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/fishbot/internal/shop"
)

type remoteNotFound struct{}

func (remoteNotFound) Error() string  { return "status 404" }
func (remoteNotFound) NotFound() bool { return true }

// memoryCMS is an in-memory stand-in for the CMS cart resources.
type memoryCMS struct {
	products map[int64]shop.Product
	carts    []shop.Cart
	items    map[string]shop.CartItem
	nextID   int64

	creates, updates, deletes int
	vanishOnUpdate            bool
	err                       error
}

func newMemoryCMS(products ...shop.Product) *memoryCMS {
	m := &memoryCMS{products: map[int64]shop.Product{}, items: map[string]shop.CartItem{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memoryCMS) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryCMS) FindCartByUser(_ context.Context, userID int64) (shop.Cart, bool, error) {
	if m.err != nil {
		return shop.Cart{}, false, m.err
	}
	for _, c := range m.carts {
		if c.UserID == userID {
			return c, true, nil
		}
	}
	return shop.Cart{}, false, nil
}

func (m *memoryCMS) CreateCart(_ context.Context, userID int64) (shop.Cart, error) {
	c := shop.Cart{ID: m.id(), UserID: userID}
	c.DocumentID = "cart-" + strconv.FormatInt(c.ID, 10)
	m.carts = append(m.carts, c)
	return c, nil
}

func (m *memoryCMS) ListCartItems(_ context.Context, cartID int64) ([]shop.CartItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []shop.CartItem
	for _, it := range m.items {
		if it.CartID != cartID {
			continue
		}
		if p, ok := m.products[it.ProductID]; ok {
			it.Product = &p
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memoryCMS) FindCartItem(_ context.Context, cartID, productID int64) (shop.CartItem, bool, error) {
	for _, it := range m.items {
		if it.CartID == cartID && it.ProductID == productID {
			return it, true, nil
		}
	}
	return shop.CartItem{}, false, nil
}

func (m *memoryCMS) CreateCartItem(_ context.Context, cartID, productID int64, qty decimal.Decimal) (shop.CartItem, error) {
	m.creates++
	it := shop.CartItem{ID: m.id(), CartID: cartID, ProductID: productID, Quantity: qty}
	it.DocumentID = "item-" + strconv.FormatInt(it.ID, 10)
	m.items[it.Key()] = it
	return it, nil
}

func (m *memoryCMS) UpdateCartItem(_ context.Context, key string, qty decimal.Decimal) (shop.CartItem, error) {
	m.updates++
	if m.vanishOnUpdate {
		delete(m.items, key)
	}
	it, ok := m.items[key]
	if !ok {
		return shop.CartItem{}, remoteNotFound{}
	}
	it.Quantity = qty
	m.items[key] = it
	return it, nil
}

func (m *memoryCMS) DeleteCartItem(_ context.Context, key string) error {
	m.deletes++
	if _, ok := m.items[key]; !ok {
		return remoteNotFound{}
	}
	delete(m.items, key)
	return nil
}

var (
	salmon = shop.Product{ID: 1, Name: "Salmon", Price: decimal.NewFromInt(10), Weight: decimal.NewFromInt(1)}
	trout  = shop.Product{ID: 2, Name: "Trout", Price: decimal.RequireFromString("7.35"), Weight: decimal.RequireFromString("0.5")}
	eel    = shop.Product{ID: 3, Name: "Eel", Price: decimal.RequireFromString("3.33")}
)

func TestGetOrCreateCartIsStable(t *testing.T) {
	cms := newMemoryCMS()
	svc := NewService(cms)
	ctx := context.Background()

	first, err := svc.GetOrCreateCart(ctx, 42)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.GetOrCreateCart(ctx, 42)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID || len(cms.carts) != 1 {
		t.Fatalf("expected one cart, got %+v / %+v (%d carts)", first, second, len(cms.carts))
	}
	if _, ok, _ := svc.FindCart(ctx, 43); ok {
		t.Fatal("FindCart must not create carts")
	}
}

func TestAddItemMergesQuantities(t *testing.T) {
	cms := newMemoryCMS(salmon)
	svc := NewService(cms)
	ctx := context.Background()
	c, _ := svc.GetOrCreateCart(ctx, 42)

	if _, err := svc.AddItem(ctx, c, 1, decimal.NewFromInt(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	item, err := svc.AddItem(ctx, c, 1, decimal.RequireFromString("0.5"))
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if !item.Quantity.Equal(decimal.RequireFromString("1.5")) || item.ProductID != 1 || item.CartID != c.ID {
		t.Fatalf("merged line = %+v", item)
	}
	if len(cms.items) != 1 || cms.creates != 1 || cms.updates != 1 {
		t.Fatalf("items=%d creates=%d updates=%d", len(cms.items), cms.creates, cms.updates)
	}
}

func TestAddItemRecreatesVanishedLine(t *testing.T) {
	cms := newMemoryCMS(salmon)
	svc := NewService(cms)
	ctx := context.Background()
	c, _ := svc.GetOrCreateCart(ctx, 42)
	if _, err := svc.AddItem(ctx, c, 1, decimal.NewFromInt(2)); err != nil {
		t.Fatal(err)
	}

	cms.vanishOnUpdate = true
	item, err := svc.AddItem(ctx, c, 1, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("add after vanish: %v", err)
	}
	if !item.Quantity.Equal(decimal.NewFromInt(3)) || cms.creates != 2 {
		t.Fatalf("line = %+v creates = %d", item, cms.creates)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	cms := newMemoryCMS(salmon)
	svc := NewService(cms)
	c, _ := svc.GetOrCreateCart(context.Background(), 42)
	for _, q := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		_, err := svc.AddItem(context.Background(), c, 1, q)
		if !shop.IsValidation(err, "quantity") {
			t.Fatalf("qty %s: err = %v", q, err)
		}
	}
	if cms.creates != 0 {
		t.Fatal("invalid quantity must not reach the CMS")
	}
}

func TestRemoveUnknownItem(t *testing.T) {
	cms := newMemoryCMS(salmon)
	svc := NewService(cms)
	ctx := context.Background()
	c, _ := svc.GetOrCreateCart(ctx, 42)
	_, _ = svc.AddItem(ctx, c, 1, decimal.NewFromInt(1))

	err := svc.RemoveItem(ctx, c, 999)
	var nf *shop.NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "cart item" {
		t.Fatalf("err = %v", err)
	}
	if len(cms.items) != 1 || cms.deletes != 0 {
		t.Fatal("cart must be unchanged")
	}
}

func TestRemoveItemOfAnotherCart(t *testing.T) {
	cms := newMemoryCMS(salmon)
	svc := NewService(cms)
	ctx := context.Background()
	mine, _ := svc.GetOrCreateCart(ctx, 42)
	theirs, _ := svc.GetOrCreateCart(ctx, 43)
	foreign, _ := svc.AddItem(ctx, theirs, 1, decimal.NewFromInt(1))

	if err := svc.RemoveItem(ctx, mine, foreign.ID); !shop.IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
	if len(cms.items) != 1 {
		t.Fatal("foreign line must survive")
	}
}

func TestListItemsSkipsEmptyLines(t *testing.T) {
	cms := newMemoryCMS(salmon, trout)
	svc := NewService(cms)
	ctx := context.Background()
	c, _ := svc.GetOrCreateCart(ctx, 42)
	_, _ = svc.AddItem(ctx, c, 1, decimal.NewFromInt(1))
	cms.items["zero"] = shop.CartItem{ID: 100, DocumentID: "zero", CartID: c.ID, ProductID: 2}

	items, err := svc.ListItems(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Product == nil || items[0].Product.Name != "Salmon" {
		t.Fatalf("items = %+v", items)
	}
}

func TestListItemsWrapsBackendError(t *testing.T) {
	cms := newMemoryCMS()
	cause := errors.New("cms down")
	cms.err = cause
	if _, err := NewService(cms).ListItems(context.Background(), shop.Cart{ID: 1}); !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
}

func TestComputeTotal(t *testing.T) {
	items := []shop.CartItem{
		{Quantity: decimal.NewFromInt(1), Product: &salmon},
		{Quantity: decimal.RequireFromString("1.5"), Product: &trout},
		{Quantity: decimal.NewFromInt(1), Product: &eel},
		{Quantity: decimal.Zero, Product: &salmon},
	}
	// 10 + 7.35*1.5/0.5 + 3.33 = 35.38
	if got := ComputeTotal(items); !got.Equal(decimal.RequireFromString("35.38")) {
		t.Fatalf("total = %s", got)
	}
	if got := LineTotal(items[1]); !got.Equal(decimal.RequireFromString("22.05")) {
		t.Fatalf("line total = %s", got)
	}
	if !ComputeTotal(nil).IsZero() {
		t.Fatal("empty cart total must be zero")
	}
}

func TestComputeTotalRoundsOnce(t *testing.T) {
	third := shop.Product{Price: decimal.NewFromInt(1), Weight: decimal.NewFromInt(3)}
	items := []shop.CartItem{
		{Quantity: decimal.NewFromInt(1), Product: &third},
		{Quantity: decimal.NewFromInt(1), Product: &third},
		{Quantity: decimal.NewFromInt(1), Product: &third},
	}
	// per-line rounding would give 0.99
	if got := ComputeTotal(items); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("total = %s", got)
	}
}

func TestTotalMatchesModelForRandomSequences(t *testing.T) {
	products := []shop.Product{salmon, trout, eel}
	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		cms := newMemoryCMS(products...)
		svc := NewService(cms)
		c, err := svc.GetOrCreateCart(ctx, int64(round+1))
		if err != nil {
			t.Fatal(err)
		}
		model := map[int64]decimal.Decimal{}

		for step := 0; step < 30; step++ {
			p := products[rng.Intn(len(products))]
			if rng.Intn(3) > 0 {
				if _, err := svc.AddItem(ctx, c, p.ID, p.EffectiveWeight()); err != nil {
					t.Fatalf("add: %v", err)
				}
				model[p.ID] = model[p.ID].Add(p.EffectiveWeight())
				continue
			}
			items, _ := svc.ListItems(ctx, c)
			var itemID int64 = 12345
			for _, it := range items {
				if it.ProductID == p.ID {
					itemID = it.ID
				}
			}
			err := svc.RemoveItem(ctx, c, itemID)
			if _, present := model[p.ID]; present {
				if err != nil {
					t.Fatalf("remove: %v", err)
				}
				delete(model, p.ID)
			} else if !shop.IsNotFound(err) {
				t.Fatalf("remove absent: %v", err)
			}
		}

		want := decimal.Zero
		for _, p := range products {
			if q, ok := model[p.ID]; ok {
				want = want.Add(p.Price.Mul(q).Div(p.EffectiveWeight()))
			}
		}
		items, err := svc.ListItems(ctx, c)
		if err != nil {
			t.Fatal(err)
		}
		if got := ComputeTotal(items); !got.Equal(want.Round(2)) {
			t.Fatalf("round %d: total %s, want %s", round, got, want.Round(2))
		}
	}
}
