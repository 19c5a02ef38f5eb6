package shop

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

type remote404 struct{}

func (remote404) Error() string  { return "cms: 404" }
func (remote404) NotFound() bool { return true }

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("get product: %w", &NotFoundError{Kind: "product", ID: "9"})) {
		t.Fatal("wrapped NotFoundError must match")
	}
	if !IsNotFound(fmt.Errorf("delete: %w", remote404{})) {
		t.Fatal("remote 404 must match")
	}
	if IsNotFound(fmt.Errorf("boom")) {
		t.Fatal("plain error must not match")
	}
}

func TestIsValidation(t *testing.T) {
	err := fmt.Errorf("checkout: %w", &ValidationError{Field: "cart", Reason: "empty"})
	if !IsValidation(err, "cart") || !IsValidation(err, "") {
		t.Fatal("validation error must match")
	}
	if IsValidation(err, "email") {
		t.Fatal("field mismatch must not match")
	}
}

func TestKeysPreferDocumentID(t *testing.T) {
	if got := (CartItem{ID: 5, DocumentID: "abc"}).Key(); got != "abc" {
		t.Fatalf("key = %q", got)
	}
	if got := (Client{ID: 5}).Key(); got != "5" {
		t.Fatalf("key = %q", got)
	}
}

func TestEffectiveWeight(t *testing.T) {
	if !(Product{}).EffectiveWeight().Equal(decimal.NewFromInt(1)) {
		t.Fatal("missing weight must default to 1")
	}
	w := decimal.RequireFromString("0.5")
	if !(Product{Weight: w}).EffectiveWeight().Equal(w) {
		t.Fatal("configured weight must be kept")
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&NotFoundError{Kind: "cart item", ID: "12"}).Error(); got != "cart item 12 not found" {
		t.Fatalf("got %q", got)
	}
	if got := (&ValidationError{Field: "email", Reason: "missing @"}).Error(); got != "invalid email: missing @" {
		t.Fatalf("got %q", got)
	}
}
