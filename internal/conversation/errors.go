package conversation

import (
	"errors"

	"github.com/m3rciful/fishbot/internal/shop"
)

const (
	textUnavailable   = "⚠️ The shop is temporarily unavailable. Please try again in a minute."
	textBadEmail      = "This does not look like an e-mail. Please send an address like name@example.com."
	textPayEmptyCart  = "Your cart is empty, add something from the menu first."
	textBadQuantity   = "Could not add this product to the cart."
	textProductGone   = "This product is no longer available 😢"
	textItemGone      = "This item has already been removed from your cart."
	textNothingToFind = "Nothing found, please start from the menu."
)

// translateError is the only place where error kinds become user-facing text.
func translateError(err error) []Message {
	var ve *shop.ValidationError
	if errors.As(err, &ve) {
		switch ve.Field {
		case "email":
			return []Message{{Text: textBadEmail, Buttons: [][]Button{{menuButton}}}}
		case "cart":
			return []Message{{Text: textPayEmptyCart, Buttons: [][]Button{{menuButton}}}}
		default:
			return []Message{{Text: textBadQuantity, Buttons: [][]Button{{menuButton}}}}
		}
	}

	var nf *shop.NotFoundError
	if errors.As(err, &nf) {
		switch nf.Kind {
		case "product":
			return []Message{{Text: textProductGone, Buttons: [][]Button{{menuButton}}}}
		case "cart item":
			return []Message{{Text: textItemGone, Buttons: [][]Button{{cartButton}}}}
		default:
			return []Message{{Text: textNothingToFind, Buttons: [][]Button{{menuButton}}}}
		}
	}
	return []Message{unavailableMessage()}
}

func unavailableMessage() Message {
	return Message{Text: textUnavailable}
}

// UserError reports whether err was caused by the user's input rather than a failing dependency.
func UserError(err error) bool {
	var ve *shop.ValidationError
	var nf *shop.NotFoundError
	return errors.As(err, &ve) || errors.As(err, &nf)
}
