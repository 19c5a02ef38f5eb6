package conversation

import (
	"fmt"
	"strings"

	"github.com/m3rciful/fishbot/core/telegram/format"
	"github.com/m3rciful/fishbot/internal/cart"
	"github.com/m3rciful/fishbot/internal/shop"
)

// Button and message texts.
const (
	btnCart      = "🧺 My cart"
	btnMenu      = "⬅️ Back to menu"
	btnAdd       = "🛒 Add to cart"
	btnPay       = "💳 Pay"
	btnRemoveFmt = "❌ Remove: %s"

	textMenu       = "🐟 *Choose a fish from the menu:*"
	textNoProducts = "No products available right now."
	textCartEmpty  = "🧺 Your cart is empty."
	textCartTitle  = "🧺 *Your cart:*"
	textEmailAsk   = "Please send your e-mail so we can contact you about the order:"
	textThanksFmt  = "Thank you! We saved your e-mail: %s"
	textAddedFmt   = "✅ %s (%s kg) added to your cart."

	removeTitleLimit = 21
)

var (
	cartButton = Button{Text: btnCart, Kind: EventCart}
	menuButton = Button{Text: btnMenu, Kind: EventMenu}
)

func menuMessage(products []shop.Product) Message {
	if len(products) == 0 {
		return Message{
			Text:    textNoProducts,
			Buttons: [][]Button{{cartButton}},
		}
	}
	rows := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, []Button{{Text: p.Name, Kind: EventProduct, ID: p.ID}})
	}
	rows = append(rows, []Button{cartButton})
	return Message{Text: textMenu, Buttons: rows}
}

func productMessage(p shop.Product) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "🐟 %s\nPrice: %s per %s kg", format.Bold(p.Name), p.Price.StringFixed(2), p.EffectiveWeight().String())
	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString("\n\n")
		b.WriteString(format.MD(d))
	}
	return Message{
		Text:     b.String(),
		ImageURL: p.ImageURL,
		Buttons: [][]Button{
			{{Text: btnAdd, Kind: EventAdd, ID: p.ID}},
			{cartButton},
			{menuButton},
		},
	}
}

func addedMessage(p shop.Product) Message {
	return Message{
		Text:    fmt.Sprintf(textAddedFmt, format.MD(p.Name), p.EffectiveWeight().String()),
		Buttons: [][]Button{{cartButton, menuButton}},
	}
}

func cartMessage(items []shop.CartItem) Message {
	if len(items) == 0 {
		return Message{Text: textCartEmpty, Buttons: [][]Button{{menuButton}}}
	}
	lines := []string{textCartTitle, ""}
	rows := make([][]Button, 0, len(items)+2)
	for i, it := range items {
		title := itemTitle(it)
		price := "0.00"
		if it.Product != nil {
			price = it.Product.Price.StringFixed(2)
		}
		lines = append(lines, fmt.Sprintf("%d. %s\n   %s kg × %s = %s\n",
			i+1, format.MD(title), it.Quantity.String(), price, cart.LineTotal(it).StringFixed(2)))
		rows = append(rows, []Button{{
			Text: fmt.Sprintf(btnRemoveFmt, format.Truncate(title, removeTitleLimit, "…")),
			Kind: EventRemove,
			ID:   it.ID,
		}})
	}
	lines = append(lines, "Total: "+cart.ComputeTotal(items).StringFixed(2))
	rows = append(rows, []Button{{Text: btnPay, Kind: EventPay}}, []Button{menuButton})
	return Message{Text: strings.Join(lines, "\n"), Buttons: rows}
}

func itemTitle(it shop.CartItem) string {
	if it.Product != nil && it.Product.Name != "" {
		return it.Product.Name
	}
	return fmt.Sprintf("Product #%d", it.ProductID)
}

func emailPromptMessage() Message {
	return Message{Text: textEmailAsk, Buttons: [][]Button{{menuButton}}}
}

func thanksMessage(email string) Message {
	return Message{Text: fmt.Sprintf(textThanksFmt, format.MD(email))}
}
