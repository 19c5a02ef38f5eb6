package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "Salmon", Unique: "product", Data: "7"}},
		nil,
		[]InlineBtn{{Text: "🛒 Cart", Unique: "cart"}, {Text: "⬅️ Menu", Unique: "menu"}},
	)
	if m == nil || len(m.InlineKeyboard) != 2 {
		t.Fatalf("unexpected keyboard %+v", m)
	}
	if b := m.InlineKeyboard[0][0]; b.Unique != "product" || b.Data != "7" || b.Text != "Salmon" {
		t.Fatalf("first button = %+v", b)
	}
	if b := m.InlineKeyboard[1][1]; b.Unique != "menu" || b.Data != "" {
		t.Fatalf("menu button = %+v", b)
	}
	if InlineButtonsRows() != nil {
		t.Fatal("no rows must yield nil markup")
	}
}
