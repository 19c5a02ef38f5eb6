package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("fresh_salmon *wild* [1kg] `x`", MarkdownV1)
	if err != nil {
		t.Fatal(err)
	}
	want := "fresh\\_salmon \\*wild\\* \\[1kg] \\`x\\`"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("1.5 kg (fresh)!", MarkdownV2)
	if err != nil {
		t.Fatal(err)
	}
	if want := "1\\.5 kg \\(fresh\\)\\!"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("unknown version must fail")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Salmon", 20, "…"); got != "Salmon" {
		t.Fatalf("short input changed: %q", got)
	}
	if got := Truncate("Атлантический лосось", 10, "…"); got != "Атлантиче…" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("Wild king salmon", 6, "…"); got != "Wild…" {
		t.Fatalf("trailing space must be trimmed, got %q", got)
	}
}

func TestBoldKeepsEscapesOutsideEntity(t *testing.T) {
	cases := map[string]string{
		"Salmon":       "*Salmon*",
		"King_Salmon":  "*King*\\_*Salmon*",
		"_x_":          "\\_*x*\\_",
		"Trout *wild*": "*Trout *\\**wild*\\*",
		"":             "",
	}
	for in, want := range cases {
		if got := Bold(in); got != want {
			t.Fatalf("Bold(%q) = %q, want %q", in, got, want)
		}
	}
}
