package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MarkdownV1 denotes Telegram legacy Markdown.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram MarkdownV2.
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile(`([_*\[\]()~` + "`" + `>#+\-=|{}.!\\])`)
)

// EscapeMarkdown escapes special characters for the given Markdown version.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MD escapes text for legacy Markdown.
func MD(text string) string {
	out, _ := EscapeMarkdown(text, MarkdownV1)
	return out
}

// Truncate cuts s to at most limit runes, appending suffix when something was removed.
// The suffix counts toward the limit.
func Truncate(s string, limit int, suffix string) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	r := []rune(s)
	return strings.TrimRightFunc(string(r[:keep]), func(r rune) bool { return r == ' ' || r == '\n' }) + suffix
}

// Bold wraps text in a legacy Markdown bold entity. Escapes are not allowed
// inside an entity, so the entity is closed around each special character.
func Bold(text string) string {
	var b strings.Builder
	open := false
	for _, r := range text {
		if strings.ContainsRune("_*`[", r) {
			if open {
				b.WriteByte('*')
				open = false
			}
			b.WriteByte('\\')
			b.WriteRune(r)
			continue
		}
		if !open {
			b.WriteByte('*')
			open = true
		}
		b.WriteRune(r)
	}
	if open {
		b.WriteByte('*')
	}
	return b.String()
}
