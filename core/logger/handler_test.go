package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	read := func() string {
		if err := aw.Flush(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		if err := aw.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		return strings.TrimSpace(buf.String())
	}
	return slog.New(handler), read
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", "app"), slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	line := read()
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	LogEvent(ctx, log.With("component", "cms"), slog.LevelError, "request.fail",
		slog.String("status", "fail"),
		slog.String("resource", "cart-items"),
		slog.String("verb", "PUT"),
		slog.Int("http_code", 500),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"cms"`, `"event":"request.fail"`, `"status":"fail"`, `"rid":"rid-json"`, `"resource":"cart-items"`, `"verb":"PUT"`, `"http_code":500`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(Background(), rawRID), log, slog.LevelInfo, "rid.test")

	line := read()
	if !strings.Contains(line, `"rid":"c.y.1k"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
	if !strings.Contains(line, `"ts_unix_nano"`) {
		t.Fatalf("expected ts_unix_nano to be present in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationsAndDefaults(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Info("", slog.Duration("duration", 1499*time.Microsecond), slog.String("empty", ""))

	line := read()
	if !strings.Contains(line, "duration_ms=1") {
		t.Fatalf("expected duration in ms, got %s", line)
	}
	if !strings.Contains(line, "component=app") || !strings.Contains(line, "event=unknown") {
		t.Fatalf("expected defaults for component and event, got %s", line)
	}
	if strings.Contains(line, "empty=") {
		t.Fatalf("empty strings must be pruned, got %s", line)
	}
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.Debug("hidden")
	if line := read(); line != "" {
		t.Fatalf("debug line should be filtered at info level, got %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow #%d = %v, want %v", i, got[i], want[i])
		}
	}

	s.Set(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for spec, want := range cases {
		n, d := parseRatioSpec(spec)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, n, d, want[0], want[1])
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\tc", 10); got != "ab\tc" {
		t.Fatalf("unexpected sanitize result %q", got)
	}
	if got := SanitizeLimit("лосось", 3); got != "лос" {
		t.Fatalf("unexpected limit result %q", got)
	}
}

func TestPreview(t *testing.T) {
	files := []string{"a", "b", "c", "d"}
	if got := Preview(files, 2); got != "a,b,+2" {
		t.Fatalf("preview = %q", got)
	}
	if got := Preview(files, 10); got != "a,b,c,d" {
		t.Fatalf("preview = %q", got)
	}
	if got := Preview(files, 0); got != "+4" {
		t.Fatalf("preview = %q", got)
	}
	if got := Preview(nil, 3); got != "" {
		t.Fatalf("preview of nothing = %q", got)
	}
	if RoundMS(-time.Second) != 0 || RoundMS(1499*time.Microsecond) != time.Millisecond {
		t.Fatal("RoundMS rounding mismatch")
	}
}
