package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var outcomes = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"cancelled":    {},
	"rate_limited": {},
	"rejected":     {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := outcomes[outcome]
	return outcome, ok
}

// defaultKeyOrder puts correlation and routing keys first so lines scan left to right.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"outcome",
	"state",
	"next_state",
	"fsm_event",
	"resource",
	"verb",
	"http_code",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"product_id",
	"cart_id",
	"item_id",
	"total",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"backend",
	"db",
	"host",
	"port",
	"queue",
	"err",
	"err_code",
	"cause",
	"attempts",
}
