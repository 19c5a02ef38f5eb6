package logger

import (
	"strconv"
	"strings"
	"time"
)

// RoundMS rounds d to whole milliseconds; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Preview joins at most limit values and appends a "+N" marker for the rest,
// keeping list attributes (migration files, product ids) short on one line.
func Preview(values []string, limit int) string {
	if len(values) == 0 {
		return ""
	}
	if limit <= 0 {
		return "+" + strconv.Itoa(len(values))
	}
	if len(values) <= limit {
		return strings.Join(values, ",")
	}
	return strings.Join(values[:limit], ",") + ",+" + strconv.Itoa(len(values)-limit)
}
