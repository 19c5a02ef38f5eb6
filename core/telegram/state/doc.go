// Package state keeps per-user conversation sessions for Telegram bots.
// Sessions are opaque to the store; backends persist them as JSON keyed by user ID.
package state
