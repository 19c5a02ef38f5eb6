package helpers

import (
	"context"

	"github.com/m3rciful/fishbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "logger_ctx"

// UpdateMeta identifies an update for logging and per-user routing.
type UpdateMeta struct {
	UpdateID int
	UserID   int64
	ChatID   int64
}

// Meta extracts ids from c; absent sender or chat yield zero ids.
func Meta(c tele.Context) UpdateMeta {
	m := UpdateMeta{UpdateID: c.Update().ID}
	if u := c.Sender(); u != nil {
		m.UserID = u.ID
	}
	if ch := c.Chat(); ch != nil {
		m.ChatID = ch.ID
	}
	return m
}

// StoreContext keeps ctx on c for later helpers and handlers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored update context, creating one carrying the
// rid and update ids when the logging middleware did not run.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	m := Meta(c)
	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the update context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}
