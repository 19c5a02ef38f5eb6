package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/fishbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// updateSeen remembers update ids for a while so an update routed through
// several wrapped endpoints is logged once.
type updateSeen struct {
	mu     sync.Mutex
	ttl    time.Duration
	ids    map[int]time.Time
	pruned time.Time
}

var receipts = &updateSeen{ttl: 10 * time.Second, ids: make(map[int]time.Time)}

func (u *updateSeen) first(id int, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if now.Sub(u.pruned) > u.ttl {
		for k, at := range u.ids {
			if now.Sub(at) > u.ttl {
				delete(u.ids, k)
			}
		}
		u.pruned = now
	}
	if _, ok := u.ids[id]; ok {
		return false
	}
	u.ids[id] = now
	return true
}

// LoggerMiddleware assigns the update rid, stores the logging context and
// emits a sampled update.received line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		m := tghelpers.Meta(c)
		rid := logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
		c.Set("rid", rid)
		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && receipts.first(m.UpdateID, time.Now()) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c, c.Update())...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if user := c.Sender(); user != nil && user.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
	}
	switch {
	case upd.Callback != nil:
		attrs = append(attrs, slog.String("kind", "callback"))
		key, payload := callbacks.ParseCallbackData(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 64)))
		}
	case upd.Message != nil:
		attrs = append(attrs, slog.String("kind", "message"))
		// Free text may be a checkout e-mail; log only its length.
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.Int("text_len", len([]rune(t))))
		}
	}
	return attrs
}
