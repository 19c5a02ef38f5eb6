package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/fishbot/core/telegram"
	"github.com/m3rciful/fishbot/core/telegram/callbacks"
	"github.com/m3rciful/fishbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a single OnCallback route that dispatches by unique key through the registry.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		// Stop the client-side spinner before any slow work.
		_ = c.Respond()

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("reason", "not_found"))
			if fallback == nil {
				logHandlerSummary(c, name, start, "skip", nil, extras...)
				return nil
			}
			return handleWithSummary(c, name, start, func() error { return fallback(c) }, extras...)
		}

		return handleWithSummary(c, name, start, func() error { return cbHandler(c) }, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.LoggerMiddleware(handler),
	}
}
