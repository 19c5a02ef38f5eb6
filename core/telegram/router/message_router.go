package router

import (
	"time"

	tg "github.com/m3rciful/fishbot/core/telegram"
	"github.com/m3rciful/fishbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the minimal view of a conversation manager needed for text routing.
type FSM interface {
	// InProgress reports whether the user is in the middle of a multi-step input.
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and non-text messages.
type TextOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// TextRoutes builds handlers for free text and for media the bot does not expect.
// Text is routed to the FSM first, then to commands by name, then to the registry fallback.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && c.Sender() != nil && fsmMgr.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "fsm", start, func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	mediaHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownMedia != nil {
			return handleWithSummary(c, "unexpected_media", start, func() error {
				return opts.UnknownMedia(c)
			})
		}
		logHandlerSummary(c, "unexpected_media", start, "skip", nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: middleware.LoggerMiddleware(handler)},
		{Endpoint: tele.OnPhoto, Handler: middleware.LoggerMiddleware(mediaHandler)},
		{Endpoint: tele.OnDocument, Handler: middleware.LoggerMiddleware(mediaHandler)},
		{Endpoint: tele.OnSticker, Handler: middleware.LoggerMiddleware(mediaHandler)},
	}
}
