package middleware

import (
	"log/slog"

	"github.com/m3rciful/fishbot/core/logger"
	tghelpers "github.com/m3rciful/fishbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether the update sender is the configured admin.
// With no admin configured nobody is treated as admin.
func IsAdmin(c tele.Context, adminID int64) bool {
	if adminID == 0 || c == nil || c.Sender() == nil {
		return false
	}
	return c.Sender().ID == adminID
}

// AdminOnlyMiddleware ensures that only the admin user can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if IsAdmin(c, opts.AdminID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied",
				slog.String("status", "rejected"),
				slog.String("reason", "admin_only"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
