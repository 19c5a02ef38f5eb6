package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/fishbot/core/logger"
	tg "github.com/m3rciful/fishbot/core/telegram"
	"github.com/m3rciful/fishbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares one route per registered command, wrapped with logging and admin checks.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		name, inner := name, def.Handler
		h := func(c tele.Context) error {
			return handleWithSummary(c, normalizeHandlerName(name), time.Now(), func() error { return inner(c) })
		}
		if def.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.LoggerMiddleware(h),
		})
	}

	logger.Info(context.Background(), "tg.wire", "routes.commands",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)

	return routes
}
