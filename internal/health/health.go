// Package health serves the liveness endpoint of the bot.
package health

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/m3rciful/fishbot/core/logger"
)

const checkTimeout = 2 * time.Second

// Options configures the health server.
type Options struct {
	Listen  string
	Version string
	// Sessions reports the number of stored conversation sessions. Optional.
	Sessions func(ctx context.Context) (int, error)
	// Ping checks the session database. Optional.
	Ping func(ctx context.Context) error
}

// Server exposes GET /healthz.
type Server struct {
	opts Options
	app  *fiber.App
}

// New builds the fiber app without starting it.
func New(opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "fishbot",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())

	s := &Server{opts: opts, app: app}
	app.Get("/healthz", s.handleHealth)
	return s
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	status, code := "ok", fiber.StatusOK
	resp := fiber.Map{"version": s.opts.Version}

	if s.opts.Ping != nil {
		if err := s.opts.Ping(ctx); err != nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
			resp["database"] = err.Error()
		} else {
			resp["database"] = "ok"
		}
	}
	if s.opts.Sessions != nil {
		if n, err := s.opts.Sessions(ctx); err == nil {
			resp["sessions"] = n
		} else {
			status, code = "degraded", fiber.StatusServiceUnavailable
			resp["sessions_error"] = err.Error()
		}
	}
	resp["status"] = status
	return c.Status(code).JSON(resp)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start listens in the background. A failing listener is logged, never fatal.
func (s *Server) Start() {
	go func() {
		logger.Info(logger.Background(), "http", "listen", slog.String("addr", s.opts.Listen))
		if err := s.app.Listen(s.opts.Listen); err != nil {
			logger.Error(logger.Background(), "http", "listen.fail",
				slog.String("addr", s.opts.Listen),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown stops the listener and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
