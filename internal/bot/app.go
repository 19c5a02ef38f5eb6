// Package bot wires the shop services, the conversation machine and the Telegram core together.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/fishbot/core/bootstrap"
	"github.com/m3rciful/fishbot/core/buildinfo"
	corecmd "github.com/m3rciful/fishbot/core/cmd"
	coredatabase "github.com/m3rciful/fishbot/core/database"
	"github.com/m3rciful/fishbot/core/logger"
	tg "github.com/m3rciful/fishbot/core/telegram"
	"github.com/m3rciful/fishbot/core/telegram/router"
	"github.com/m3rciful/fishbot/core/telegram/state"
	"github.com/m3rciful/fishbot/internal/cart"
	"github.com/m3rciful/fishbot/internal/catalog"
	"github.com/m3rciful/fishbot/internal/clients"
	"github.com/m3rciful/fishbot/internal/conversation"
	"github.com/m3rciful/fishbot/internal/health"
	"github.com/m3rciful/fishbot/internal/orders"
	"github.com/m3rciful/fishbot/internal/strapi"
)

const shutdownTimeout = 5 * time.Second

// App holds every long-lived component of the bot.
type App struct {
	cfg *Config
	db  *sqlx.DB

	cms       *strapi.Client
	store     state.Store[conversation.Session]
	publisher orders.Publisher
	machine   *conversation.Machine
	registry  *tg.Registry
	health    *health.Server
	media     mediaOpener
}

// Bootstrap adapts NewApp to the runner signature.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	return NewApp(cfg)
}

// NewApp initializes logging, storage and services and registers the bot handlers.
func NewApp(cfg *Config) (*App, error) {
	var dbCfg *coredatabase.Config
	if cfg.UsesDatabase() {
		dbCfg = &cfg.Database
	}
	infra, err := bootstrap.Run(bootstrap.Options{Config: &cfg.Config, Database: dbCfg})
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, db: infra.DB, registry: tg.NewRegistry()}
	if err := a.init(); err != nil {
		a.close(logger.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	ctx := logger.Background()
	cms, err := strapi.New(a.cfg.CMS.BaseURL,
		strapi.WithAPIToken(a.cfg.CMS.APIToken),
		strapi.WithTimeout(a.cfg.CMS.Timeout()),
		strapi.WithUserAgent("fishbot/"+buildinfo.String()),
	)
	if err != nil {
		return err
	}
	a.cms, a.media = cms, cms

	a.store, err = state.Open[conversation.Session](state.Options{
		Backend:  a.cfg.Sessions.Backend,
		BoltPath: a.cfg.Sessions.BoltPath,
		DB:       a.db,
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "sessions", "store.open", slog.String("backend", a.cfg.Sessions.Backend))

	a.publisher = openPublisher(a.cfg.Orders)

	a.machine = conversation.New(conversation.Deps{
		Catalog: catalog.NewService(cms),
		Carts:   cart.NewService(cms),
		Clients: clients.NewRegistry(cms),
		Orders:  a.publisher,
		Store:   a.store,
	})

	if a.cfg.Health.Listen != "" {
		a.health = health.New(health.Options{
			Listen:   a.cfg.Health.Listen,
			Version:  buildinfo.String(),
			Sessions: a.sessionCount,
			Ping:     a.ping(),
		})
	}

	logger.Info(ctx, "app", "cms.configured",
		slog.String("base_url", cms.BaseURL()),
		slog.Bool("token", a.cfg.CMS.APIToken != ""),
	)
	return a.register()
}

// openPublisher dials the broker when configured. A broker that is down at startup
// disables publishing instead of stopping the bot.
func openPublisher(cfg OrdersConfig) orders.Publisher {
	if cfg.AMQPURL == "" {
		return orders.Noop{}
	}
	p, err := orders.DialAMQP(cfg.AMQPURL, cfg.Queue)
	if err != nil {
		logger.Error(logger.Background(), "orders", "broker.unavailable",
			slog.String("err", err.Error()),
		)
		return orders.Noop{}
	}
	return p
}

func (a *App) sessionCount(ctx context.Context) (int, error) {
	counts, err := a.machine.CountByState(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (a *App) ping() func(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks for the core runner.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: a.onUnknownInput,
	})
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(machineFSM{a}, a.registry, router.TextOptions{
		UnknownMedia: a.onUnknownInput,
	})...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, onRateLimited),
		Routes:      routes,
		OnStart: func(context.Context, tg.Runtime) error {
			if a.health != nil {
				a.health.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.close(ctx)
		},
	}, nil
}

// close releases resources in reverse order of creation.
func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.health != nil {
		sctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		errs = append(errs, a.health.Shutdown(sctx))
		cancel()
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		logger.Warn(ctx, "app", "close.fail", slog.String("err", err.Error()))
	}
	return err
}
