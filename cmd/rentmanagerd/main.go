package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	migrationdb "github.com/dhruv200010/rentmanager/db"
	"github.com/dhruv200010/rentmanager/internal/accounts"
	"github.com/dhruv200010/rentmanager/internal/alerts"
	"github.com/dhruv200010/rentmanager/internal/boot"
	"github.com/dhruv200010/rentmanager/internal/config"
	"github.com/dhruv200010/rentmanager/internal/db"
	"github.com/dhruv200010/rentmanager/internal/events"
	"github.com/dhruv200010/rentmanager/internal/handlers"
	"github.com/dhruv200010/rentmanager/internal/leads"
	"github.com/dhruv200010/rentmanager/internal/logger"
	"github.com/dhruv200010/rentmanager/internal/properties"
	"github.com/dhruv200010/rentmanager/internal/server"
	"github.com/dhruv200010/rentmanager/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	fx.New(
		fx.Provide(
			provideConfig,
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideDBConn,
			provideReminderEngine,
			provideAlertService,
			events.NewHub,
			func(hub *events.Hub) events.Publisher { return hub },
			func(hub *events.Hub) events.Subscriber { return hub },

			accounts.NewService,
			properties.NewService,
			fx.Annotate(leads.NewPgRepository, fx.As(new(leads.Repository))),
			leads.NewService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(handlers.NewLeadsHandler),
			provideServerHandler(handlers.NewPropertiesHandler),
			provideServerHandler(handlers.NewAlertsHandler),

			provideServer,
		),
		fx.Invoke(
			wireDelivery,
			startReminderEngine,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideReminderEngine(log *slog.Logger) *alerts.LocalEngine {
	return alerts.NewLocalEngine(log)
}

func provideAlertService(log *slog.Logger, engine *alerts.LocalEngine) *alerts.Service {
	return alerts.NewService(log, engine)
}

func provideAuthHandler(log *slog.Logger, accountService *accounts.Service, runtimeConfig *boot.RuntimeConfig) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, accountService, runtimeConfig.JwtSecret, runtimeConfig.JwtExpiresIn)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.Config.Auth.JWTSecret, params.ServerHandlers...)
}

// wireDelivery connects the engine to the alert service and the alert service
// to the lead service, so a fired timer marks its lead triggered and reaches
// the owner's live streams.
func wireDelivery(engine *alerts.LocalEngine, alertService *alerts.Service, leadService *leads.Service) {
	engine.SetDeliveryFunc(alertService.Deliver)
	alertService.OnDelivery(leadService.HandleAlertFired)
}

func startReminderEngine(lc fx.Lifecycle, engine *alerts.LocalEngine, leadService *leads.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := engine.Start(); err != nil {
				return err
			}
			return leadService.Bootstrap(ctx)
		},
		OnStop: func(ctx context.Context) error {
			engine.Stop()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
	cfg config.Config,
	accountService *accounts.Service,
) {
	fmt.Printf("Starting Rent Manager %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := accountService.EnsureAdmin(ctx, cfg.Admin); err != nil {
				return err
			}

			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown() // shutdown the application if the server fails to start
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			// graceful shutdown
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func runMigrate(args []string) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}
	migrations, err := fs.Sub(migrationdb.MigrationsFS, "migrations")
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrations fs: %v\n", err)
		os.Exit(1)
	}
	if err := db.RunMigrate(logger.L, cfg.Postgres, migrations, command, args); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}
