// Package cli provides the initialization shared by cmd/expensetracker and
// cmd/expensectl: logging, configuration, and assembly of the expense store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persist"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

// SetupLogger initializes structured logging at the given level and installs it as the
// default logger. Unknown levels fall back to info.
func SetupLogger(level string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Output = os.Stderr
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", applog.FieldError, err.Error())
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is the assembled expense tracker: one store and everything wired around it.
type App struct {
	Config  *config.Config
	Logger  *applog.Logger
	Store   *store.Store
	Service *services.ExpenseService
	Adapter *persist.Adapter

	backend *backend.BackendResult
	amqp    *amqp.Client
	detach  func()
}

// OpenApp opens the configured slot, loads the collection from it, and builds the store
// and service. When AMQP is configured the change publisher is attached; a broker that
// cannot be reached is logged and skipped.
func OpenApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.FromContext(ctx)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Base()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open slot backend: %w", err)
	}

	adapter := persist.New(res.Slot, cfg.SlotKey, logger.Base())
	initial := adapter.Load(ctx)
	st := store.New(initial, adapter, store.WithLogger(logger.Base()))

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   st,
		Service: services.NewExpenseService(st, services.WithLogger(logger)),
		Adapter: adapter,
		backend: res,
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).WarnContext(ctx, "Failed to initialize AMQP client, continuing without change feed",
				applog.FieldError, err.Error())
		} else {
			app.amqp = client
			app.detach = services.NewChangePublisher(client, logger).Attach(st)
			logger.WithComponent(applog.ComponentAMQP).InfoContext(ctx, "Initialized AMQP change feed",
				"exchange", cfg.AMQPExchange,
				"routing_key", cfg.AMQPRoutingKey)
		}
	}

	logger.InfoContext(ctx, "Expense store ready",
		applog.FieldBackend, res.Type.String(),
		applog.FieldSlotKey, adapter.Key(),
		applog.FieldCount, st.Len())
	return app, nil
}

// AMQPClient returns the change feed client, or nil when none is connected.
func (a *App) AMQPClient() *amqp.Client {
	return a.amqp
}

// Close detaches the change publisher and releases the broker and slot backend.
func (a *App) Close() error {
	var errs []error
	if a.detach != nil {
		a.detach()
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := a.backend.Close(); err != nil {
		errs = append(errs, fmt.Errorf("backend: %w", err))
	}
	return errors.Join(errs...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
