package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
)

func main() {
	ctx, stop := cli.GracefulShutdown(context.Background())
	defer stop()

	r := &runner{open: openFromEnv}
	err := newRootCmd(r).ExecuteContext(ctx)
	if cerr := r.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// runner opens the expense store on first use so that help and usage output never
// touch the configured backend.
type runner struct {
	open     func(ctx context.Context, logLevel string) (*cli.App, error)
	logLevel string
	app      *cli.App
}

func (r *runner) App(ctx context.Context) (*cli.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	app, err := r.open(ctx, r.logLevel)
	if err != nil {
		return nil, err
	}
	r.app = app
	return app, nil
}

func (r *runner) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// openFromEnv assembles the app from .env, the environment and the optional config file.
func openFromEnv(ctx context.Context, logLevel string) (*cli.App, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := cli.SetupLogger(logLevel).WithComponent(applog.ComponentCLI)
	return cli.OpenApp(ctx, cfg, logger)
}

func newRootCmd(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "expensectl",
		Short: "Record and review personal expenses",
		Long: `expensectl manages the same expense collection as the expensetracker server.
The storage backend, slot key and currency are read from the environment
(SLOT_BACKEND, SLOT_KEY, DATA_DIR, SQLITE_DB_PATH, CURRENCY) or from the file
named by EXPENSES_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&r.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newAddCmd(r),
		newListCmd(r),
		newRemoveCmd(r),
		newSummaryCmd(r),
		newCategoriesCmd(r),
		newWatchCmd(r),
	)
	return root
}
