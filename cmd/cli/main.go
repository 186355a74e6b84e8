package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/cmd/cli/commands"
	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
	"github.com/jakechorley/duty-scheduler/pkg/db"
	"github.com/jakechorley/duty-scheduler/pkg/metrics"
	"github.com/jakechorley/duty-scheduler/pkg/postgres"
	"github.com/jakechorley/duty-scheduler/pkg/sqlite"
	"github.com/jakechorley/duty-scheduler/pkg/utils/logging"
)

func main() {
	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:           "cli",
		Short:         "Duty scheduler CLI - generate and balance duty rosters",
		Long:          `A CLI tool for generating fair duty schedules, reporting balance and publishing rotas.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Database != nil {
				app.Database.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.Env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.GenerateCmd(app))
	rootCmd.AddCommand(commands.BalanceCmd(app))
	rootCmd.AddCommand(commands.SetPreferenceCmd(app))
	rootCmd.AddCommand(commands.AddSpecialDateCmd(app))
	rootCmd.AddCommand(commands.ListSpecialDatesCmd(app))
	rootCmd.AddCommand(commands.PublishCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and metrics
func initApp(app *commands.AppContext) error {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(app.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", app.Env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(app.Env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Logger.Info("Connecting to database", zap.String("driver", app.Cfg.Database.Driver))
	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database)
	if err != nil {
		return err
	}
	app.Logger.Debug("Database connected successfully")

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewPrometheus(app.Registry, "")

	env, logger := app.Env, app.Logger
	app.NewPublisher = func(ctx context.Context) (services.SchedulePublisher, error) {
		oauthCfg, err := config.LoadOAuthClientWithEnv(env)
		if err != nil {
			return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
		}
		logger.Info("Initializing sheets client")
		client, err := sheetsclient.NewClient(ctx, oauthCfg, env, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (db.Database, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.NewDB(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return pg, nil
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
