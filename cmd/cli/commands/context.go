package commands

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
	"github.com/jakechorley/duty-scheduler/pkg/db"
	"github.com/jakechorley/duty-scheduler/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Env      string
	Cfg      *config.Config
	Database db.Database
	Metrics  metrics.Recorder
	// Registry gathers Metrics for the /metrics endpoint. Nil disables it.
	Registry *prometheus.Registry
	Logger   *zap.Logger
	Ctx      context.Context
	// NewPublisher connects to Google Sheets. It runs the OAuth flow, so
	// commands only call it when they publish.
	NewPublisher func(ctx context.Context) (services.SchedulePublisher, error)
}

// Migrator is implemented by stores with versioned migrations
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}
