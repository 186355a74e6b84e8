package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// SpecialDateStore defines the database operations needed to manage holidays
type SpecialDateStore interface {
	ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error)
	InsertSpecialDate(ctx context.Context, date db.SpecialDate) error
}

// AddSpecialDate stores a holiday. A recurring holiday repeats every year on the
// same day and month. Adding a date that already exists replaces its description.
func AddSpecialDate(ctx context.Context, store SpecialDateStore, logger *zap.Logger, date, description string, recurring bool) (*db.SpecialDate, error) {
	d, err := scheduler.ParseDate(strings.TrimSpace(date))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	special := db.SpecialDate{
		Date:        d.Format(db.DateLayout),
		Description: strings.TrimSpace(description),
		Recurring:   recurring,
	}
	if err := store.InsertSpecialDate(ctx, special); err != nil {
		return nil, fmt.Errorf("failed to insert special date: %w", err)
	}

	logger.Info("Special date added",
		zap.String("date", special.Date),
		zap.String("description", special.Description),
		zap.Bool("recurring", recurring))
	return &special, nil
}

// ListSpecialDates returns every stored holiday ordered by date
func ListSpecialDates(ctx context.Context, store SpecialDateStore, logger *zap.Logger) ([]db.SpecialDate, error) {
	dates, err := store.ListSpecialDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch special dates: %w", err)
	}

	logger.Debug("Fetched special dates", zap.Int("count", len(dates)))
	return dates, nil
}
