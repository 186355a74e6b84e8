package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// BalanceStore defines the database operations needed for a balance report
type BalanceStore interface {
	ListEmployees(ctx context.Context) ([]db.Employee, error)
	ListDuties(ctx context.Context) ([]db.Duty, error)
	ListScheduleEntries(ctx context.Context, from, to string) ([]db.ScheduleEntry, error)
	ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error)
}

// BalanceReportResult holds per-employee totals over a window
type BalanceReportResult struct {
	From string                      `json:"from,omitempty"`
	To   string                      `json:"to,omitempty"`
	Rows []scheduler.EmployeeBalance `json:"rows"`
}

// BalanceReport tallies stored assignments per employee between startMonth and
// endMonth ("YYYY-MM", either may be empty for an open bound)
func BalanceReport(
	ctx context.Context,
	store BalanceStore,
	cfg *config.Config,
	logger *zap.Logger,
	startMonth, endMonth string,
) (*BalanceReportResult, error) {
	from, to, err := optionalMonthRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}

	logger.Debug("Building balance report", zap.String("from", formatDate(from)), zap.String("to", formatDate(to)))

	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	duties, err := store.ListDuties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch duties: %w", err)
	}

	entryRows, err := store.ListScheduleEntries(ctx, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule entries: %w", err)
	}
	entries, err := toAssignments(entryRows)
	if err != nil {
		return nil, err
	}

	specialRows, err := store.ListSpecialDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch special dates: %w", err)
	}
	special, err := toSpecialDates(specialRows)
	if err != nil {
		return nil, err
	}

	if cfg != nil && len(entries) > 0 {
		first, last := entries[0].Date, entries[0].Date
		for _, e := range entries[1:] {
			if e.Date.Before(first) {
				first = e.Date
			}
			if e.Date.After(last) {
				last = e.Date
			}
		}
		holidays, err := cfg.HolidaysBetween(first, last)
		if err != nil {
			return nil, fmt.Errorf("failed to expand recurring holidays: %w", err)
		}
		for _, h := range holidays {
			special.AddExact(h.Date)
		}
	}

	rows := scheduler.Report(toEmployees(employees), toDuties(duties), entries, special, from, to)

	logger.Info("Balance report built",
		zap.Int("employees", len(rows)),
		zap.Int("entries", len(entries)))

	return &BalanceReportResult{From: formatDate(from), To: formatDate(to), Rows: rows}, nil
}
