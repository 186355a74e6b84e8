package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// PublishStore defines the database operations needed to publish a schedule
type PublishStore interface {
	ListEmployees(ctx context.Context) ([]db.Employee, error)
	ListDuties(ctx context.Context) ([]db.Duty, error)
	ListScheduleEntries(ctx context.Context, from, to string) ([]db.ScheduleEntry, error)
	ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error)
}

// SchedulePublisher writes a built schedule somewhere people can read it
type SchedulePublisher interface {
	PublishSchedule(spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error
}

type column struct {
	duty  int
	shift int
}

// PublishSchedule builds the date by duty-shift grid for the requested months
// and hands it to publisher. A nil publisher only builds the grid.
func PublishSchedule(
	ctx context.Context,
	store PublishStore,
	publisher SchedulePublisher,
	cfg *config.Config,
	logger *zap.Logger,
	startMonth, endMonth string,
) (*sheetsclient.PublishedSchedule, error) {
	start, end, err := monthRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	if publisher != nil && cfg.RotaSheetID == "" {
		return nil, fmt.Errorf("%w: rotaSheetID is not configured", ErrInvalidRequest)
	}

	logger.Debug("Building schedule for publishing", zap.String("start", formatDate(start)), zap.String("end", formatDate(end)))

	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	names := make(map[int]string, len(employees))
	for _, e := range employees {
		names[e.ID] = fullName(e)
	}

	duties, err := store.ListDuties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch duties: %w", err)
	}

	entries, err := store.ListScheduleEntries(ctx, formatDate(start), formatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule entries: %w", err)
	}

	holidays, err := holidayNames(ctx, store, cfg, start, end)
	if err != nil {
		return nil, err
	}

	used := make(map[int]bool)
	for _, e := range entries {
		used[e.DutyID] = true
	}

	// special duties only get columns when something was placed on them
	slices.SortFunc(duties, func(a, b db.Duty) int { return a.ID - b.ID })
	var cols []column
	var headers []string
	for _, d := range duties {
		if d.IsSpecial && !used[d.ID] {
			continue
		}
		shifts := max(d.ShiftsPerDay, 1)
		for i := 0; i < shifts; i++ {
			cols = append(cols, column{duty: d.ID, shift: i})
			if shifts == 1 {
				headers = append(headers, d.Name)
			} else {
				headers = append(headers, fmt.Sprintf("%s %d", d.Name, i+1))
			}
		}
	}

	colIndex := make(map[column]int, len(cols))
	for i, c := range cols {
		colIndex[c] = i
	}

	byDate := make(map[string][]string)
	for _, e := range entries {
		idx, ok := colIndex[column{duty: e.DutyID, shift: e.ShiftIndex}]
		if !ok {
			logger.Warn("Schedule entry for unknown duty shift",
				zap.String("date", e.Date), zap.Int("duty_id", e.DutyID), zap.Int("shift", e.ShiftIndex))
			continue
		}
		cells, ok := byDate[e.Date]
		if !ok {
			cells = make([]string, len(cols))
			byDate[e.Date] = cells
		}
		name, ok := names[e.EmployeeID]
		if !ok {
			name = fmt.Sprintf("#%d", e.EmployeeID)
		}
		cells[idx] = name
	}

	published := &sheetsclient.PublishedSchedule{Start: start, End: end, Columns: headers}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := formatDate(d)
		cells := byDate[key]
		if cells == nil {
			cells = make([]string, len(cols))
		}
		published.Rows = append(published.Rows, sheetsclient.PublishedScheduleRow{
			Date:    d,
			Holiday: holidays[key],
			Cells:   cells,
		})
	}

	if publisher == nil {
		return published, nil
	}

	if err := publisher.PublishSchedule(cfg.RotaSheetID, published); err != nil {
		return nil, fmt.Errorf("failed to publish schedule: %w", err)
	}

	logger.Info("Schedule published",
		zap.String("tab", published.TabTitle()),
		zap.Int("days", len(published.Rows)),
		zap.Int("columns", len(headers)))
	return published, nil
}

// holidayNames maps each holiday date in [start, end] to its description
func holidayNames(ctx context.Context, store PublishStore, cfg *config.Config, start, end time.Time) (map[string]string, error) {
	rows, err := store.ListSpecialDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch special dates: %w", err)
	}

	out := make(map[string]string)
	for _, s := range rows {
		date, err := time.Parse(db.DateLayout, s.Date)
		if err != nil {
			return nil, fmt.Errorf("special date %q: %w", s.Description, err)
		}
		if !s.Recurring {
			out[s.Date] = s.Description
			continue
		}
		for y := start.Year(); y <= end.Year(); y++ {
			d := time.Date(y, date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
			if d.Month() == date.Month() {
				out[formatDate(d)] = s.Description
			}
		}
	}

	configured, err := cfg.HolidaysBetween(start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recurring holidays: %w", err)
	}
	for _, h := range configured {
		key := formatDate(h.Date)
		if _, ok := out[key]; !ok {
			out[key] = h.Description
		}
	}
	return out, nil
}
