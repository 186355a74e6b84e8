package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/db"
	"github.com/jakechorley/duty-scheduler/pkg/metrics"
)

// GenerateRequest describes a scheduling run over whole months
type GenerateRequest struct {
	StartMonth string // YYYY-MM
	EndMonth   string // YYYY-MM, empty for a single month
	// Seed fixes the random tie-breaks. Nil picks one from the clock.
	Seed   *uint64
	DryRun bool
}

// GenerateResult is the outcome of a scheduling run
type GenerateResult struct {
	RunID       string
	Start       string
	End         string
	Seed        uint64
	Saved       bool
	Assignments []db.ScheduleEntry
	Log         []scheduler.LogEntry
	Stats       scheduler.Stats
}

// GenerateSchedule builds and balances the schedule for the requested months.
// Stored entries in the range are replaced unless they are manually locked, and
// the rotation queues are saved alongside, unless the request is a dry run.
func GenerateSchedule(
	ctx context.Context,
	store db.ScheduleStore,
	cfg *config.Config,
	rec metrics.Recorder,
	logger *zap.Logger,
	req GenerateRequest,
) (*GenerateResult, error) {
	began := time.Now()
	if rec == nil {
		rec = metrics.NewNop()
	}

	result, err := generateSchedule(ctx, store, cfg, rec, logger, req)
	if err != nil {
		rec.RecordRun(metrics.OutcomeFailed, time.Since(began).Seconds())
		return nil, err
	}

	outcome := metrics.OutcomeSaved
	if !result.Saved {
		outcome = metrics.OutcomeDryRun
	}
	rec.RecordRun(outcome, time.Since(began).Seconds())
	return result, nil
}

func generateSchedule(
	ctx context.Context,
	store db.ScheduleStore,
	cfg *config.Config,
	rec metrics.Recorder,
	logger *zap.Logger,
	req GenerateRequest,
) (*GenerateResult, error) {
	start, end, err := monthRange(req.StartMonth, req.EndMonth)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &config.Config{}
	}

	opts := schedulerOptions(cfg.Scheduler)
	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}
	opts.Rand = rand.New(rand.NewPCG(seed, seed))
	opts.Logger = logger

	logger.Info("Generating schedule",
		zap.String("start", formatDate(start)),
		zap.String("end", formatDate(end)),
		zap.Uint64("seed", seed),
		zap.Bool("dry_run", req.DryRun))

	in, err := loadInput(ctx, store, cfg, opts, logger, start, end)
	if err != nil {
		return nil, err
	}

	res, err := scheduler.Run(*in, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to run scheduler: %w", err)
	}

	rec.RecordAssignments(res.Stats.Assigned, res.Stats.Unfilled)
	for pass, n := range res.Stats.Swaps {
		rec.RecordSwaps(pass, n)
	}
	for _, pass := range res.Stats.Stagnations {
		rec.RecordStagnation(pass)
	}

	out := &GenerateResult{
		RunID:       uuid.New().String(),
		Start:       formatDate(start),
		End:         formatDate(end),
		Seed:        seed,
		Assignments: fromAssignments(res.Assignments),
		Log:         res.Log,
		Stats:       res.Stats,
	}

	logger.Info("Schedule generated",
		zap.String("run_id", out.RunID),
		zap.Int("assignments", len(out.Assignments)),
		zap.Int("assigned", res.Stats.Assigned),
		zap.Int("unfilled", res.Stats.Unfilled),
		zap.Strings("stagnations", res.Stats.Stagnations))

	if req.DryRun {
		logger.Info("Dry run, schedule not saved")
		return out, nil
	}

	run := db.ScheduleRun{
		ID:        out.RunID,
		Start:     out.Start,
		End:       out.End,
		Seed:      strconv.FormatUint(seed, 10),
		Assigned:  res.Stats.Assigned,
		Unfilled:  res.Stats.Unfilled,
		Log:       fromLog(res.Log),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.SaveSchedule(ctx, run, out.Assignments, fromQueueState(res.Queues)); err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}
	out.Saved = true

	logger.Debug("Schedule saved", zap.String("run_id", out.RunID))
	return out, nil
}

// loadInput reads everything a run needs. History reaches back far enough for
// both the general lookback and the weekend window.
func loadInput(
	ctx context.Context,
	store db.ScheduleStore,
	cfg *config.Config,
	opts scheduler.Options,
	logger *zap.Logger,
	start, end time.Time,
) (*scheduler.Input, error) {
	historyFrom := historyStart(start, end, opts)
	// entries just after the range still block back-to-back shifts
	historyTo := end.AddDate(0, 0, 7)

	employeeRows, err := store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	dutyRows, err := store.ListDuties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch duties: %w", err)
	}
	logger.Debug("Loaded roster", zap.Int("employees", len(employeeRows)), zap.Int("duties", len(dutyRows)))

	entryRows, err := store.ListScheduleEntries(ctx, formatDate(historyFrom), formatDate(historyTo))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule entries: %w", err)
	}
	existing, err := toAssignments(entryRows)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded history",
		zap.String("from", formatDate(historyFrom)),
		zap.String("to", formatDate(historyTo)),
		zap.Int("entries", len(existing)))

	unavailableRows, err := store.ListUnavailability(ctx, formatDate(start), formatDate(historyTo))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unavailability: %w", err)
	}
	unavailable, err := toUnavailability(unavailableRows)
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
	holidays, err := cfg.HolidaysBetween(historyFrom, historyTo)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recurring holidays: %w", err)
	}
	for _, h := range holidays {
		special.AddExact(h.Date)
	}
	logger.Debug("Loaded special dates", zap.Int("stored", len(specialRows)), zap.Int("from_config", len(holidays)))

	prefs, err := store.ListDoubleDutyPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch double duty preferences: %w", err)
	}

	queueRows, err := store.GetQueueState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch queue state: %w", err)
	}
	queues, skipped := toQueueState(queueRows)
	for _, key := range skipped {
		logger.Warn("Ignoring stored queue with unreadable key", zap.String("queue_key", key))
	}

	return &scheduler.Input{
		Start:          start,
		End:            end,
		Employees:      toEmployees(employeeRows),
		Duties:         toDuties(dutyRows),
		Existing:       existing,
		Unavailability: unavailable,
		SpecialDates:   special,
		DoubleDuty:     toDoubleDuty(prefs),
		Queues:         queues,
	}, nil
}

// historyStart is the earlier of the general lookback start and the weekend window start
func historyStart(start, end time.Time, opts scheduler.Options) time.Time {
	lookback := time.Date(start.Year(), start.Month()-time.Month(opts.LookbackMonths), 1, 0, 0, 0, 0, time.UTC)
	weekend := time.Date(end.Year(), end.Month()-time.Month(opts.WeekendWindowMonths), 1, 0, 0, 0, 0, time.UTC)
	if weekend.Before(lookback) {
		return weekend
	}
	return lookback
}

// schedulerOptions overlays configured tolerances on the defaults
func schedulerOptions(sc config.SchedulerConfig) scheduler.Options {
	opts := scheduler.DefaultOptions()
	set := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	set(&opts.GeneralTolerance, sc.GeneralTolerance)
	set(&opts.HolidayTolerance, sc.HolidayTolerance)
	set(&opts.WeekendTolerance, sc.WeekendTolerance)
	set(&opts.MaxBalanceIterations, sc.MaxBalanceIterations)
	set(&opts.MaxPoolIterations, sc.MaxPoolIterations)
	set(&opts.StagnationLimit, sc.StagnationLimit)
	set(&opts.LookbackMonths, sc.LookbackMonths)
	set(&opts.WeekendWindowMonths, sc.WeekendWindowMonths)
	return opts
}
