package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-scheduler/internal/config"
	"github.com/jakechorley/duty-scheduler/pkg/db"
	"github.com/jakechorley/duty-scheduler/pkg/metrics"
)

func seed(v uint64) *uint64 { return &v }

func patrolStore() *mockStore {
	return &mockStore{
		employees: threeEmployees(),
		duties:    []db.Duty{{ID: 10, Name: "Patrol", ShiftsPerDay: 1}},
		prefs:     map[int]bool{},
	}
}

func TestGenerateSchedule_DryRun(t *testing.T) {
	ctx := context.Background()
	store := patrolStore()
	rec := &mockRecorder{}

	result, err := GenerateSchedule(ctx, store, &config.Config{}, rec, zap.NewNop(), GenerateRequest{
		StartMonth: "2024-02",
		Seed:       seed(42),
		DryRun:     true,
	})
	require.NoError(t, err)

	assert.False(t, result.Saved)
	assert.Nil(t, store.savedRun)
	assert.Equal(t, "2024-02-01", result.Start)
	assert.Equal(t, "2024-02-29", result.End)
	assert.Equal(t, uint64(42), result.Seed)
	assert.Len(t, result.Assignments, 29)
	assert.Equal(t, 29, result.Stats.Assigned+result.Stats.Unfilled)

	for i := 1; i < len(result.Assignments); i++ {
		assert.NotEqual(t, result.Assignments[i-1].EmployeeID, result.Assignments[i].EmployeeID,
			"back-to-back shifts on %s", result.Assignments[i].Date)
	}

	assert.Equal(t, []string{metrics.OutcomeDryRun}, rec.outcomes)
	assert.Equal(t, result.Stats.Assigned, rec.assigned)

	// history is read from the weekend window start to a week past the end
	assert.Equal(t, "2023-09-01", store.entriesFrom)
	assert.Equal(t, "2024-03-07", store.entriesTo)
}

func TestGenerateSchedule_SameSeedSameSchedule(t *testing.T) {
	ctx := context.Background()
	req := GenerateRequest{StartMonth: "2024-03", Seed: seed(7), DryRun: true}

	first, err := GenerateSchedule(ctx, patrolStore(), nil, nil, zap.NewNop(), req)
	require.NoError(t, err)
	second, err := GenerateSchedule(ctx, patrolStore(), nil, nil, zap.NewNop(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestGenerateSchedule_Saves(t *testing.T) {
	ctx := context.Background()
	store := patrolStore()
	store.queues = []db.QueueRow{
		{Key: "daily:10:0", Active: []int{3, 1, 2}},
		{Key: "bogus", Active: []int{1}},
	}
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg, "test")

	result, err := GenerateSchedule(ctx, store, &config.Config{}, rec, zap.NewNop(), GenerateRequest{
		StartMonth: "2024-02",
		Seed:       seed(1),
	})
	require.NoError(t, err)

	assert.True(t, result.Saved)
	require.NotNil(t, store.savedRun)
	assert.Equal(t, result.RunID, store.savedRun.ID)
	assert.Equal(t, "1", store.savedRun.Seed)
	assert.Equal(t, "2024-02-01", store.savedRun.Start)
	assert.Equal(t, "2024-02-29", store.savedRun.End)
	assert.NotEmpty(t, store.savedRun.Log)
	_, err = time.Parse(time.RFC3339, store.savedRun.CreatedAt)
	assert.NoError(t, err)

	assert.Equal(t, result.Assignments, store.savedEntries)
	require.NotEmpty(t, store.savedQueues)
	for i := 1; i < len(store.savedQueues); i++ {
		assert.Less(t, store.savedQueues[i-1].Key, store.savedQueues[i].Key)
	}

	count, err := testutil.GatherAndCount(reg, "test_run_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGenerateSchedule_LockedEntriesKept(t *testing.T) {
	ctx := context.Background()
	store := patrolStore()
	store.entries = []db.ScheduleEntry{
		{Date: "2024-02-10", DutyID: 10, EmployeeID: 2, ManuallyLocked: true},
	}

	result, err := GenerateSchedule(ctx, store, nil, nil, zap.NewNop(), GenerateRequest{
		StartMonth: "2024-02",
		Seed:       seed(3),
		DryRun:     true,
	})
	require.NoError(t, err)

	var found bool
	for _, a := range result.Assignments {
		if a.Date == "2024-02-10" {
			found = true
			assert.Equal(t, 2, a.EmployeeID)
			assert.True(t, a.ManuallyLocked)
		}
		if a.Date == "2024-02-09" || a.Date == "2024-02-11" {
			assert.NotEqual(t, 2, a.EmployeeID)
		}
	}
	assert.True(t, found)
}

func TestGenerateSchedule_InvalidMonth(t *testing.T) {
	rec := &mockRecorder{}
	_, err := GenerateSchedule(context.Background(), patrolStore(), nil, rec, zap.NewNop(), GenerateRequest{StartMonth: "Feb 2024"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, []string{metrics.OutcomeFailed}, rec.outcomes)

	_, err = GenerateSchedule(context.Background(), patrolStore(), nil, nil, zap.NewNop(), GenerateRequest{StartMonth: "2024-05", EndMonth: "2024-04"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestGenerateSchedule_StoreErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		mutate  func(*mockStore)
		wantErr string
	}{
		{"employees", func(m *mockStore) { m.employeesErr = boom }, "failed to fetch employees"},
		{"duties", func(m *mockStore) { m.dutiesErr = boom }, "failed to fetch duties"},
		{"entries", func(m *mockStore) { m.entriesErr = boom }, "failed to fetch schedule entries"},
		{"special dates", func(m *mockStore) { m.specialErr = boom }, "failed to fetch special dates"},
		{"queues", func(m *mockStore) { m.queuesErr = boom }, "failed to fetch queue state"},
		{"save", func(m *mockStore) { m.saveErr = boom }, "failed to save schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := patrolStore()
			tt.mutate(store)

			_, err := GenerateSchedule(context.Background(), store, nil, nil, zap.NewNop(), GenerateRequest{StartMonth: "2024-02", Seed: seed(1)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, boom))
		})
	}
}

func TestHistoryStart(t *testing.T) {
	opts := schedulerOptions(config.SchedulerConfig{LookbackMonths: 1, WeekendWindowMonths: 6})
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	// weekend window reaches back further than the lookback
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), historyStart(start, end, opts))

	opts = schedulerOptions(config.SchedulerConfig{LookbackMonths: 4, WeekendWindowMonths: 1})
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), historyStart(start, end, opts))
}

func TestSchedulerOptions(t *testing.T) {
	opts := schedulerOptions(config.SchedulerConfig{GeneralTolerance: 3, StagnationLimit: 9})
	assert.Equal(t, 3, opts.GeneralTolerance)
	assert.Equal(t, 9, opts.StagnationLimit)

	defaults := schedulerOptions(config.SchedulerConfig{})
	assert.Equal(t, 1, defaults.GeneralTolerance)
	assert.Equal(t, 2, defaults.WeekendTolerance)
	assert.Equal(t, 2, defaults.LookbackMonths)
}
