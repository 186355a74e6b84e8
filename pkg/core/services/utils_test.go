package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

func TestMonthRange(t *testing.T) {
	start, end, err := monthRange("2024-02", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), end)

	start, end, err = monthRange("2024-11", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-01", formatDate(start))
	assert.Equal(t, "2025-01-31", formatDate(end))

	for _, bad := range [][2]string{{"", ""}, {"2024-1", ""}, {"2024-02", "2024-01"}, {"2024-02", "March"}} {
		_, _, err := monthRange(bad[0], bad[1])
		assert.True(t, errors.Is(err, ErrInvalidRequest), "%v", bad)
	}
}

func TestOptionalMonthRange(t *testing.T) {
	from, to, err := optionalMonthRange("", "")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	from, to, err = optionalMonthRange("", "2024-04")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.Equal(t, "2024-04-30", formatDate(to))

	_, _, err = optionalMonthRange("2024-05", "2024-04")
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestWeekdayFromIndex(t *testing.T) {
	assert.Equal(t, time.Monday, weekdayFromIndex(0))
	assert.Equal(t, time.Friday, weekdayFromIndex(4))
	assert.Equal(t, time.Sunday, weekdayFromIndex(6))
	assert.Equal(t, time.Tuesday, weekdayFromIndex(8))
}

func TestToDuties(t *testing.T) {
	day := 3
	duties := toDuties([]db.Duty{{
		ID: 5, Name: "Watch", ShiftsPerDay: 1, IsWeekly: true,
		ActiveStart: "01-05", ActiveEnd: "30-09",
		ShiftConfig: []db.ShiftConfig{{
			IsOfficeHours:     true,
			DefaultEmployeeID: 2,
			WeeklyDayIndex:    &day,
			SundayStart:       "01-06",
			SundayEnd:         "31-08",
			ExcludedIDs:       []int{4},
			Handicaps:         map[int]int{1: 3},
		}},
	}})

	require.Len(t, duties, 1)
	d := duties[0]
	assert.Equal(t, scheduler.DutyID(5), d.ID)
	assert.True(t, d.Weekly)
	require.NotNil(t, d.ActiveRange)
	assert.True(t, d.ActiveRange.Contains(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, d.ActiveRange.Contains(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))

	require.Len(t, d.Shifts, 1)
	cfg := d.Shifts[0]
	require.NotNil(t, cfg.OfficeHours)
	assert.Equal(t, scheduler.EmployeeID(2), cfg.OfficeHours.Default)
	require.NotNil(t, cfg.Weekly)
	assert.Equal(t, time.Thursday, cfg.Weekly.DayIndex)
	require.NotNil(t, cfg.Weekly.SundayActiveRange)
	assert.True(t, cfg.Excluded[4])
	assert.Equal(t, 3, cfg.Handicaps[1])
}

func TestWeeklyShiftDefaultsToMonday(t *testing.T) {
	duties := toDuties([]db.Duty{{ID: 1, ShiftsPerDay: 1, IsWeekly: true, ShiftConfig: []db.ShiftConfig{{}}}})
	require.NotNil(t, duties[0].Shifts[0].Weekly)
	assert.Equal(t, time.Monday, duties[0].Shifts[0].Weekly.DayIndex)
	assert.Nil(t, duties[0].ActiveRange)
}

func TestQueueStateConversion(t *testing.T) {
	state, skipped := toQueueState([]db.QueueRow{
		{Key: "weekend:3:0", Active: []int{2, 1}, NextRound: []int{3}},
		{Key: "daily:3:1", Active: []int{1}},
		{Key: "3_0_WEEKEND"},
	})
	assert.Equal(t, []string{"3_0_WEEKEND"}, skipped)
	require.Len(t, state, 2)

	key := scheduler.QueueKey{Kind: scheduler.QueueWeekend, DutyID: 3, Shift: 0}
	assert.Equal(t, []scheduler.EmployeeID{2, 1}, state[key].Active)
	assert.Equal(t, []scheduler.EmployeeID{3}, state[key].NextRound)

	rows := fromQueueState(state)
	require.Len(t, rows, 2)
	assert.Equal(t, "daily:3:1", rows[0].Key)
	assert.Equal(t, "weekend:3:0", rows[1].Key)
	assert.Equal(t, []int{2, 1}, rows[1].Active)
}

func TestToSpecialDates(t *testing.T) {
	special, err := toSpecialDates([]db.SpecialDate{
		{Date: "2020-12-25", Recurring: true},
		{Date: "2024-04-01"},
	})
	require.NoError(t, err)

	assert.True(t, special.IsHoliday(time.Date(2031, 12, 25, 0, 0, 0, 0, time.UTC)))
	assert.True(t, special.IsHoliday(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, special.IsHoliday(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))

	_, err = toSpecialDates([]db.SpecialDate{{Date: "soon", Description: "Party"}})
	assert.Error(t, err)
}

func TestAssignmentRoundTrip(t *testing.T) {
	rows := []db.ScheduleEntry{{Date: "2024-03-02", DutyID: 4, ShiftIndex: 1, EmployeeID: 9, ManuallyLocked: true}}
	assignments, err := toAssignments(rows)
	require.NoError(t, err)
	assert.Equal(t, rows, fromAssignments(assignments))
}
