package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport(t *testing.T) {
	duties := []Duty{
		{ID: 1, Name: "Patrol", ShiftsPerDay: 1, Shifts: []ShiftConfig{{Handicaps: map[EmployeeID]int{1: 2}}}},
		{ID: 2, Name: "Watch", ShiftsPerDay: 1, Weekly: true},
		{ID: 3, Name: "Archive", ShiftsPerDay: 1, OffBalance: true},
		{ID: 4, Name: "Parade", ShiftsPerDay: 1, Special: true},
	}
	employees := []Employee{{ID: 2, Name: "Bea", Rank: 2}, {ID: 1, Name: "Al", Rank: 1}}

	entries := []Assignment{
		{Date: Day(2024, 1, 1), DutyID: 1, EmployeeID: 1},
		{Date: Day(2024, 1, 6), DutyID: 1, EmployeeID: 1},
		{Date: Day(2024, 1, 2), DutyID: 3, EmployeeID: 2},
		{Date: Day(2024, 1, 3), DutyID: 4, EmployeeID: 2},
		{Date: Day(2024, 1, 3), DutyID: 1, EmployeeID: 99},
	}
	for d := Day(2024, 1, 8); d.Before(Day(2024, 1, 15)); d = addDays(d, 1) {
		entries = append(entries, Assignment{Date: d, DutyID: 2, EmployeeID: 1})
	}

	t.Run("all history", func(t *testing.T) {
		rows := Report(employees, duties, entries, nil, time.Time{}, time.Time{})
		require.Len(t, rows, 2)

		al, bea := rows[0], rows[1]
		assert.Equal(t, "Al", al.Name)
		assert.Equal(t, 4, al.Total)
		assert.Equal(t, 6, al.EffectiveTotal)
		assert.Equal(t, 3, al.WeekendScore)
		assert.Equal(t, map[DutyID]int{1: 2, 2: 1}, al.DutyCounts)

		assert.Equal(t, "Bea", bea.Name)
		assert.Zero(t, bea.Total)
		assert.Equal(t, 1, bea.OffBalance)
		assert.Equal(t, map[DutyID]int{3: 1, 4: 1}, bea.DutyCounts)
	})

	t.Run("bounded window", func(t *testing.T) {
		rows := Report(employees, duties, entries, nil, Day(2024, 1, 8), Day(2024, 1, 31))
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Total)
		assert.Equal(t, map[DutyID]int{2: 1}, rows[0].DutyCounts)
		assert.Empty(t, rows[1].DutyCounts)
	})

	t.Run("holidays score like weekends", func(t *testing.T) {
		special := NewSpecialDates()
		special.AddExact(Day(2024, 1, 1))
		rows := Report(employees, duties, entries, special, time.Time{}, time.Time{})
		assert.Equal(t, 4, rows[0].WeekendScore)
	})
}
