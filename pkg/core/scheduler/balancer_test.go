package scheduler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRun builds a run without executing any phase, so tests can seed the
// draft directly and drive one balancer at a time.
func newTestRun(t *testing.T, in Input) *run {
	t.Helper()
	opts := seeded(42).withDefaults()
	opts.Logger = zap.NewNop()
	return newRun(in, opts, newRunLog(opts.Logger), truncate(in.Start), truncate(in.End))
}

func draft(r *run, emp EmployeeID, duty DutyID, dates ...time.Time) {
	for _, d := range dates {
		r.ledger.add(&Assignment{Date: d, DutyID: duty, EmployeeID: emp})
	}
}

func holdings(r *run) map[EmployeeID][]string {
	out := make(map[EmployeeID][]string)
	for _, a := range r.ledger.draft {
		out[a.EmployeeID] = append(out[a.EmployeeID], dateKey(a.Date))
	}
	return out
}

func logContains(r *run, level LogLevel, substr string) bool {
	for _, e := range r.log.entries {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

var patrol = Duty{ID: 1, Name: "Patrol", ShiftsPerDay: 1}

func counted(d *Duty) bool { return d.Counted() }

func TestBalance_MovesShiftToLeastLoaded(t *testing.T) {
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 5),
		Employees: testRoster(3), Duties: []Duty{patrol},
	})
	draft(r, 1, 1, Day(2024, 1, 1), Day(2024, 1, 3))

	p := r.pool("general", counted)
	r.balance(balancePass{name: "general", pool: p, from: r.start, tolerance: 1})

	sc := r.scores(p, r.start)
	assert.LessOrEqual(t, spread(sc), 1)
	assert.Equal(t, 1, sc[1])
	assert.Equal(t, 1, r.stats.Swaps["general"])
	assert.Len(t, r.ledger.draft, 2)
	assert.True(t, logContains(r, LevelInfo, "general balance: A hands"))
}

func TestBalance_StagnationExplainsEveryBlockedPair(t *testing.T) {
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 5),
		Employees: testRoster(3), Duties: []Duty{patrol},
		Unavailability: []Unavailability{
			{EmployeeID: 2, Date: Day(2024, 1, 1)}, {EmployeeID: 2, Date: Day(2024, 1, 3)},
			{EmployeeID: 3, Date: Day(2024, 1, 1)}, {EmployeeID: 3, Date: Day(2024, 1, 3)},
		},
	})
	draft(r, 1, 1, Day(2024, 1, 1), Day(2024, 1, 3))

	p := r.pool("general", counted)
	r.balance(balancePass{name: "general", pool: p, from: r.start, tolerance: 1})

	assert.Equal(t, []string{"general"}, r.stats.Stagnations)
	assert.True(t, logContains(r, LevelWarn, "general balance stagnated with spread 2"))
	assert.True(t, logContains(r, LevelWarn, "A -> B blocked"))
	assert.True(t, logContains(r, LevelWarn, "A -> C blocked"))
	assert.True(t, logContains(r, LevelWarn, "unavailable"))
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, holdings(r)[1])
}

func TestBalance_WeekdayPassLeavesWeekendsAlone(t *testing.T) {
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 7),
		Employees: testRoster(2), Duties: []Duty{patrol},
	})
	draft(r, 1, 1, Day(2024, 1, 6), Day(2024, 1, 7))

	p := r.pool("general", counted)
	r.balance(balancePass{name: "weekday", pool: p, from: r.start, tolerance: 1, weekdayOnly: true})

	assert.Equal(t, []string{"2024-01-06", "2024-01-07"}, holdings(r)[1])
	assert.True(t, logContains(r, LevelWarn, "cannot give anything away"))
}

func TestBalance_DoubleDutyWeekendMovesAsPair(t *testing.T) {
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 7),
		Employees: testRoster(3), Duties: []Duty{patrol},
		DoubleDuty: map[EmployeeID]bool{1: true, 2: true, 3: true},
	})
	draft(r, 1, 1, Day(2024, 1, 1), Day(2024, 1, 3), Day(2024, 1, 6), Day(2024, 1, 7))

	p := r.pool("general", counted)
	r.balance(balancePass{name: "general", pool: p, from: r.start, tolerance: 1})

	sat := r.ledger.at(Day(2024, 1, 6), 1, 0)
	sun := r.ledger.at(Day(2024, 1, 7), 1, 0)
	require.NotNil(t, sat)
	require.NotNil(t, sun)
	assert.Equal(t, sat.EmployeeID, sun.EmployeeID)
	assert.Len(t, r.ledger.draft, 4)
	assert.LessOrEqual(t, spread(r.scores(p, r.start)), 2)
}

func TestBalance_LockedAndDefaultEntriesStay(t *testing.T) {
	desk := Duty{ID: 2, Name: "Desk", ShiftsPerDay: 1, Shifts: []ShiftConfig{{OfficeHours: &OfficeHours{Default: 1}}}}
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 5),
		Employees: testRoster(2), Duties: []Duty{patrol, desk},
	})
	r.ledger.add(&Assignment{Date: Day(2024, 1, 1), DutyID: 1, EmployeeID: 1, ManuallyLocked: true})
	r.ledger.add(&Assignment{Date: Day(2024, 1, 3), DutyID: 1, EmployeeID: 1, ManuallyLocked: true})
	r.ledger.add(&Assignment{Date: Day(2024, 1, 5), DutyID: 1, EmployeeID: 1, ManuallyLocked: true})
	draft(r, 1, 2, Day(2024, 1, 2), Day(2024, 1, 4))

	p := r.pool("general", counted)
	r.balance(balancePass{name: "general", pool: p, from: r.start, tolerance: 1})

	for _, a := range r.ledger.draft {
		assert.Equal(t, EmployeeID(1), a.EmployeeID, "%s moved", dateKey(a.Date))
	}
}

func TestBalanceHolidays_TradesHolidayForWeekend(t *testing.T) {
	special := NewSpecialDates()
	special.AddExact(Day(2024, 12, 25))
	special.AddExact(Day(2024, 12, 26))
	r := newTestRun(t, Input{
		Start: Day(2024, 12, 23), End: Day(2024, 12, 29),
		Employees: testRoster(2), Duties: []Duty{patrol}, SpecialDates: special,
	})
	draft(r, 1, 1, Day(2024, 12, 25), Day(2024, 12, 26))
	draft(r, 2, 1, Day(2024, 12, 28))

	p := r.pool("general", counted)
	r.balanceHolidays("holiday", p)

	sc := r.countScores(p, time.Time{}, special.IsHoliday)
	assert.Equal(t, 1, sc[1])
	assert.Equal(t, 1, sc[2])
	assert.Equal(t, EmployeeID(1), r.ledger.at(Day(2024, 12, 28), 1, 0).EmployeeID)
	assert.Equal(t, 1, r.stats.Swaps["holiday"])
}

func TestBalanceHolidays_KeepsReceiverDoubleDutyPair(t *testing.T) {
	special := NewSpecialDates()
	special.AddExact(Day(2024, 12, 25))
	special.AddExact(Day(2024, 12, 26))
	r := newTestRun(t, Input{
		Start: Day(2024, 12, 23), End: Day(2024, 12, 29),
		Employees: testRoster(2), Duties: []Duty{patrol}, SpecialDates: special,
		DoubleDuty: map[EmployeeID]bool{2: true},
	})
	draft(r, 1, 1, Day(2024, 12, 25), Day(2024, 12, 26))
	draft(r, 2, 1, Day(2024, 12, 28), Day(2024, 12, 29))

	p := r.pool("general", counted)
	r.balanceHolidays("holiday", p)

	sat := r.ledger.at(Day(2024, 12, 28), 1, 0)
	sun := r.ledger.at(Day(2024, 12, 29), 1, 0)
	require.NotNil(t, sat)
	require.NotNil(t, sun)
	assert.Equal(t, EmployeeID(2), sat.EmployeeID)
	assert.Equal(t, EmployeeID(2), sun.EmployeeID)
	assert.Equal(t, 0, r.stats.Swaps["holiday"])
}

func TestBalanceHolidays_CountsHistoryOutsideWindow(t *testing.T) {
	special := NewSpecialDates()
	special.AddRecurring(time.December, 25)
	r := newTestRun(t, Input{
		Start: Day(2024, 12, 23), End: Day(2024, 12, 29),
		Employees: testRoster(2), Duties: []Duty{patrol}, SpecialDates: special,
		Existing: []Assignment{
			{Date: Day(2021, 12, 25), DutyID: 1, EmployeeID: 2},
			{Date: Day(2022, 12, 25), DutyID: 1, EmployeeID: 2},
		},
	})

	p := r.pool("general", counted)
	sc := r.countScores(p, time.Time{}, special.IsHoliday)
	assert.Equal(t, 2, sc[2])
	assert.Equal(t, 0, sc[1])
}

func TestBalanceWeekends_TradesWeekendForWeekday(t *testing.T) {
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 14),
		Employees: testRoster(2), Duties: []Duty{patrol},
	})
	draft(r, 1, 1, Day(2024, 1, 6), Day(2024, 1, 7), Day(2024, 1, 13))
	draft(r, 2, 1, Day(2024, 1, 1), Day(2024, 1, 3), Day(2024, 1, 10))

	p := r.pool("general", counted)
	r.balanceWeekends(p)

	weekend := r.countScores(p, monthStart(r.end, 5), r.special.IsScoreable)
	assert.LessOrEqual(t, spread(weekend), 2)
	assert.Equal(t, 1, r.stats.Swaps["weekend"])
	h := holdings(r)
	assert.Len(t, h[1], 3)
	assert.Len(t, h[2], 3)
}

func TestBalanceWeekends_SwapsWholeWeeklyBlocks(t *testing.T) {
	watch := Duty{ID: 3, Name: "Watch", ShiftsPerDay: 1, Weekly: true}
	special := NewSpecialDates()
	special.AddExact(Day(2024, 1, 10))
	r := newTestRun(t, Input{
		Start: Day(2024, 1, 1), End: Day(2024, 1, 28),
		Employees: testRoster(2), Duties: []Duty{watch}, SpecialDates: special,
	})
	for d := Day(2024, 1, 1); d.Before(Day(2024, 1, 15)); d = addDays(d, 1) {
		draft(r, 1, 3, d)
	}
	// e2 holds a short week with no weekend days
	for d := Day(2024, 1, 15); d.Before(Day(2024, 1, 20)); d = addDays(d, 1) {
		draft(r, 2, 3, d)
	}

	p := r.pool("general", counted)
	r.balanceWeekends(p)

	assert.Equal(t, 1, r.stats.Swaps["weekend"])
	weekend := r.countScores(p, monthStart(r.end, 5), r.special.IsScoreable)
	assert.LessOrEqual(t, spread(weekend), 2)

	// blocks change hands whole
	for _, a := range r.ledger.draft {
		first := r.ledger.at(weekStart(a.Date, time.Monday), 3, 0)
		require.NotNil(t, first)
		assert.Equal(t, first.EmployeeID, a.EmployeeID, "%s split from its week", dateKey(a.Date))
	}
}
