package scheduler

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// busyInput is a two-month roster exercising every assignment phase at once
func busyInput(seed uint64) Input {
	rng := rand.New(rand.NewPCG(seed, 99))
	start, end := Day(2024, 3, 1), Day(2024, 4, 30)

	var away []Unavailability
	for i := 0; i < 20; i++ {
		away = append(away, Unavailability{
			EmployeeID: EmployeeID(rng.IntN(6) + 1),
			Date:       addDays(start, rng.IntN(61)),
		})
	}

	special := NewSpecialDates()
	special.AddExact(Day(2024, 4, 1))
	special.AddRecurring(time.March, 29)

	return Input{
		Start:     start,
		End:       end,
		Employees: testRoster(6),
		Duties: []Duty{
			{ID: 1, Name: "Desk", ShiftsPerDay: 1, Shifts: []ShiftConfig{{
				OfficeHours: &OfficeHours{Default: 1, WeekdaysOnly: true},
			}}},
			{ID: 2, Name: "Patrol", ShiftsPerDay: 2, Shifts: []ShiftConfig{
				{},
				{Excluded: map[EmployeeID]bool{2: true}, Handicaps: map[EmployeeID]int{6: 1}},
			}},
			{ID: 3, Name: "Watch", ShiftsPerDay: 1, Weekly: true},
			{ID: 4, Name: "Archive", ShiftsPerDay: 1, OffBalance: true},
			{ID: 5, Name: "Parade", ShiftsPerDay: 1, Special: true},
		},
		Unavailability: away,
		SpecialDates:   special,
		DoubleDuty:     map[EmployeeID]bool{4: true, 5: true},
	}
}

func TestRun_HardConstraintsHold(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		in := busyInput(seed)
		res, err := Run(in, seeded(seed))
		require.NoError(t, err)
		require.NotEmpty(t, res.Assignments)

		away := newAvailability(in.Unavailability)
		dutyByID := map[DutyID]*Duty{}
		for i := range in.Duties {
			d := in.Duties[i]
			d.Normalize()
			dutyByID[d.ID] = &d
		}

		perDay := map[EmployeeID]map[string]int{}
		slots := map[slotKey]bool{}
		for _, a := range res.Assignments {
			duty := dutyByID[a.DutyID]
			k := slotKey{dateKey(a.Date), a.DutyID, a.Shift}
			assert.False(t, slots[k], "seed %d: slot %v filled twice", seed, k)
			slots[k] = true

			assert.False(t, duty.Special, "seed %d: special duty assigned", seed)
			assert.False(t, away.unavailable(a.EmployeeID, a.Date), "seed %d: %d works while away on %s", seed, a.EmployeeID, dateKey(a.Date))
			assert.False(t, duty.Shift(a.Shift).Excluded[a.EmployeeID], "seed %d: %d excluded from %v", seed, a.EmployeeID, k)
			assert.True(t, inRange(a.Date, in.Start, in.End))

			if duty.Counted() {
				if perDay[a.EmployeeID] == nil {
					perDay[a.EmployeeID] = map[string]int{}
				}
				perDay[a.EmployeeID][dateKey(a.Date)]++
			}
		}
		for emp, days := range perDay {
			for day, n := range days {
				assert.Equal(t, 1, n, "seed %d: employee %d has %d shifts on %s", seed, emp, n, day)
			}
		}

		for key, entry := range res.Queues {
			excluded := dutyByID[key.DutyID].Shift(key.Shift).Excluded
			counts := map[EmployeeID]int{}
			for _, id := range append(append([]EmployeeID{}, entry.Active...), entry.NextRound...) {
				counts[id]++
			}
			for _, e := range in.Employees {
				want := key.multiplicity()
				if excluded[e.ID] {
					want = 0
				}
				assert.Equal(t, want, counts[e.ID], "seed %d: queue %s employee %d", seed, key, e.ID)
			}
		}
	}
}

func TestRun_SameSeedSameSchedule(t *testing.T) {
	first, err := Run(busyInput(3), seeded(17))
	require.NoError(t, err)
	second, err := Run(busyInput(3), seeded(17))
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Queues, second.Queues)
	assert.Equal(t, first.Log, second.Log)
}

func TestRun_QueuesCarryIntoNextRun(t *testing.T) {
	in := Input{
		Start:     Day(2024, 1, 1),
		End:       Day(2024, 1, 3),
		Employees: testRoster(4),
		Duties:    []Duty{{ID: 1, Name: "Patrol", ShiftsPerDay: 1}},
	}
	first, err := Run(in, seeded(1))
	require.NoError(t, err)

	next := in
	next.Start, next.End = Day(2024, 1, 4), Day(2024, 1, 4)
	next.Existing = first.Assignments
	next.Queues = first.Queues
	second, err := Run(next, seeded(1))
	require.NoError(t, err)

	require.Len(t, second.Assignments, 1)
	assert.Equal(t, EmployeeID(4), second.Assignments[0].EmployeeID)
}
