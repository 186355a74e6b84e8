package scheduler

import (
	"cmp"
	"slices"
	"time"
)

// EmployeeBalance is one employee's row in a balance report
type EmployeeBalance struct {
	EmployeeID EmployeeID `json:"employee_id"`
	Name       string     `json:"name"`
	// Total counts main-pool points. Weekly duties score on weekends and holidays only.
	Total int `json:"total"`
	// EffectiveTotal adds positive handicaps to Total
	EffectiveTotal int `json:"effective_total"`
	OffBalance     int `json:"off_balance"`
	WeekendScore   int `json:"weekend_score"`
	// DutyCounts counts shifts per duty, with each week of a weekly duty counted once
	DutyCounts map[DutyID]int `json:"duty_counts"`
}

// Report tallies stored assignments dated between from and to. Zero bounds are open.
// Rows follow roster rank.
func Report(employees []Employee, duties []Duty, entries []Assignment, special *SpecialDates, from, to time.Time) []EmployeeBalance {
	byDuty := make(map[DutyID]*Duty, len(duties))
	for i := range duties {
		d := duties[i]
		d.Shifts = slices.Clone(d.Shifts)
		d.Normalize()
		byDuty[d.ID] = &d
	}

	ranked := slices.Clone(employees)
	slices.SortStableFunc(ranked, func(a, b Employee) int {
		return cmp.Or(cmp.Compare(a.Rank, b.Rank), cmp.Compare(a.ID, b.ID))
	})

	rows := make(map[EmployeeID]*EmployeeBalance, len(ranked))
	order := make([]EmployeeID, 0, len(ranked))
	for _, e := range ranked {
		if _, dup := rows[e.ID]; dup {
			continue
		}
		row := &EmployeeBalance{EmployeeID: e.ID, Name: e.Name, DutyCounts: make(map[DutyID]int)}
		for _, d := range byDuty {
			if d.OffBalance || d.Special {
				continue
			}
			for i := 0; i < d.ShiftsPerDay; i++ {
				if h := d.Shift(i).Handicaps[e.ID]; h > 0 {
					row.EffectiveTotal += h
				}
			}
		}
		rows[e.ID] = row
		order = append(order, e.ID)
	}

	seenWeeks := make(map[EmployeeID]map[blockKey]bool)
	for i := range entries {
		a := &entries[i]
		row, ok := rows[a.EmployeeID]
		if !ok {
			continue
		}
		if (!from.IsZero() && a.Date.Before(from)) || (!to.IsZero() && a.Date.After(to)) {
			continue
		}
		duty, ok := byDuty[a.DutyID]
		if !ok {
			continue
		}
		scoreable := special.IsScoreable(a.Date)

		if duty.Weekly {
			k := blockKey{duty: duty.ID, shift: a.Shift, start: dateKey(weekStart(a.Date, duty.Shift(a.Shift).weekAnchor()))}
			if seenWeeks[a.EmployeeID] == nil {
				seenWeeks[a.EmployeeID] = make(map[blockKey]bool)
			}
			if !seenWeeks[a.EmployeeID][k] {
				seenWeeks[a.EmployeeID][k] = true
				row.DutyCounts[duty.ID]++
			}
			if !scoreable || duty.Special {
				continue
			}
			if duty.OffBalance {
				row.OffBalance++
				continue
			}
			row.Total++
			row.EffectiveTotal++
			row.WeekendScore++
			continue
		}

		row.DutyCounts[duty.ID]++
		if duty.Special || protectedDefault(duty, a, special) {
			continue
		}
		if duty.OffBalance {
			row.OffBalance++
			continue
		}
		row.Total++
		row.EffectiveTotal++
		if scoreable {
			row.WeekendScore++
		}
	}

	out := make([]EmployeeBalance, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}
	return out
}
