package scheduler

import (
	"slices"
	"time"
)

// plainWeekend reports whether the Saturday/Sunday pair around date is free of holidays
func (r *run) plainWeekend(date time.Time) bool {
	var sat time.Time
	switch date.Weekday() {
	case time.Saturday:
		sat = date
	case time.Sunday:
		sat = addDays(date, -1)
	default:
		return false
	}
	return !r.special.IsHoliday(sat) && !r.special.IsHoliday(addDays(sat, 1))
}

// linkSunday offers a Sunday slot to whoever holds the same duty and shift on
// the Saturday before, looking into history when that Saturday lies before the
// range. The employee must prefer double duty, be free on Sunday and still
// hold a turn in the queue.
func (r *run) linkSunday(date time.Time, duty *Duty, shift int, cfg ShiftConfig, key QueueKey) (EmployeeID, bool) {
	if date.Weekday() != time.Sunday || !r.plainWeekend(date) {
		return 0, false
	}
	sat := r.ledger.at(addDays(date, -1), duty.ID, shift)
	if sat == nil || !r.doubleDuty[sat.EmployeeID] {
		return 0, false
	}
	emp := sat.EmployeeID
	if _, ok := r.employees[emp]; !ok || cfg.Excluded[emp] {
		return 0, false
	}
	if r.away.unavailable(emp, date) || r.ledger.busy(emp, date, true, false) != Free {
		return 0, false
	}
	r.queues.Get(key, cfg.Excluded)
	if r.queues.Turns(key, emp) == 0 {
		return 0, false
	}
	return emp, true
}

// favourDoubleDuty moves Saturday candidates who prefer double duty and still
// hold both weekend turns to the front, keeping queue order otherwise.
func (r *run) favourDoubleDuty(date time.Time, key QueueKey, candidates []EmployeeID) []EmployeeID {
	if !r.plainWeekend(date) {
		return candidates
	}
	eager := func(id EmployeeID) bool {
		return r.doubleDuty[id] && r.queues.Turns(key, id) >= 2
	}
	out := slices.Clone(candidates)
	slices.SortStableFunc(out, func(a, b EmployeeID) int {
		ea, eb := eager(a), eager(b)
		switch {
		case ea && !eb:
			return -1
		case eb && !ea:
			return 1
		}
		return 0
	})
	return out
}

// weekendPartner returns the other half of a double-duty weekend: the same
// duty and shift on the adjacent weekend day, held by the same employee who
// prefers double duty, in range and not locked. Otherwise nil.
func (r *run) weekendPartner(a *Assignment) *Assignment {
	if !r.doubleDuty[a.EmployeeID] || !r.plainWeekend(a.Date) {
		return nil
	}
	other := addDays(a.Date, 1)
	if a.Date.Weekday() == time.Sunday {
		other = addDays(a.Date, -1)
	}
	if !inRange(other, r.start, r.end) {
		return nil
	}
	p := r.ledger.at(other, a.DutyID, a.Shift)
	if p == nil || p == a || p.EmployeeID != a.EmployeeID || p.ManuallyLocked {
		return nil
	}
	return p
}
