package scheduler

import (
	"slices"
	"time"
)

// BusyReason explains why an employee cannot take another counted shift on a date
type BusyReason int

const (
	Free BusyReason = iota
	BusyToday
	WorkedYesterday
	WorksTomorrow
)

func (r BusyReason) String() string {
	switch r {
	case BusyToday:
		return "already working that day"
	case WorkedYesterday:
		return "worked the day before"
	case WorksTomorrow:
		return "works the day after"
	default:
		return "free"
	}
}

type slotKey struct {
	date  string
	duty  DutyID
	shift int
}

// ledger owns the draft schedule and the history, and keeps an index of
// counted assignments per employee and date for busy checks.
type ledger struct {
	duties  map[DutyID]*Duty
	draft   []*Assignment
	history []*Assignment
	slots   map[slotKey]*Assignment
	counted map[EmployeeID]map[string][]*Assignment
}

// newLedger splits existing entries into history and draft. In-range entries
// are kept only when manually locked.
func newLedger(duties map[DutyID]*Duty, start, end time.Time, existing []Assignment) *ledger {
	l := &ledger{
		duties:  duties,
		slots:   make(map[slotKey]*Assignment),
		counted: make(map[EmployeeID]map[string][]*Assignment),
	}
	for _, e := range existing {
		a := e
		a.Date = truncate(a.Date)
		if inRange(a.Date, start, end) {
			if !a.ManuallyLocked {
				continue
			}
			if l.at(a.Date, a.DutyID, a.Shift) != nil {
				continue
			}
			l.add(&a)
			continue
		}
		l.history = append(l.history, &a)
		l.index(&a)
	}
	return l
}

func (l *ledger) counts(a *Assignment) bool {
	d, ok := l.duties[a.DutyID]
	return ok && d.Counted() && a.EmployeeID != 0
}

func (l *ledger) index(a *Assignment) {
	l.slots[slotKey{dateKey(a.Date), a.DutyID, a.Shift}] = a
	if !l.counts(a) {
		return
	}
	byDate, ok := l.counted[a.EmployeeID]
	if !ok {
		byDate = make(map[string][]*Assignment)
		l.counted[a.EmployeeID] = byDate
	}
	k := dateKey(a.Date)
	byDate[k] = append(byDate[k], a)
}

func (l *ledger) unindexEmployee(a *Assignment) {
	if !l.counts(a) {
		return
	}
	k := dateKey(a.Date)
	list := l.counted[a.EmployeeID][k]
	if i := slices.Index(list, a); i >= 0 {
		l.counted[a.EmployeeID][k] = slices.Delete(list, i, i+1)
	}
}

// add appends a new entry to the draft
func (l *ledger) add(a *Assignment) {
	l.draft = append(l.draft, a)
	l.index(a)
}

// reassign hands an existing draft entry to another employee
func (l *ledger) reassign(a *Assignment, to EmployeeID) {
	l.unindexEmployee(a)
	a.EmployeeID = to
	if l.counts(a) {
		k := dateKey(a.Date)
		if l.counted[to] == nil {
			l.counted[to] = make(map[string][]*Assignment)
		}
		l.counted[to][k] = append(l.counted[to][k], a)
	}
}

// at returns the entry for a slot in the draft or history
func (l *ledger) at(date time.Time, duty DutyID, shift int) *Assignment {
	return l.slots[slotKey{dateKey(date), duty, shift}]
}

// all iterates history followed by the draft
func (l *ledger) all(yield func(*Assignment) bool) {
	for _, a := range l.history {
		if !yield(a) {
			return
		}
	}
	for _, a := range l.draft {
		if !yield(a) {
			return
		}
	}
}

func (l *ledger) worksOn(emp EmployeeID, date time.Time, skip []*Assignment) bool {
	for _, a := range l.counted[emp][dateKey(date)] {
		if !slices.Contains(skip, a) {
			return true
		}
	}
	return false
}

// busy checks the same day and, unless ignored, the adjacent days for counted
// assignments. Entries in skip are treated as absent.
func (l *ledger) busy(emp EmployeeID, date time.Time, ignoreYesterday, ignoreTomorrow bool, skip ...*Assignment) BusyReason {
	if l.worksOn(emp, date, skip) {
		return BusyToday
	}
	if !ignoreYesterday && l.worksOn(emp, addDays(date, -1), skip) {
		return WorkedYesterday
	}
	if !ignoreTomorrow && l.worksOn(emp, addDays(date, 1), skip) {
		return WorksTomorrow
	}
	return Free
}

// availability is the set of dates each employee cannot work
type availability map[EmployeeID]map[string]bool

func newAvailability(entries []Unavailability) availability {
	av := make(availability)
	for _, u := range entries {
		if av[u.EmployeeID] == nil {
			av[u.EmployeeID] = make(map[string]bool)
		}
		av[u.EmployeeID][dateKey(u.Date)] = true
	}
	return av
}

func (av availability) unavailable(emp EmployeeID, date time.Time) bool {
	return av[emp][dateKey(date)]
}
