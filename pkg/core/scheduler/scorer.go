package scheduler

import (
	"cmp"
	"slices"
	"time"
)

// pool is a set of duties balanced together and the employees who can work them
type pool struct {
	name    string
	duties  map[DutyID]*Duty
	members []EmployeeID
}

// pool collects the matching duties. Employees excluded from every shift of
// every duty in the pool are left out of it.
func (r *run) pool(name string, match func(*Duty) bool) pool {
	p := pool{name: name, duties: make(map[DutyID]*Duty)}
	for _, d := range r.duties {
		if match(d) {
			p.duties[d.ID] = d
		}
	}
	for _, e := range r.roster {
		if !r.excludedEverywhere(e.ID, p) {
			p.members = append(p.members, e.ID)
		}
	}
	return p
}

func (r *run) excludedEverywhere(emp EmployeeID, p pool) bool {
	for _, d := range p.duties {
		for i := 0; i < d.ShiftsPerDay; i++ {
			if !d.Shift(i).Excluded[emp] {
				return false
			}
		}
	}
	return true
}

// protected reports whether a is the default owner working their own office
// hours on an ordinary weekday. Such entries score nothing and never move.
func (r *run) protected(a *Assignment) bool {
	duty, ok := r.dutyByID[a.DutyID]
	if !ok {
		return false
	}
	return protectedDefault(duty, a, r.special)
}

func protectedDefault(duty *Duty, a *Assignment, special *SpecialDates) bool {
	oh := duty.Shift(a.Shift).OfficeHours
	return oh != nil && oh.Default == a.EmployeeID && !special.IsScoreable(a.Date)
}

// scores is the fairness score of every pool member over [from, end]: summed
// handicaps plus one point per counted assignment. Weekly duties only score on
// weekends and holidays.
func (r *run) scores(p pool, from time.Time) map[EmployeeID]int {
	sc := make(map[EmployeeID]int, len(p.members))
	for _, id := range p.members {
		total := 0
		for _, d := range p.duties {
			for i := 0; i < d.ShiftsPerDay; i++ {
				total += d.Shift(i).Handicaps[id]
			}
		}
		sc[id] = total
	}
	for a := range r.ledger.all {
		if !inRange(a.Date, from, r.end) {
			continue
		}
		duty, ok := p.duties[a.DutyID]
		if !ok {
			continue
		}
		if _, member := sc[a.EmployeeID]; !member {
			continue
		}
		if duty.Weekly && !r.special.IsScoreable(a.Date) {
			continue
		}
		if r.protected(a) {
			continue
		}
		sc[a.EmployeeID]++
	}
	return sc
}

// countScores counts pool assignments on dates matching pred between from and
// the end of the range. A zero from counts all history.
func (r *run) countScores(p pool, from time.Time, pred func(time.Time) bool) map[EmployeeID]int {
	sc := make(map[EmployeeID]int, len(p.members))
	for _, id := range p.members {
		sc[id] = 0
	}
	for a := range r.ledger.all {
		if a.Date.Before(from) || a.Date.After(r.end) {
			continue
		}
		if _, ok := p.duties[a.DutyID]; !ok {
			continue
		}
		if _, member := sc[a.EmployeeID]; !member || !pred(a.Date) {
			continue
		}
		sc[a.EmployeeID]++
	}
	return sc
}

func spread(sc map[EmployeeID]int) int {
	if len(sc) == 0 {
		return 0
	}
	lo, hi := 0, 0
	first := true
	for _, v := range sc {
		if first {
			lo, hi, first = v, v, false
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	return hi - lo
}

// ranked orders pool members by score, falling back to roster rank on ties
func (r *run) ranked(p pool, sc map[EmployeeID]int, ascending bool) []EmployeeID {
	out := slices.Clone(p.members)
	slices.SortStableFunc(out, func(a, b EmployeeID) int {
		if ascending {
			return cmp.Compare(sc[a], sc[b])
		}
		return cmp.Compare(sc[b], sc[a])
	})
	return out
}
