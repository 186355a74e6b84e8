package scheduler

import (
	"cmp"
	"slices"
	"time"
)

// assignWeekly gives each week block of a weekly duty's shift to one employee
func (r *run) assignWeekly(inPool func(*Duty) bool) {
	for _, duty := range r.duties {
		if !inPool(duty) || !duty.Weekly {
			continue
		}
		for shift := 0; shift < duty.ShiftsPerDay; shift++ {
			cfg := duty.Shift(shift)
			if cfg.OfficeHours != nil {
				continue
			}
			r.assignWeeklyShift(duty, shift, cfg)
		}
	}
}

func (r *run) assignWeeklyShift(duty *Duty, shift int, cfg ShiftConfig) {
	key := QueueKey{Kind: QueueWeekly, DutyID: duty.ID, Shift: shift}
	for blockStart := weekStart(r.start, cfg.weekAnchor()); !blockStart.After(r.end); blockStart = addDays(blockStart, 7) {
		days := r.openBlockDays(duty, shift, cfg, blockStart)
		if len(days) == 0 {
			continue
		}

		var emp EmployeeID
		if blockStart.Before(r.start) {
			if prev := r.lastHolder(duty.ID, shift, blockStart); prev != 0 && r.canHoldWeek(prev, cfg, days) {
				emp = prev
				r.log.infof("%s: %s continues the week from history", r.slotName(days[0], duty.ID, shift), r.name(emp))
			}
		}

		if emp == 0 {
			queue := r.queues.Get(key, cfg.Excluded)
			for _, c := range queue {
				if r.canHoldWeek(c, cfg, days) {
					emp = c
					break
				}
			}
			if emp == 0 {
				r.assignPartialWeek(duty, shift, cfg, key, queue, days)
				continue
			}
			r.queues.Rotate(key, emp)
		}

		for _, d := range days {
			r.place(d, duty, shift, emp)
		}
	}
}

// assignPartialWeek staffs a block nobody can hold whole. The queue candidate
// free on the most days takes the week's turn and works those days; each
// remaining day goes to the first queue candidate free on it.
func (r *run) assignPartialWeek(duty *Duty, shift int, cfg ShiftConfig, key QueueKey, queue []EmployeeID, days []time.Time) {
	var holder EmployeeID
	var held []time.Time
	for _, c := range queue {
		var free []time.Time
		for _, d := range days {
			if r.canHoldWeek(c, cfg, []time.Time{d}) {
				free = append(free, d)
			}
		}
		if len(free) > len(held) {
			holder, held = c, free
		}
	}
	if holder == 0 {
		for _, d := range days {
			r.unfilled(d, duty, shift, "nobody can work any day of the week")
		}
		return
	}

	r.queues.Rotate(key, holder)
	r.log.infof("%s: %s holds %d of %d days of the week", r.slotName(days[0], duty.ID, shift), r.name(holder), len(held), len(days))
	for _, d := range held {
		r.place(d, duty, shift, holder)
	}

	for _, d := range days {
		if slices.ContainsFunc(held, d.Equal) {
			continue
		}
		cover := EmployeeID(0)
		for _, c := range queue {
			if c != holder && r.canHoldWeek(c, cfg, []time.Time{d}) {
				cover = c
				break
			}
		}
		if cover == 0 {
			r.unfilled(d, duty, shift, "nobody can cover this day of the week")
			continue
		}
		r.log.infof("%s: %s covers for %s", r.slotName(d, duty.ID, shift), r.name(cover), r.name(holder))
		r.place(d, duty, shift, cover)
	}
}

// openBlockDays lists the in-range days of a week block that still need the
// weekly holder, honouring active ranges, the Sunday flag and locked entries.
func (r *run) openBlockDays(duty *Duty, shift int, cfg ShiftConfig, blockStart time.Time) []time.Time {
	var days []time.Time
	for i := 0; i < 7; i++ {
		d := addDays(blockStart, i)
		if !inRange(d, r.start, r.end) {
			continue
		}
		if !duty.ActiveRange.Contains(d) || !cfg.ActiveRange.Contains(d) {
			continue
		}
		if d.Weekday() == time.Sunday && !cfg.worksSunday(d) {
			continue
		}
		if r.ledger.at(d, duty.ID, shift) != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}

// lastHolder finds who held the shift on the days of the block before the range starts
func (r *run) lastHolder(duty DutyID, shift int, blockStart time.Time) EmployeeID {
	for d := addDays(r.start, -1); !d.Before(blockStart); d = addDays(d, -1) {
		if a := r.ledger.at(d, duty, shift); a != nil && a.EmployeeID != 0 {
			return a.EmployeeID
		}
	}
	return 0
}

// canHoldWeek checks that emp may work every given day of a week block.
// Adjacent days are not checked since the block itself is consecutive.
func (r *run) canHoldWeek(emp EmployeeID, cfg ShiftConfig, days []time.Time) bool {
	if _, ok := r.employees[emp]; !ok || cfg.Excluded[emp] {
		return false
	}
	for _, d := range days {
		if r.away.unavailable(emp, d) || r.ledger.busy(emp, d, true, true) != Free {
			return false
		}
	}
	return true
}

type blockKey struct {
	duty  DutyID
	shift int
	start string
}

type weekBlock struct {
	key     blockKey
	entries []*Assignment
}

// weeklyBlocks groups emp's movable weekly entries in the pool by week block
func (r *run) weeklyBlocks(emp EmployeeID, p pool) []weekBlock {
	byKey := make(map[blockKey]*weekBlock)
	var order []blockKey
	for _, a := range r.ledger.draft {
		duty, ok := p.duties[a.DutyID]
		if !ok || !duty.Weekly || a.EmployeeID != emp || a.ManuallyLocked {
			continue
		}
		start := weekStart(a.Date, duty.Shift(a.Shift).weekAnchor())
		k := blockKey{duty: a.DutyID, shift: a.Shift, start: dateKey(start)}
		b, ok := byKey[k]
		if !ok {
			b = &weekBlock{key: k}
			byKey[k] = b
			order = append(order, k)
		}
		b.entries = append(b.entries, a)
	}
	slices.SortFunc(order, func(a, b blockKey) int {
		return cmp.Or(cmp.Compare(a.start, b.start), cmp.Compare(a.duty, b.duty), cmp.Compare(a.shift, b.shift))
	})
	out := make([]weekBlock, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

func (b weekBlock) weight(counts func(time.Time) bool) int {
	n := 0
	for _, a := range b.entries {
		if counts(a.Date) {
			n++
		}
	}
	return n
}

// swapWeeklyBlock exchanges a whole week of a weekly duty between hi and lo
// when hi's week carries more counted days than lo's week of the same shift.
func (r *run) swapWeeklyBlock(pass string, p pool, hi, lo EmployeeID, counts func(time.Time) bool, blocked *blockReasons) bool {
	loBlocks := r.weeklyBlocks(lo, p)
	for _, hb := range r.weeklyBlocks(hi, p) {
		hw := hb.weight(counts)
		if hw == 0 {
			continue
		}
		cfg := p.duties[hb.key.duty].Shift(hb.key.shift)
		if cfg.Excluded[lo] {
			blocked.add(hi, lo, r.slotName(hb.entries[0].Date, hb.key.duty, hb.key.shift), "excluded from the weekly duty")
			continue
		}

		var options []weekBlock
		for _, lb := range loBlocks {
			if lb.key.duty == hb.key.duty && lb.key.shift == hb.key.shift && lb.weight(counts) < hw {
				options = append(options, lb)
			}
		}
		slices.SortStableFunc(options, func(a, b weekBlock) int { return cmp.Compare(a.weight(counts), b.weight(counts)) })

		for _, lb := range options {
			if r.tryExchange(pass, hi, lo, hb.entries, lb.entries, false, blocked) {
				return true
			}
		}
	}
	return false
}
