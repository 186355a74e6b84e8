package scheduler

import "time"

// balanceHolidays evens out holiday work across the pool. Scores count every
// stored holiday assignment, so the pass looks at the full history.
func (r *run) balanceHolidays(pass string, p pool) {
	r.iterate(pass, p, r.opts.MaxPoolIterations, r.opts.HolidayTolerance,
		func() map[EmployeeID]int { return r.countScores(p, time.Time{}, r.special.IsHoliday) },
		func(sc map[EmployeeID]int, blocked *blockReasons) bool { return r.holidayStep(pass, p, sc, blocked) },
	)
}

func (r *run) holidayStep(pass string, p pool, sc map[EmployeeID]int, blocked *blockReasons) bool {
	asc := r.ranked(p, sc, true)
	weekend := r.countScores(p, monthStart(r.end, r.opts.WeekendWindowMonths), r.special.IsScoreable)
	for i := len(asc) - 1; i > 0; i-- {
		hi := asc[i]
		for j := 0; j < i; j++ {
			lo := asc[j]
			if sc[hi]-sc[lo] <= r.opts.HolidayTolerance {
				break
			}
			if r.swapHoliday(pass, p, hi, lo, weekend, blocked) {
				return true
			}
		}
	}
	return false
}

// swapHoliday trades one of hi's holiday shifts to lo. It first looks for a
// plain weekend shift of the same duty held by lo outside a double-duty pair, then for any ordinary
// weekday shift of lo when hi also carries more weekend load. Weekly duties
// trade whole weeks as a last resort.
func (r *run) swapHoliday(pass string, p pool, hi, lo EmployeeID, weekend map[EmployeeID]int, blocked *blockReasons) bool {
	daily := func(a *Assignment) bool { return !p.duties[a.DutyID].Weekly }

	holidays := r.movable(hi, p, func(a *Assignment) bool { return daily(a) && r.special.IsHoliday(a.Date) })
	r.rng.Shuffle(len(holidays), func(i, j int) { holidays[i], holidays[j] = holidays[j], holidays[i] })

	// halves of a double-duty weekend stay together
	plainWeekends := r.movable(lo, p, func(a *Assignment) bool {
		return daily(a) && isWeekend(a.Date) && !r.special.IsHoliday(a.Date) && r.weekendPartner(a) == nil
	})
	weekdays := r.movable(lo, p, func(a *Assignment) bool { return daily(a) && !r.special.IsScoreable(a.Date) })

	for _, h := range holidays {
		for _, w := range plainWeekends {
			if w.DutyID != h.DutyID {
				continue
			}
			if r.tryExchange(pass, hi, lo, []*Assignment{h}, []*Assignment{w}, true, blocked) {
				return true
			}
		}
		if weekend[hi] <= weekend[lo] {
			blocked.add(hi, lo, r.slotName(h.Date, h.DutyID, h.Shift), "no same-duty weekend to trade and weekend load is not higher")
			continue
		}
		for _, w := range weekdays {
			if r.tryExchange(pass, hi, lo, []*Assignment{h}, []*Assignment{w}, true, blocked) {
				return true
			}
		}
	}

	if r.swapWeeklyBlock(pass, p, hi, lo, r.special.IsHoliday, blocked) {
		return true
	}
	if len(holidays) == 0 {
		blocked.add(hi, lo, "", "no movable holiday shifts in range")
	}
	return false
}
