package scheduler

// balanceWeekends evens out weekend and holiday load over a rolling window
// that starts WeekendWindowMonths before the end of the range.
func (r *run) balanceWeekends(p pool) {
	const pass = "weekend"
	from := monthStart(r.end, r.opts.WeekendWindowMonths)
	r.iterate(pass, p, r.opts.MaxPoolIterations, r.opts.WeekendTolerance,
		func() map[EmployeeID]int { return r.countScores(p, from, r.special.IsScoreable) },
		func(sc map[EmployeeID]int, blocked *blockReasons) bool {
			asc := r.ranked(p, sc, true)
			for i := len(asc) - 1; i > 0; i-- {
				hi := asc[i]
				for j := 0; j < i; j++ {
					lo := asc[j]
					if sc[hi]-sc[lo] <= r.opts.WeekendTolerance {
						break
					}
					if r.swapWeekend(pass, p, hi, lo, sc[hi]-sc[lo], blocked) {
						return true
					}
				}
			}
			return false
		},
	)
}

// swapWeekend trades one of hi's Saturday or Sunday shifts for one of lo's
// ordinary weekday shifts. A double-duty weekend moves as a pair and needs
// two non-adjacent weekdays in return. Weekly duties fall back to whole-week
// trades.
func (r *run) swapWeekend(pass string, p pool, hi, lo EmployeeID, gap int, blocked *blockReasons) bool {
	daily := func(a *Assignment) bool { return !p.duties[a.DutyID].Weekly }

	weekends := r.movable(hi, p, func(a *Assignment) bool {
		return daily(a) && isWeekend(a.Date) && !r.special.IsHoliday(a.Date)
	})
	r.rng.Shuffle(len(weekends), func(i, j int) { weekends[i], weekends[j] = weekends[j], weekends[i] })
	weekdays := r.movable(lo, p, func(a *Assignment) bool { return daily(a) && !r.special.IsScoreable(a.Date) })

	for _, w := range weekends {
		if pair := r.weekendPartner(w); pair != nil {
			if gap <= 2 {
				blocked.add(hi, lo, r.slotName(w.Date, w.DutyID, w.Shift), "double-duty weekend would overshoot")
				continue
			}
			for i, x := range weekdays {
				for _, y := range weekdays[i+1:] {
					if x.Date.Sub(y.Date).Abs().Hours() <= 24 {
						continue
					}
					if r.tryExchange(pass, hi, lo, []*Assignment{w, pair}, []*Assignment{x, y}, true, blocked) {
						return true
					}
				}
			}
			blocked.add(hi, lo, r.slotName(w.Date, w.DutyID, w.Shift), "no two weekdays to trade for a double-duty weekend")
			continue
		}
		for _, x := range weekdays {
			if r.tryExchange(pass, hi, lo, []*Assignment{w}, []*Assignment{x}, true, blocked) {
				return true
			}
		}
	}

	if r.swapWeeklyBlock(pass, p, hi, lo, r.special.IsScoreable, blocked) {
		return true
	}
	if len(weekends) == 0 {
		blocked.add(hi, lo, "", "no movable weekend shifts in range")
	} else if len(weekdays) == 0 {
		blocked.add(hi, lo, "", r.name(lo)+" has no weekday shifts to trade")
	}
	return false
}
