package scheduler

import "time"

// assignOfficeHours fills office-hours shifts: the default owner keeps the
// slot unless cover is needed, in which case the cover queue decides.
func (r *run) assignOfficeHours(inPool func(*Duty) bool) {
	r.eachDay(func(date time.Time) {
		for _, duty := range r.duties {
			if !inPool(duty) || !duty.ActiveRange.Contains(date) {
				continue
			}
			for shift := 0; shift < duty.ShiftsPerDay; shift++ {
				cfg := duty.Shift(shift)
				if cfg.OfficeHours == nil || !cfg.ActiveRange.Contains(date) {
					continue
				}
				if r.ledger.at(date, duty.ID, shift) != nil {
					continue
				}
				r.fillOfficeHours(date, duty, shift, cfg)
			}
		}
	})
}

func (r *run) fillOfficeHours(date time.Time, duty *Duty, shift int, cfg ShiftConfig) {
	def := cfg.OfficeHours.Default
	why := r.coverReason(date, cfg)
	if why == "" {
		r.place(date, duty, shift, def)
		return
	}

	key := coverKey(duty.ID, shift, r.special.IsScoreable(date))
	if emp, ok := r.linkSunday(date, duty, shift, cfg, key); ok {
		r.place(date, duty, shift, emp)
		r.queues.Rotate(key, emp)
		r.log.infof("%s: %s keeps the weekend as double duty", r.slotName(date, duty.ID, shift), r.name(emp))
		return
	}

	for _, emp := range r.queues.Get(key, cfg.Excluded) {
		if emp == def {
			continue
		}
		if r.away.unavailable(emp, date) || r.ledger.busy(emp, date, true, false) != Free {
			continue
		}
		r.place(date, duty, shift, emp)
		r.queues.Rotate(key, emp)
		r.log.infof("%s: %s covers (%s)", r.slotName(date, duty.ID, shift), r.name(emp), why)
		return
	}
	r.unfilled(date, duty, shift, "no cover available ("+why+")")
}

// coverReason explains why the default owner cannot hold the slot, or returns "" if they can
func (r *run) coverReason(date time.Time, cfg ShiftConfig) string {
	def := cfg.OfficeHours.Default
	if def == 0 {
		return "no default owner"
	}
	if _, ok := r.employees[def]; !ok {
		return "default owner not on the roster"
	}
	if cfg.Excluded[def] {
		return "default owner excluded"
	}
	if r.away.unavailable(def, date) {
		return "default owner unavailable"
	}
	if br := r.ledger.busy(def, date, true, false); br != Free {
		return "default owner " + br.String()
	}
	if cfg.OfficeHours.WeekdaysOnly && r.special.IsScoreable(date) {
		return "default owner works weekdays only"
	}
	return ""
}

type openSlot struct {
	duty  *Duty
	shift int
}

// assignDaily fills the remaining daily slots date by date, in random slot order
func (r *run) assignDaily(inPool func(*Duty) bool) {
	r.eachDay(func(date time.Time) {
		var open []openSlot
		for _, duty := range r.duties {
			if !inPool(duty) || duty.Weekly || !duty.ActiveRange.Contains(date) {
				continue
			}
			for shift := 0; shift < duty.ShiftsPerDay; shift++ {
				cfg := duty.Shift(shift)
				if cfg.OfficeHours != nil || !cfg.ActiveRange.Contains(date) {
					continue
				}
				if r.ledger.at(date, duty.ID, shift) != nil {
					continue
				}
				open = append(open, openSlot{duty: duty, shift: shift})
			}
		}
		r.rng.Shuffle(len(open), func(i, j int) { open[i], open[j] = open[j], open[i] })
		for _, s := range open {
			r.fillDaily(date, s.duty, s.shift)
		}
	})
}

func (r *run) fillDaily(date time.Time, duty *Duty, shift int) {
	cfg := duty.Shift(shift)
	key := dailyKey(duty.ID, shift, r.special.IsScoreable(date))

	if emp, ok := r.linkSunday(date, duty, shift, cfg, key); ok {
		r.place(date, duty, shift, emp)
		r.queues.Rotate(key, emp)
		r.log.infof("%s: %s keeps the weekend as double duty", r.slotName(date, duty.ID, shift), r.name(emp))
		return
	}

	candidates := r.queues.Get(key, cfg.Excluded)
	if date.Weekday() == time.Saturday {
		candidates = r.favourDoubleDuty(date, key, candidates)
	}
	for _, emp := range candidates {
		if r.away.unavailable(emp, date) || r.ledger.busy(emp, date, false, false) != Free {
			continue
		}
		r.place(date, duty, shift, emp)
		r.queues.Rotate(key, emp)
		return
	}
	r.unfilled(date, duty, shift, "every candidate is unavailable or busy")
}
