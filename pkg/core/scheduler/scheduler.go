package scheduler

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"
)

// run carries the state of one scheduling run through every phase
type run struct {
	opts       Options
	rng        *rand.Rand
	log        *runLog
	start, end time.Time

	roster     []Employee
	employees  map[EmployeeID]Employee
	duties     []*Duty
	dutyByID   map[DutyID]*Duty
	special    *SpecialDates
	away       availability
	doubleDuty map[EmployeeID]bool

	queues *RotationQueues
	ledger *ledger
	stats  Stats
}

// Run builds a schedule for [in.Start, in.End] and balances it.
//
// Phases run in a fixed order: office hours, weekly, daily, general balance,
// holiday balance, weekend balance, off-balance assignment and balance, and a
// final weekday-only general pass. The returned queue state reflects every
// draw made during the run.
func Run(in Input, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start, end := truncate(in.Start), truncate(in.End)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	log := newRunLog(opts.Logger)
	if len(in.Employees) == 0 || len(in.Duties) == 0 {
		log.warnf("nothing to schedule: %d employees, %d duties", len(in.Employees), len(in.Duties))
		return &Result{
			Queues: in.Queues.Clone(),
			Log:    log.entries,
			Stats:  Stats{Swaps: map[string]int{}},
		}, nil
	}

	r := newRun(in, opts, log, start, end)
	log.infof("scheduling %s to %s: %d employees, %d duties, %d locked entries kept",
		dateKey(start), dateKey(end), len(r.roster), len(r.duties), len(r.ledger.draft))

	normal := func(d *Duty) bool { return d.Counted() }
	offBalance := func(d *Duty) bool { return d.Category() == CategoryOffBalance }

	general := r.pool("general", normal)
	lookback := monthStart(start, opts.LookbackMonths)

	r.phase("office hours", func() { r.assignOfficeHours(normal) })
	r.phase("weekly", func() { r.assignWeekly(normal) })
	r.phase("daily", func() { r.assignDaily(normal) })
	r.phase("general balance", func() {
		r.balance(balancePass{name: "general", pool: general, from: lookback, tolerance: opts.GeneralTolerance})
	})
	r.phase("holiday balance", func() { r.balanceHolidays("holiday", general) })
	r.phase("weekend balance", func() { r.balanceWeekends(general) })

	off := r.pool("off-balance", offBalance)
	if len(off.duties) > 0 {
		r.phase("off-balance", func() {
			r.assignOfficeHours(offBalance)
			r.assignWeekly(offBalance)
			r.assignDaily(offBalance)
			r.balance(balancePass{name: "off-balance", pool: off, from: lookback, tolerance: opts.GeneralTolerance})
			r.balanceHolidays("off-balance holiday", off)
		})
	}

	r.phase("weekday balance", func() {
		r.balance(balancePass{name: "weekday", pool: general, from: lookback, tolerance: opts.GeneralTolerance, weekdayOnly: true})
	})

	return r.result(), nil
}

func newRun(in Input, opts Options, log *runLog, start, end time.Time) *run {
	r := &run{
		opts:       opts,
		rng:        opts.Rand,
		log:        log,
		start:      start,
		end:        end,
		employees:  make(map[EmployeeID]Employee, len(in.Employees)),
		dutyByID:   make(map[DutyID]*Duty, len(in.Duties)),
		special:    in.SpecialDates,
		away:       newAvailability(in.Unavailability),
		doubleDuty: in.DoubleDuty,
		stats:      Stats{Swaps: make(map[string]int)},
	}
	if r.doubleDuty == nil {
		r.doubleDuty = map[EmployeeID]bool{}
	}

	for _, e := range in.Employees {
		if _, dup := r.employees[e.ID]; dup || e.ID == 0 {
			continue
		}
		r.employees[e.ID] = e
		r.roster = append(r.roster, e)
	}
	slices.SortStableFunc(r.roster, func(a, b Employee) int {
		return cmp.Or(cmp.Compare(a.Rank, b.Rank), cmp.Compare(a.ID, b.ID))
	})

	for _, d := range in.Duties {
		duty := d
		duty.Shifts = slices.Clone(d.Shifts)
		duty.Normalize()
		r.duties = append(r.duties, &duty)
		r.dutyByID[duty.ID] = &duty
	}
	slices.SortFunc(r.duties, func(a, b *Duty) int { return cmp.Compare(a.ID, b.ID) })

	r.queues = NewRotationQueues(in.Queues, r.roster)
	r.ledger = newLedger(r.dutyByID, start, end, in.Existing)
	return r
}

func (r *run) phase(name string, fn func()) {
	r.log.phase = name
	fn()
}

func (r *run) eachDay(fn func(date time.Time)) {
	for d := r.start; !d.After(r.end); d = addDays(d, 1) {
		fn(d)
	}
}

func (r *run) name(id EmployeeID) string {
	if e, ok := r.employees[id]; ok && e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", id)
}

func (r *run) slotName(date time.Time, dutyID DutyID, shift int) string {
	name := fmt.Sprintf("duty %d", dutyID)
	if d, ok := r.dutyByID[dutyID]; ok && d.Name != "" {
		name = d.Name
	}
	return fmt.Sprintf("%s %s shift %d", dateKey(date), name, shift+1)
}

// place creates a new draft entry
func (r *run) place(date time.Time, duty *Duty, shift int, emp EmployeeID) {
	r.ledger.add(&Assignment{Date: date, DutyID: duty.ID, Shift: shift, EmployeeID: emp})
	r.stats.Assigned++
}

func (r *run) unfilled(date time.Time, duty *Duty, shift int, why string) {
	r.stats.Unfilled++
	r.log.warnf("%s left empty: %s", r.slotName(date, duty.ID, shift), why)
}

func (r *run) result() *Result {
	out := make([]Assignment, 0, len(r.ledger.draft))
	for _, a := range r.ledger.draft {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b Assignment) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.DutyID, b.DutyID), cmp.Compare(a.Shift, b.Shift))
	})
	r.log.phase = "done"
	r.log.infof("%d assignments in range, %d generated, %d unfilled", len(out), r.stats.Assigned, r.stats.Unfilled)
	return &Result{
		Assignments: out,
		Queues:      r.queues.State(),
		Log:         r.log.entries,
		Stats:       r.stats,
	}
}
