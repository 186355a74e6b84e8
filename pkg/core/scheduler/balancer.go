package scheduler

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type balancePass struct {
	name      string
	pool      pool
	from      time.Time
	tolerance int
	// weekdayOnly restricts moves to ordinary weekdays so weekend balance is left alone
	weekdayOnly bool
}

type blockReason struct {
	donor, receiver EmployeeID
	slot, reason    string
}

// blockReasons keeps the first reason each donor/receiver pair could not trade
type blockReasons struct {
	seen    map[[2]EmployeeID]bool
	entries []blockReason
}

func newBlockReasons() *blockReasons {
	return &blockReasons{seen: make(map[[2]EmployeeID]bool)}
}

func (b *blockReasons) add(donor, receiver EmployeeID, slot, reason string) {
	k := [2]EmployeeID{donor, receiver}
	if b.seen[k] {
		return
	}
	b.seen[k] = true
	b.entries = append(b.entries, blockReason{donor: donor, receiver: receiver, slot: slot, reason: reason})
}

// iterate drives a balance pass: one improving step per iteration until the
// spread is within tolerance, the iteration cap is hit, or no step is found
// StagnationLimit times in a row.
func (r *run) iterate(pass string, p pool, maxIter, tolerance int, score func() map[EmployeeID]int, step func(map[EmployeeID]int, *blockReasons) bool) {
	if len(p.members) < 2 {
		return
	}
	stagnant := 0
	for iter := 0; iter < maxIter; iter++ {
		sc := score()
		if spread(sc) <= tolerance {
			r.log.infof("%s balance settled after %d moves, spread %d", pass, r.stats.Swaps[pass], spread(sc))
			return
		}
		blocked := newBlockReasons()
		if step(sc, blocked) {
			r.stats.Swaps[pass]++
			stagnant = 0
			continue
		}
		stagnant++
		if stagnant >= r.opts.StagnationLimit {
			r.logStagnation(pass, spread(sc), blocked)
			return
		}
	}
	r.log.warnf("%s balance stopped at the %d iteration cap, spread %d", pass, maxIter, spread(score()))
}

func (r *run) logStagnation(pass string, gap int, blocked *blockReasons) {
	r.stats.Stagnations = append(r.stats.Stagnations, pass)
	r.log.warnf("%s balance stagnated with spread %d", pass, gap)
	if len(blocked.entries) == 0 {
		r.log.warnf("%s: no employees far enough apart to trade", pass)
	}
	for _, b := range blocked.entries {
		if b.receiver == 0 {
			r.log.warnf("%s: %s cannot give anything away: %s", pass, r.name(b.donor), b.reason)
			continue
		}
		r.log.warnf("%s: %s -> %s blocked at %s: %s", pass, r.name(b.donor), r.name(b.receiver), b.slot, b.reason)
	}
}

// balance runs the general pass: overloaded donors hand single shifts, or
// whole double-duty weekends, to the least loaded legal receiver.
func (r *run) balance(b balancePass) {
	r.iterate(b.name, b.pool, r.opts.MaxBalanceIterations, b.tolerance,
		func() map[EmployeeID]int { return r.scores(b.pool, b.from) },
		func(sc map[EmployeeID]int, blocked *blockReasons) bool { return r.balanceStep(b, sc, blocked) },
	)
}

func (r *run) balanceStep(b balancePass, sc map[EmployeeID]int, blocked *blockReasons) bool {
	low := r.ranked(b.pool, sc, true)
	floor := sc[low[0]]

	for _, donor := range r.ranked(b.pool, sc, false) {
		if sc[donor]-floor <= b.tolerance {
			break
		}
		shifts := r.movable(donor, b.pool, func(a *Assignment) bool {
			if b.pool.duties[a.DutyID].Weekly {
				return false
			}
			return !b.weekdayOnly || !r.special.IsScoreable(a.Date)
		})
		if len(shifts) == 0 {
			blocked.add(donor, 0, "", "no movable shifts in range")
			continue
		}
		r.rng.Shuffle(len(shifts), func(i, j int) { shifts[i], shifts[j] = shifts[j], shifts[i] })

		for _, a := range shifts {
			pair := r.weekendPartner(a)
			for _, rec := range low {
				gap := sc[donor] - sc[rec]
				if gap <= b.tolerance {
					break
				}
				give := []*Assignment{a}
				if pair != nil {
					if gap <= 2 {
						blocked.add(donor, rec, r.slotName(a.Date, a.DutyID, a.Shift), "double-duty weekend would overshoot")
						continue
					}
					give = append(give, pair)
				}
				if r.tryExchange(b.name, donor, rec, give, nil, true, blocked) {
					return true
				}
			}
		}
	}
	return false
}

// movable lists emp's draft entries in the pool that a balancer may hand over
func (r *run) movable(emp EmployeeID, p pool, keep func(*Assignment) bool) []*Assignment {
	var out []*Assignment
	for _, a := range r.ledger.draft {
		if a.EmployeeID != emp || a.ManuallyLocked {
			continue
		}
		if _, ok := p.duties[a.DutyID]; !ok {
			continue
		}
		if r.protected(a) || !keep(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// blockReason explains why emp cannot take a, or returns "".
// Entries in skip are about to change hands and are ignored in busy checks.
func (r *run) blockReason(emp EmployeeID, a *Assignment, adjacent bool, skip []*Assignment) string {
	cfg := r.dutyByID[a.DutyID].Shift(a.Shift)
	if cfg.Excluded[emp] {
		return "excluded from the shift"
	}
	if r.away.unavailable(emp, a.Date) {
		return "unavailable"
	}
	if br := r.ledger.busy(emp, a.Date, !adjacent, !adjacent, skip...); br != Free {
		return br.String()
	}
	return ""
}

// tryExchange moves give from hi to lo and take from lo to hi, all or nothing
func (r *run) tryExchange(pass string, hi, lo EmployeeID, give, take []*Assignment, adjacent bool, blocked *blockReasons) bool {
	skip := slices.Concat(give, take)
	for _, a := range give {
		if why := r.blockReason(lo, a, adjacent, skip); why != "" {
			blocked.add(hi, lo, r.slotName(a.Date, a.DutyID, a.Shift), why)
			return false
		}
	}
	for _, a := range take {
		if why := r.blockReason(hi, a, adjacent, skip); why != "" {
			blocked.add(hi, lo, r.slotName(a.Date, a.DutyID, a.Shift), r.name(hi)+" "+why)
			return false
		}
	}

	for _, a := range give {
		r.ledger.reassign(a, lo)
	}
	for _, a := range take {
		r.ledger.reassign(a, hi)
	}

	msg := fmt.Sprintf("%s balance: %s hands %s to %s", pass, r.name(hi), r.describe(give), r.name(lo))
	if len(take) > 0 {
		msg += " for " + r.describe(take)
	}
	r.log.infof("%s", msg)
	return true
}

func (r *run) describe(entries []*Assignment) string {
	if len(entries) > 2 {
		first := entries[0]
		return fmt.Sprintf("%s and %d more days", r.slotName(first.Date, first.DutyID, first.Shift), len(entries)-1)
	}
	names := make([]string, 0, len(entries))
	for _, a := range entries {
		names = append(names, r.slotName(a.Date, a.DutyID, a.Shift))
	}
	return strings.Join(names, " + ")
}
