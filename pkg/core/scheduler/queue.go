package scheduler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// QueueKind names the assignment category a rotation queue serves
type QueueKind string

const (
	QueueCover   QueueKind = "cover"
	QueueWeekly  QueueKind = "weekly"
	QueueDaily   QueueKind = "daily"
	QueueWeekend QueueKind = "weekend"
)

// QueueKey identifies one rotation queue
type QueueKey struct {
	Kind   QueueKind
	DutyID DutyID
	Shift  int
}

func (k QueueKey) String() string {
	return fmt.Sprintf("%s:%d:%d", k.Kind, k.DutyID, k.Shift)
}

// ParseQueueKey reads the form produced by QueueKey.String
func ParseQueueKey(s string) (QueueKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return QueueKey{}, fmt.Errorf("invalid queue key %q", s)
	}
	kind := QueueKind(parts[0])
	switch kind {
	case QueueCover, QueueWeekly, QueueDaily, QueueWeekend:
	default:
		return QueueKey{}, fmt.Errorf("invalid queue kind in %q", s)
	}
	duty, err := strconv.Atoi(parts[1])
	if err != nil {
		return QueueKey{}, fmt.Errorf("invalid duty in queue key %q: %w", s, err)
	}
	shift, err := strconv.Atoi(parts[2])
	if err != nil {
		return QueueKey{}, fmt.Errorf("invalid shift in queue key %q: %w", s, err)
	}
	return QueueKey{Kind: kind, DutyID: DutyID(duty), Shift: shift}, nil
}

// multiplicity is how many turns each employee holds per cycle. Weekend
// queues hold two so a double-duty employee can take Saturday and Sunday.
func (k QueueKey) multiplicity() int {
	if k.Kind == QueueWeekend {
		return 2
	}
	return 1
}

// coverKey picks the queue for office-hours cover on a date
func coverKey(duty DutyID, shift int, scoreable bool) QueueKey {
	if scoreable {
		return QueueKey{Kind: QueueWeekend, DutyID: duty, Shift: shift}
	}
	return QueueKey{Kind: QueueCover, DutyID: duty, Shift: shift}
}

// dailyKey picks the queue for a daily slot on a date
func dailyKey(duty DutyID, shift int, scoreable bool) QueueKey {
	if scoreable {
		return QueueKey{Kind: QueueWeekend, DutyID: duty, Shift: shift}
	}
	return QueueKey{Kind: QueueDaily, DutyID: duty, Shift: shift}
}

// QueueEntry is the persisted state of one queue
type QueueEntry struct {
	Active    []EmployeeID
	NextRound []EmployeeID
}

// QueueState is the persisted state of every queue
type QueueState map[QueueKey]QueueEntry

// Clone deep-copies the state
func (s QueueState) Clone() QueueState {
	out := make(QueueState, len(s))
	for k, e := range s {
		out[k] = QueueEntry{
			Active:    slices.Clone(e.Active),
			NextRound: slices.Clone(e.NextRound),
		}
	}
	return out
}

// RotationQueues keeps one cyclic fairness queue per assignment category.
// Queues heal themselves against the current roster on every read.
type RotationQueues struct {
	state  QueueState
	roster []EmployeeID
	known  map[EmployeeID]bool
}

// NewRotationQueues copies state and binds it to a rank-ordered roster
func NewRotationQueues(state QueueState, roster []Employee) *RotationQueues {
	ranked := slices.Clone(roster)
	slices.SortStableFunc(ranked, func(a, b Employee) int {
		if a.Rank != b.Rank {
			return a.Rank - b.Rank
		}
		return int(a.ID) - int(b.ID)
	})
	q := &RotationQueues{
		state: state.Clone(),
		known: make(map[EmployeeID]bool, len(ranked)),
	}
	for _, e := range ranked {
		if q.known[e.ID] {
			continue
		}
		q.known[e.ID] = true
		q.roster = append(q.roster, e.ID)
	}
	return q
}

// Get heals the queue for key and returns its candidates: the active queue
// followed by the next-round queue, each employee listed once.
//
// Healing strips unknown and excluded employees, trims anyone holding more
// than the queue's multiplicity of turns (next-round tail first), appends any
// eligible employee holding too few, and promotes the next-round queue when
// the active queue has run dry.
func (q *RotationQueues) Get(key QueueKey, excluded map[EmployeeID]bool) []EmployeeID {
	entry := q.state[key]
	eligible := func(id EmployeeID) bool { return q.known[id] && !excluded[id] }

	active := slices.DeleteFunc(slices.Clone(entry.Active), func(id EmployeeID) bool { return !eligible(id) })
	next := slices.DeleteFunc(slices.Clone(entry.NextRound), func(id EmployeeID) bool { return !eligible(id) })

	mult := key.multiplicity()
	counts := make(map[EmployeeID]int)
	for _, id := range active {
		counts[id]++
	}
	for _, id := range next {
		counts[id]++
	}

	// Prune surplus turns, next-round tail first
	next = pruneTail(next, counts, mult)
	active = pruneTail(active, counts, mult)

	// Inflate anyone short of turns, one round at a time in rank order
	for round := 1; round <= mult; round++ {
		for _, id := range q.roster {
			if eligible(id) && counts[id] < round {
				active = append(active, id)
				counts[id]++
			}
		}
	}

	// Promote when the active queue is exhausted
	if len(active) == 0 {
		if len(next) > 0 {
			active = q.rankedRounds(next)
			next = nil
		} else {
			for round := 0; round < mult; round++ {
				for _, id := range q.roster {
					if eligible(id) {
						active = append(active, id)
					}
				}
			}
		}
	}

	q.state[key] = QueueEntry{Active: active, NextRound: next}

	seen := make(map[EmployeeID]bool, len(active))
	var candidates []EmployeeID
	for _, id := range slices.Concat(active, next) {
		if !seen[id] {
			seen[id] = true
			candidates = append(candidates, id)
		}
	}
	return candidates
}

func pruneTail(list []EmployeeID, counts map[EmployeeID]int, mult int) []EmployeeID {
	for i := len(list) - 1; i >= 0; i-- {
		id := list[i]
		if counts[id] > mult {
			counts[id]--
			list = slices.Delete(list, i, i+1)
		}
	}
	return list
}

// rankedRounds reorders turns by rank, one turn per employee per round
func (q *RotationQueues) rankedRounds(turns []EmployeeID) []EmployeeID {
	remaining := make(map[EmployeeID]int)
	for _, id := range turns {
		remaining[id]++
	}
	out := make([]EmployeeID, 0, len(turns))
	for len(out) < len(turns) {
		for _, id := range q.roster {
			if remaining[id] > 0 {
				remaining[id]--
				out = append(out, id)
			}
		}
	}
	return out
}

// Rotate uses up one of emp's turns and sends it to the back of the next round
func (q *RotationQueues) Rotate(key QueueKey, emp EmployeeID) {
	entry := q.state[key]
	if i := slices.Index(entry.Active, emp); i >= 0 {
		entry.Active = slices.Delete(slices.Clone(entry.Active), i, i+1)
	} else if i := slices.Index(entry.NextRound, emp); i >= 0 {
		entry.NextRound = slices.Delete(slices.Clone(entry.NextRound), i, i+1)
	}
	entry.NextRound = append(slices.Clone(entry.NextRound), emp)
	q.state[key] = entry
}

// Turns counts emp's remaining turns in the active queue
func (q *RotationQueues) Turns(key QueueKey, emp EmployeeID) int {
	n := 0
	for _, id := range q.state[key].Active {
		if id == emp {
			n++
		}
	}
	return n
}

// State returns a copy of every queue
func (q *RotationQueues) State() QueueState {
	return q.state.Clone()
}
