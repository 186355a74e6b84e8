package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// ListScheduleEntries retrieves schedule entries between from and to. Empty bounds are open.
func (d *DB) ListScheduleEntries(ctx context.Context, from, to string) ([]db.ScheduleEntry, error) {
	where, args := dateBounds("date", from, to)
	rows, err := d.pool.Query(ctx, `
		SELECT date, duty_id, shift_index, employee_id, manually_locked
		FROM schedule`+where+`
		ORDER BY date, duty_id, shift_index
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var entries []db.ScheduleEntry
	for rows.Next() {
		var e db.ScheduleEntry
		var date time.Time
		if err := rows.Scan(&date, &e.DutyID, &e.ShiftIndex, &e.EmployeeID, &e.ManuallyLocked); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		e.Date = date.Format(db.DateLayout)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedule: %w", err)
	}
	return entries, nil
}

// GetQueueState retrieves every persisted rotation queue
func (d *DB) GetQueueState(ctx context.Context) ([]db.QueueRow, error) {
	rows, err := d.pool.Query(ctx, `SELECT queue_key, active, next_round FROM scheduler_queues ORDER BY queue_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue state: %w", err)
	}
	defer rows.Close()

	var out []db.QueueRow
	for rows.Next() {
		var q db.QueueRow
		var active, next []byte
		if err := rows.Scan(&q.Key, &active, &next); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		if err := json.Unmarshal(active, &q.Active); err != nil {
			return nil, fmt.Errorf("failed to decode queue %s: %w", q.Key, err)
		}
		if err := json.Unmarshal(next, &q.NextRound); err != nil {
			return nil, fmt.Errorf("failed to decode queue %s: %w", q.Key, err)
		}
		out = append(out, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queues: %w", err)
	}
	return out, nil
}

// SaveSchedule replaces the unlocked entries in the run's range, stores the
// queue state and records the run, all in one transaction. Locked entries
// already in the table win over incoming rows for the same slot.
func (d *DB) SaveSchedule(ctx context.Context, run db.ScheduleRun, entries []db.ScheduleEntry, queues []db.QueueRow) error {
	logJSON, err := json.Marshal(run.Log)
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM schedule
		WHERE date >= $1 AND date <= $2 AND NOT manually_locked
	`, run.Start, run.End); err != nil {
		return fmt.Errorf("failed to clear schedule range: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO schedule (date, duty_id, shift_index, employee_id, manually_locked)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (date, duty_id, shift_index) DO NOTHING
		`, e.Date, e.DutyID, e.ShiftIndex, e.EmployeeID, e.ManuallyLocked); err != nil {
			return fmt.Errorf("failed to insert schedule entry %s/%d/%d: %w", e.Date, e.DutyID, e.ShiftIndex, err)
		}
	}

	for _, q := range queues {
		active, err := json.Marshal(nonNil(q.Active))
		if err != nil {
			return fmt.Errorf("failed to encode queue %s: %w", q.Key, err)
		}
		next, err := json.Marshal(nonNil(q.NextRound))
		if err != nil {
			return fmt.Errorf("failed to encode queue %s: %w", q.Key, err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO scheduler_queues (queue_key, active, next_round)
			VALUES ($1, $2, $3)
			ON CONFLICT (queue_key) DO UPDATE SET active = EXCLUDED.active, next_round = EXCLUDED.next_round
		`, q.Key, string(active), string(next)); err != nil {
			return fmt.Errorf("failed to save queue %s: %w", q.Key, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO schedule_runs (id, range_start, range_end, seed, assigned, unfilled, log)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Start, run.End, run.Seed, run.Assigned, run.Unfilled, string(logJSON)); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListScheduleRuns retrieves run records, newest first
func (d *DB) ListScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, range_start, range_end, seed, assigned, unfilled, log, created_at
		FROM schedule_runs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []db.ScheduleRun
	for rows.Next() {
		var r db.ScheduleRun
		var start, end, created time.Time
		var logJSON []byte
		if err := rows.Scan(&r.ID, &start, &end, &r.Seed, &r.Assigned, &r.Unfilled, &logJSON, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal(logJSON, &r.Log); err != nil {
			return nil, fmt.Errorf("failed to decode log of run %s: %w", r.ID, err)
		}
		r.Start = start.Format(db.DateLayout)
		r.End = end.Format(db.DateLayout)
		r.CreatedAt = created.UTC().Format(time.RFC3339)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
