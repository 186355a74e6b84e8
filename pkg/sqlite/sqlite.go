// Package sqlite provides a SQLite-backed implementation of db.Database.
//
// It mirrors the PostgreSQL schema with TEXT dates ("2006-01-02") and TEXT
// JSON columns, and is meant for local runs and tests. The schema is applied
// on New.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// Store implements db.Database using SQLite
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ db.Database = (*Store)(nil)

// New opens a SQLite store at dbPath. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	conn.SetMaxOpenConns(1)

	s := &Store{db: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL DEFAULT '',
		seniority INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS duties (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		shifts_per_day INTEGER NOT NULL DEFAULT 1,
		is_weekly INTEGER NOT NULL DEFAULT 0,
		is_special INTEGER NOT NULL DEFAULT 0,
		is_off_balance INTEGER NOT NULL DEFAULT 0,
		active_start TEXT NOT NULL DEFAULT '',
		active_end TEXT NOT NULL DEFAULT '',
		shift_config TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS schedule (
		date TEXT NOT NULL,
		duty_id INTEGER NOT NULL REFERENCES duties(id) ON DELETE CASCADE,
		shift_index INTEGER NOT NULL DEFAULT 0,
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		manually_locked INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, duty_id, shift_index)
	);

	CREATE INDEX IF NOT EXISTS idx_schedule_employee_date ON schedule (employee_id, date);

	CREATE TABLE IF NOT EXISTS unavailability (
		employee_id INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS special_dates (
		date TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		recurring INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY REFERENCES employees(id) ON DELETE CASCADE,
		prefer_double_duty INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scheduler_queues (
		queue_key TEXT PRIMARY KEY,
		active TEXT NOT NULL DEFAULT '[]',
		next_round TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS schedule_runs (
		id TEXT PRIMARY KEY,
		range_start TEXT NOT NULL,
		range_end TEXT NOT NULL,
		seed TEXT NOT NULL DEFAULT '',
		assigned INTEGER NOT NULL,
		unfilled INTEGER NOT NULL,
		log TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ROSTER
// =============================================================================

// SaveEmployee inserts or replaces an employee
func (s *Store) SaveEmployee(ctx context.Context, e db.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, surname, seniority) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, surname = excluded.surname, seniority = excluded.seniority
	`, e.ID, e.Name, e.Surname, e.Seniority)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// ListEmployees retrieves all employees ordered by seniority
func (s *Store) ListEmployees(ctx context.Context) ([]db.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, surname, seniority FROM employees ORDER BY seniority, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []db.Employee
	for rows.Next() {
		var e db.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Surname, &e.Seniority); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveDuty inserts or replaces a duty
func (s *Store) SaveDuty(ctx context.Context, d db.Duty) error {
	cfg, err := json.Marshal(d.ShiftConfig)
	if err != nil {
		return fmt.Errorf("failed to encode shift_config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO duties
			(id, name, shifts_per_day, is_weekly, is_special, is_off_balance, active_start, active_end, shift_config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Name, d.ShiftsPerDay, d.IsWeekly, d.IsSpecial, d.IsOffBalance, d.ActiveStart, d.ActiveEnd, string(cfg))
	if err != nil {
		return fmt.Errorf("failed to save duty: %w", err)
	}
	return nil
}

// ListDuties retrieves all duties with their shift configuration
func (s *Store) ListDuties(ctx context.Context) ([]db.Duty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, shifts_per_day, is_weekly, is_special, is_off_balance, active_start, active_end, shift_config
		FROM duties ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duties: %w", err)
	}
	defer rows.Close()

	var out []db.Duty
	for rows.Next() {
		var d db.Duty
		var cfg string
		if err := rows.Scan(&d.ID, &d.Name, &d.ShiftsPerDay, &d.IsWeekly, &d.IsSpecial, &d.IsOffBalance,
			&d.ActiveStart, &d.ActiveEnd, &cfg); err != nil {
			return nil, fmt.Errorf("failed to scan duty: %w", err)
		}
		if err := json.Unmarshal([]byte(cfg), &d.ShiftConfig); err != nil {
			return nil, fmt.Errorf("failed to decode shift_config of duty %d: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AddUnavailability records a day an employee cannot work
func (s *Store) AddUnavailability(ctx context.Context, u db.Unavailability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO unavailability (employee_id, date) VALUES (?, ?)`, u.EmployeeID, u.Date)
	if err != nil {
		return fmt.Errorf("failed to add unavailability: %w", err)
	}
	return nil
}

// ListUnavailability retrieves unavailability between from and to. Empty bounds are open.
func (s *Store) ListUnavailability(ctx context.Context, from, to string) ([]db.Unavailability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := dateBounds("date", from, to)
	rows, err := s.db.QueryContext(ctx, `SELECT employee_id, date FROM unavailability`+where+` ORDER BY date, employee_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailability: %w", err)
	}
	defer rows.Close()

	var out []db.Unavailability
	for rows.Next() {
		var u db.Unavailability
		if err := rows.Scan(&u.EmployeeID, &u.Date); err != nil {
			return nil, fmt.Errorf("failed to scan unavailability: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListDoubleDutyPreferences returns the employees who opted into double duty
func (s *Store) ListDoubleDutyPreferences(ctx context.Context) (map[int]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM user_preferences WHERE prefer_double_duty = 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[id] = true
	}
	return prefs, rows.Err()
}

// SetDoubleDutyPreference stores an employee's standing double-duty preference
func (s *Store) SetDoubleDutyPreference(ctx context.Context, employeeID int, prefer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees WHERE id = ?`, employeeID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("employee %d: %w", employeeID, db.ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, prefer_double_duty) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET prefer_double_duty = excluded.prefer_double_duty
	`, employeeID, prefer)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// ListSpecialDates retrieves all holidays
func (s *Store) ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT date, description, recurring FROM special_dates ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query special dates: %w", err)
	}
	defer rows.Close()

	var out []db.SpecialDate
	for rows.Next() {
		var sd db.SpecialDate
		if err := rows.Scan(&sd.Date, &sd.Description, &sd.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan special date: %w", err)
		}
		out = append(out, sd)
	}
	return out, rows.Err()
}

// InsertSpecialDate adds a holiday, replacing any existing one on the same date
func (s *Store) InsertSpecialDate(ctx context.Context, sd db.SpecialDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO special_dates (date, description, recurring) VALUES (?, ?, ?)
	`, sd.Date, sd.Description, sd.Recurring)
	if err != nil {
		return fmt.Errorf("failed to insert special date: %w", err)
	}
	return nil
}

// =============================================================================
// SCHEDULE
// =============================================================================

// ListScheduleEntries retrieves schedule entries between from and to. Empty bounds are open.
func (s *Store) ListScheduleEntries(ctx context.Context, from, to string) ([]db.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := dateBounds("date", from, to)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, duty_id, shift_index, employee_id, manually_locked
		FROM schedule`+where+` ORDER BY date, duty_id, shift_index`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule: %w", err)
	}
	defer rows.Close()

	var out []db.ScheduleEntry
	for rows.Next() {
		var e db.ScheduleEntry
		if err := rows.Scan(&e.Date, &e.DutyID, &e.ShiftIndex, &e.EmployeeID, &e.ManuallyLocked); err != nil {
			return nil, fmt.Errorf("failed to scan schedule entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetQueueState retrieves every persisted rotation queue
func (s *Store) GetQueueState(ctx context.Context) ([]db.QueueRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT queue_key, active, next_round FROM scheduler_queues ORDER BY queue_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue state: %w", err)
	}
	defer rows.Close()

	var out []db.QueueRow
	for rows.Next() {
		var q db.QueueRow
		var active, next string
		if err := rows.Scan(&q.Key, &active, &next); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		if err := json.Unmarshal([]byte(active), &q.Active); err != nil {
			return nil, fmt.Errorf("failed to decode queue %s: %w", q.Key, err)
		}
		if err := json.Unmarshal([]byte(next), &q.NextRound); err != nil {
			return nil, fmt.Errorf("failed to decode queue %s: %w", q.Key, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// SaveScheduleEntry inserts or replaces a single entry, typically a manually locked one
func (s *Store) SaveScheduleEntry(ctx context.Context, e db.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO schedule (date, duty_id, shift_index, employee_id, manually_locked)
		VALUES (?, ?, ?, ?, ?)
	`, e.Date, e.DutyID, e.ShiftIndex, e.EmployeeID, e.ManuallyLocked)
	if err != nil {
		return fmt.Errorf("failed to save schedule entry: %w", err)
	}
	return nil
}

// SaveSchedule replaces the unlocked entries in the run's range, stores the
// queue state and records the run in one transaction. Locked rows already in
// the table win over incoming rows for the same slot.
func (s *Store) SaveSchedule(ctx context.Context, run db.ScheduleRun, entries []db.ScheduleEntry, queues []db.QueueRow) error {
	logJSON, err := json.Marshal(run.Log)
	if err != nil {
		return fmt.Errorf("failed to encode run log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM schedule WHERE date >= ? AND date <= ? AND manually_locked = 0
	`, run.Start, run.End); err != nil {
		return fmt.Errorf("failed to clear schedule range: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO schedule (date, duty_id, shift_index, employee_id, manually_locked)
			VALUES (?, ?, ?, ?, ?)
		`, e.Date, e.DutyID, e.ShiftIndex, e.EmployeeID, e.ManuallyLocked); err != nil {
			return fmt.Errorf("failed to insert schedule entry %s/%d/%d: %w", e.Date, e.DutyID, e.ShiftIndex, err)
		}
	}

	for _, q := range queues {
		active, _ := json.Marshal(nonNil(q.Active))
		next, _ := json.Marshal(nonNil(q.NextRound))
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO scheduler_queues (queue_key, active, next_round) VALUES (?, ?, ?)
			ON CONFLICT (queue_key) DO UPDATE SET active = excluded.active, next_round = excluded.next_round
		`, q.Key, string(active), string(next)); err != nil {
			return fmt.Errorf("failed to save queue %s: %w", q.Key, err)
		}
	}

	createdAt := run.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schedule_runs (id, range_start, range_end, seed, assigned, unfilled, log, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Start, run.End, run.Seed, run.Assigned, run.Unfilled, string(logJSON), createdAt); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListScheduleRuns retrieves run records, newest first
func (s *Store) ListScheduleRuns(ctx context.Context) ([]db.ScheduleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, range_start, range_end, seed, assigned, unfilled, log, created_at
		FROM schedule_runs ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []db.ScheduleRun
	for rows.Next() {
		var r db.ScheduleRun
		var logJSON string
		if err := rows.Scan(&r.ID, &r.Start, &r.End, &r.Seed, &r.Assigned, &r.Unfilled, &logJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(logJSON), &r.Log); err != nil {
			return nil, fmt.Errorf("failed to decode log of run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func dateBounds(col, from, to string) (string, []any) {
	var conds []string
	var args []any
	if from != "" {
		conds = append(conds, col+" >= ?")
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, col+" <= ?")
		args = append(args, to)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
