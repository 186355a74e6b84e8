package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakechorley/duty-scheduler/pkg/db"
)

const foreignKeyViolation = "23503"

// ListEmployees retrieves all employees ordered by seniority
func (d *DB) ListEmployees(ctx context.Context) ([]db.Employee, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, surname, seniority
		FROM employees
		ORDER BY seniority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []db.Employee
	for rows.Next() {
		var e db.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Surname, &e.Seniority); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}
	return employees, nil
}

// ListDuties retrieves all duties with their shift configuration
func (d *DB) ListDuties(ctx context.Context) ([]db.Duty, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, shifts_per_day, is_weekly, is_special, is_off_balance,
		       active_start, active_end, shift_config
		FROM duties
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duties: %w", err)
	}
	defer rows.Close()

	var duties []db.Duty
	for rows.Next() {
		var duty db.Duty
		var activeStart, activeEnd *string
		var shiftConfig []byte
		if err := rows.Scan(&duty.ID, &duty.Name, &duty.ShiftsPerDay, &duty.IsWeekly, &duty.IsSpecial,
			&duty.IsOffBalance, &activeStart, &activeEnd, &shiftConfig); err != nil {
			return nil, fmt.Errorf("failed to scan duty: %w", err)
		}
		if activeStart != nil {
			duty.ActiveStart = *activeStart
		}
		if activeEnd != nil {
			duty.ActiveEnd = *activeEnd
		}
		if len(shiftConfig) > 0 {
			if err := json.Unmarshal(shiftConfig, &duty.ShiftConfig); err != nil {
				return nil, fmt.Errorf("failed to decode shift_config of duty %d: %w", duty.ID, err)
			}
		}
		duties = append(duties, duty)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating duties: %w", err)
	}
	return duties, nil
}

// ListUnavailability retrieves unavailability records between from and to.
// Empty bounds are open.
func (d *DB) ListUnavailability(ctx context.Context, from, to string) ([]db.Unavailability, error) {
	where, args := dateBounds("date", from, to)
	rows, err := d.pool.Query(ctx, `SELECT employee_id, date FROM unavailability`+where+` ORDER BY date, employee_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unavailability: %w", err)
	}
	defer rows.Close()

	var out []db.Unavailability
	for rows.Next() {
		var u db.Unavailability
		var date time.Time
		if err := rows.Scan(&u.EmployeeID, &date); err != nil {
			return nil, fmt.Errorf("failed to scan unavailability: %w", err)
		}
		u.Date = date.Format(db.DateLayout)
		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unavailability: %w", err)
	}
	return out, nil
}

// ListDoubleDutyPreferences returns the employees who opted into double duty
func (d *DB) ListDoubleDutyPreferences(ctx context.Context) (map[int]bool, error) {
	rows, err := d.pool.Query(ctx, `SELECT user_id FROM user_preferences WHERE prefer_double_duty`)
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

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating preferences: %w", err)
	}
	return prefs, nil
}

// SetDoubleDutyPreference stores an employee's standing double-duty preference
func (d *DB) SetDoubleDutyPreference(ctx context.Context, employeeID int, prefer bool) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO user_preferences (user_id, prefer_double_duty)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET prefer_double_duty = EXCLUDED.prefer_double_duty
	`, employeeID, prefer)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("employee %d: %w", employeeID, db.ErrNotFound)
		}
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// ListSpecialDates retrieves all holidays
func (d *DB) ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error) {
	rows, err := d.pool.Query(ctx, `SELECT date, description, recurring FROM special_dates ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("failed to query special dates: %w", err)
	}
	defer rows.Close()

	var out []db.SpecialDate
	for rows.Next() {
		var s db.SpecialDate
		var date time.Time
		if err := rows.Scan(&date, &s.Description, &s.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan special date: %w", err)
		}
		s.Date = date.Format(db.DateLayout)
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating special dates: %w", err)
	}
	return out, nil
}

// InsertSpecialDate adds a holiday, replacing any existing one on the same date
func (d *DB) InsertSpecialDate(ctx context.Context, s db.SpecialDate) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO special_dates (date, description, recurring)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO UPDATE SET description = EXCLUDED.description, recurring = EXCLUDED.recurring
	`, s.Date, s.Description, s.Recurring)
	if err != nil {
		return fmt.Errorf("failed to insert special date: %w", err)
	}
	return nil
}

// dateBounds builds a WHERE clause restricting col to [from, to]. Empty bounds are skipped.
func dateBounds(col, from, to string) (string, []any) {
	var conds []string
	var args []any
	if from != "" {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("%s >= $%d", col, len(args)))
	}
	if to != "" {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("%s <= $%d", col, len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
