package services

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// ErrInvalidRequest is wrapped by every input validation failure
var ErrInvalidRequest = errors.New("invalid request")

const monthLayout = "2006-01"

// monthRange resolves "YYYY-MM" bounds to the first day of the start month and
// the last day of the end month. An empty endMonth means the start month only.
func monthRange(startMonth, endMonth string) (time.Time, time.Time, error) {
	start, err := time.Parse(monthLayout, startMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start month %q must be YYYY-MM", ErrInvalidRequest, startMonth)
	}
	if endMonth == "" {
		endMonth = startMonth
	}
	endFirst, err := time.Parse(monthLayout, endMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end month %q must be YYYY-MM", ErrInvalidRequest, endMonth)
	}
	if endFirst.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end month %s is before start month %s", ErrInvalidRequest, endMonth, startMonth)
	}
	return start, endFirst.AddDate(0, 1, -1), nil
}

// optionalMonthRange is monthRange with both bounds optional. Zero times mean open bounds.
func optionalMonthRange(startMonth, endMonth string) (time.Time, time.Time, error) {
	var from, to time.Time
	if startMonth != "" {
		s, _, err := monthRange(startMonth, "")
		if err != nil {
			return from, to, err
		}
		from = s
	}
	if endMonth != "" {
		_, e, err := monthRange(endMonth, "")
		if err != nil {
			return from, to, err
		}
		to = e
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("%w: end month %s is before start month %s", ErrInvalidRequest, endMonth, startMonth)
	}
	return from, to, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(db.DateLayout)
}

func fullName(e db.Employee) string {
	return strings.TrimSpace(e.Name + " " + e.Surname)
}

func toEmployees(rows []db.Employee) []scheduler.Employee {
	out := make([]scheduler.Employee, 0, len(rows))
	for _, e := range rows {
		out = append(out, scheduler.Employee{
			ID:   scheduler.EmployeeID(e.ID),
			Name: fullName(e),
			Rank: e.Seniority,
		})
	}
	return out
}

func toDuties(rows []db.Duty) []scheduler.Duty {
	out := make([]scheduler.Duty, 0, len(rows))
	for _, d := range rows {
		duty := scheduler.Duty{
			ID:           scheduler.DutyID(d.ID),
			Name:         d.Name,
			ShiftsPerDay: d.ShiftsPerDay,
			Weekly:       d.IsWeekly,
			Special:      d.IsSpecial,
			OffBalance:   d.IsOffBalance,
			ActiveRange:  scheduler.ParsePeriod(d.ActiveStart, d.ActiveEnd),
		}
		for _, c := range d.ShiftConfig {
			duty.Shifts = append(duty.Shifts, toShiftConfig(c, d.IsWeekly))
		}
		out = append(out, duty)
	}
	return out
}

// weekdayFromIndex maps a Monday-first day index to a time.Weekday
func weekdayFromIndex(idx int) time.Weekday {
	return time.Weekday((idx%7 + 7 + 1) % 7)
}

func toShiftConfig(c db.ShiftConfig, weekly bool) scheduler.ShiftConfig {
	cfg := scheduler.ShiftConfig{
		ActiveRange: scheduler.ParsePeriod(c.ActiveStart, c.ActiveEnd),
	}
	if c.IsOfficeHours {
		cfg.OfficeHours = &scheduler.OfficeHours{
			Default:      scheduler.EmployeeID(c.DefaultEmployeeID),
			WeekdaysOnly: c.WeekdaysOnly,
		}
	}
	if weekly {
		ws := &scheduler.WeeklyShift{
			DayIndex:          time.Monday,
			SundayActiveRange: scheduler.ParsePeriod(c.SundayStart, c.SundayEnd),
		}
		if c.WeeklyDayIndex != nil {
			ws.DayIndex = weekdayFromIndex(*c.WeeklyDayIndex)
		}
		cfg.Weekly = ws
	}
	if len(c.ExcludedIDs) > 0 {
		cfg.Excluded = make(map[scheduler.EmployeeID]bool, len(c.ExcludedIDs))
		for _, id := range c.ExcludedIDs {
			cfg.Excluded[scheduler.EmployeeID(id)] = true
		}
	}
	if len(c.Handicaps) > 0 {
		cfg.Handicaps = make(map[scheduler.EmployeeID]int, len(c.Handicaps))
		for id, pts := range c.Handicaps {
			cfg.Handicaps[scheduler.EmployeeID(id)] = pts
		}
	}
	return cfg
}

func toAssignments(rows []db.ScheduleEntry) ([]scheduler.Assignment, error) {
	out := make([]scheduler.Assignment, 0, len(rows))
	for _, e := range rows {
		date, err := scheduler.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("schedule entry for duty %d: %w", e.DutyID, err)
		}
		out = append(out, scheduler.Assignment{
			Date:           date,
			DutyID:         scheduler.DutyID(e.DutyID),
			Shift:          e.ShiftIndex,
			EmployeeID:     scheduler.EmployeeID(e.EmployeeID),
			ManuallyLocked: e.ManuallyLocked,
		})
	}
	return out, nil
}

func fromAssignments(in []scheduler.Assignment) []db.ScheduleEntry {
	out := make([]db.ScheduleEntry, 0, len(in))
	for _, a := range in {
		out = append(out, db.ScheduleEntry{
			Date:           a.Date.Format(db.DateLayout),
			DutyID:         int(a.DutyID),
			ShiftIndex:     a.Shift,
			EmployeeID:     int(a.EmployeeID),
			ManuallyLocked: a.ManuallyLocked,
		})
	}
	return out
}

func toUnavailability(rows []db.Unavailability) ([]scheduler.Unavailability, error) {
	out := make([]scheduler.Unavailability, 0, len(rows))
	for _, u := range rows {
		date, err := scheduler.ParseDate(u.Date)
		if err != nil {
			return nil, fmt.Errorf("unavailability of employee %d: %w", u.EmployeeID, err)
		}
		out = append(out, scheduler.Unavailability{EmployeeID: scheduler.EmployeeID(u.EmployeeID), Date: date})
	}
	return out, nil
}

// toSpecialDates builds the holiday set from stored dates
func toSpecialDates(rows []db.SpecialDate) (*scheduler.SpecialDates, error) {
	special := scheduler.NewSpecialDates()
	for _, s := range rows {
		date, err := scheduler.ParseDate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("special date %q: %w", s.Description, err)
		}
		if s.Recurring {
			special.AddRecurring(date.Month(), date.Day())
		} else {
			special.AddExact(date)
		}
	}
	return special, nil
}

func toDoubleDuty(prefs map[int]bool) map[scheduler.EmployeeID]bool {
	out := make(map[scheduler.EmployeeID]bool, len(prefs))
	for id, ok := range prefs {
		if ok {
			out[scheduler.EmployeeID(id)] = true
		}
	}
	return out
}

func toEmployeeIDs(ids []int) []scheduler.EmployeeID {
	out := make([]scheduler.EmployeeID, len(ids))
	for i, id := range ids {
		out[i] = scheduler.EmployeeID(id)
	}
	return out
}

func fromEmployeeIDs(ids []scheduler.EmployeeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// toQueueState decodes stored queues. Rows with unreadable keys are skipped and
// returned so the caller can log them.
func toQueueState(rows []db.QueueRow) (scheduler.QueueState, []string) {
	state := make(scheduler.QueueState, len(rows))
	var skipped []string
	for _, row := range rows {
		key, err := scheduler.ParseQueueKey(row.Key)
		if err != nil {
			skipped = append(skipped, row.Key)
			continue
		}
		state[key] = scheduler.QueueEntry{
			Active:    toEmployeeIDs(row.Active),
			NextRound: toEmployeeIDs(row.NextRound),
		}
	}
	return state, skipped
}

func fromQueueState(state scheduler.QueueState) []db.QueueRow {
	out := make([]db.QueueRow, 0, len(state))
	for key, entry := range state {
		out = append(out, db.QueueRow{
			Key:       key.String(),
			Active:    fromEmployeeIDs(entry.Active),
			NextRound: fromEmployeeIDs(entry.NextRound),
		})
	}
	slices.SortFunc(out, func(a, b db.QueueRow) int { return strings.Compare(a.Key, b.Key) })
	return out
}

func fromLog(entries []scheduler.LogEntry) []db.RunLogLine {
	out := make([]db.RunLogLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, db.RunLogLine{Level: string(e.Level), Phase: e.Phase, Message: e.Message})
	}
	return out
}
