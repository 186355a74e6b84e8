package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Day builds a calendar date at UTC midnight
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

func dateKey(t time.Time) string {
	return t.Format(dateLayout)
}

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// monthStart returns the first day of the month `months` months before t
func monthStart(t time.Time, months int) time.Time {
	return Day(t.Year(), t.Month()-time.Month(months), 1)
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

// weekStart returns the most recent date on or before t that falls on anchor
func weekStart(t time.Time, anchor time.Weekday) time.Time {
	offset := (int(t.Weekday()) - int(anchor) + 7) % 7
	return addDays(t, -offset)
}

// DayMonth is a day of a month with no year
type DayMonth struct {
	Day   int
	Month time.Month
}

func (dm DayMonth) String() string {
	return fmt.Sprintf("%02d-%02d", dm.Day, int(dm.Month))
}

// in places the day-month in a year. Dates that do not exist in that year are rejected.
func (dm DayMonth) in(year int) (time.Time, bool) {
	if dm.Month < time.January || dm.Month > time.December || dm.Day < 1 {
		return time.Time{}, false
	}
	t := Day(year, dm.Month, dm.Day)
	if t.Month() != dm.Month {
		return time.Time{}, false
	}
	return t, true
}

// Period is a recurring seasonal window. A Period whose start falls after its
// end wraps the year boundary.
type Period struct {
	Start DayMonth
	End   DayMonth
}

// ParsePeriod reads a window from two "DD-MM" or "DD/MM" strings.
// Empty or malformed input returns nil, which matches every date.
func ParsePeriod(start, end string) *Period {
	s, ok := parseDayMonth(start)
	if !ok {
		return nil
	}
	e, ok := parseDayMonth(end)
	if !ok {
		return nil
	}
	return &Period{Start: s, End: e}
}

func parseDayMonth(s string) (DayMonth, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "/", "-"))
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return DayMonth{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return DayMonth{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DayMonth{}, false
	}
	return DayMonth{Day: day, Month: time.Month(month)}, true
}

func (p *Period) String() string {
	if p == nil {
		return "always"
	}
	return p.Start.String() + ".." + p.End.String()
}

// Contains reports whether date falls inside the window. Both ends are built in
// the date's own year; if either end does not exist in that year the window
// matches.
func (p *Period) Contains(date time.Time) bool {
	if p == nil {
		return true
	}
	start, ok := p.Start.in(date.Year())
	if !ok {
		return true
	}
	end, ok := p.End.in(date.Year())
	if !ok {
		return true
	}
	d := truncate(date)
	if !start.After(end) {
		return inRange(d, start, end)
	}
	return !d.Before(start) || !d.After(end)
}
