package scheduler

import "time"

type monthDay struct {
	month time.Month
	day   int
}

// SpecialDates holds holidays, either on an exact date or recurring every year
// on the same month and day. A nil *SpecialDates has no holidays.
type SpecialDates struct {
	exact     map[string]bool
	recurring map[monthDay]bool
}

// NewSpecialDates returns an empty holiday set
func NewSpecialDates() *SpecialDates {
	return &SpecialDates{
		exact:     make(map[string]bool),
		recurring: make(map[monthDay]bool),
	}
}

// AddExact marks a single date as a holiday
func (s *SpecialDates) AddExact(date time.Time) {
	s.exact[dateKey(date)] = true
}

// AddRecurring marks a month and day as a holiday in every year
func (s *SpecialDates) AddRecurring(month time.Month, day int) {
	s.recurring[monthDay{month: month, day: day}] = true
}

// IsHoliday reports whether date is a special date, exact or recurring
func (s *SpecialDates) IsHoliday(date time.Time) bool {
	if s == nil {
		return false
	}
	if s.exact[dateKey(date)] {
		return true
	}
	return s.recurring[monthDay{month: date.Month(), day: date.Day()}]
}

// IsScoreable reports whether working on date earns a weekend point:
// Saturdays, Sundays and holidays.
func (s *SpecialDates) IsScoreable(date time.Time) bool {
	return isWeekend(date) || s.IsHoliday(date)
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
