package scheduler

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// EmployeeID identifies a roster member. Zero means "nobody".
type EmployeeID int

// DutyID identifies a duty in the catalog
type DutyID int

// Employee is a schedulable roster member
type Employee struct {
	ID   EmployeeID
	Name string
	// Rank is the initial queue order and the default tie-break between employees
	Rank int
}

// DutyCategory decides which assignment phase and which fairness pool a duty belongs to
type DutyCategory int

const (
	CategoryDaily DutyCategory = iota
	CategoryWeekly
	CategoryOffBalance
	CategorySpecial
)

func (c DutyCategory) String() string {
	switch c {
	case CategoryWeekly:
		return "weekly"
	case CategoryOffBalance:
		return "off-balance"
	case CategorySpecial:
		return "special"
	default:
		return "daily"
	}
}

// Duty is a recurring job that needs ShiftsPerDay people per active day
type Duty struct {
	ID           DutyID
	Name         string
	ShiftsPerDay int

	// Weekly duties are held by one employee for a whole week block
	Weekly bool
	// Special duties are one-off events, never auto-assigned and never scored
	Special bool
	// OffBalance duties are assigned and balanced in their own pool
	OffBalance bool

	// ActiveRange limits the whole duty to a seasonal window. Nil means always active.
	ActiveRange *Period

	Shifts []ShiftConfig
}

// Category returns the duty's category. Special wins over off-balance, which wins over weekly.
func (d *Duty) Category() DutyCategory {
	switch {
	case d.Special:
		return CategorySpecial
	case d.OffBalance:
		return CategoryOffBalance
	case d.Weekly:
		return CategoryWeekly
	default:
		return CategoryDaily
	}
}

// Counted reports whether the duty takes part in the main fairness pool and in busy checks
func (d *Duty) Counted() bool {
	return !d.Special && !d.OffBalance
}

// Normalize pads Shifts so every shift index below ShiftsPerDay has a config
func (d *Duty) Normalize() {
	if d.ShiftsPerDay < 1 {
		d.ShiftsPerDay = 1
	}
	for len(d.Shifts) < d.ShiftsPerDay {
		d.Shifts = append(d.Shifts, ShiftConfig{})
	}
}

// Shift returns the config for a shift index, or an empty config for unknown indices
func (d *Duty) Shift(i int) ShiftConfig {
	if i < 0 || i >= len(d.Shifts) {
		return ShiftConfig{}
	}
	return d.Shifts[i]
}

// ShiftConfig describes one shift of a duty. OfficeHours and Weekly are only set
// for shifts of that kind.
type ShiftConfig struct {
	OfficeHours *OfficeHours
	Weekly      *WeeklyShift
	ActiveRange *Period
	Excluded    map[EmployeeID]bool
	Handicaps   map[EmployeeID]int
}

// OfficeHours marks a shift normally held by a fixed default owner
type OfficeHours struct {
	Default EmployeeID
	// WeekdaysOnly hands weekend and holiday dates to cover instead of the default owner
	WeekdaysOnly bool
}

// WeeklyShift holds the week-block settings of a weekly duty's shift
type WeeklyShift struct {
	// DayIndex is the weekday a week block starts on
	DayIndex time.Weekday
	// SundayActiveRange limits the Sundays the weekly holder works. Nil means every Sunday.
	SundayActiveRange *Period
}

func (c ShiftConfig) weekAnchor() time.Weekday {
	if c.Weekly == nil {
		return time.Monday
	}
	return c.Weekly.DayIndex
}

func (c ShiftConfig) worksSunday(date time.Time) bool {
	if c.Weekly == nil {
		return true
	}
	return c.Weekly.SundayActiveRange.Contains(date)
}

// Assignment places one employee on one shift of one duty on one date
type Assignment struct {
	Date           time.Time
	DutyID         DutyID
	Shift          int
	EmployeeID     EmployeeID
	ManuallyLocked bool
}

// Unavailability marks a date an employee cannot work
type Unavailability struct {
	EmployeeID EmployeeID
	Date       time.Time
}

// Input is everything a scheduling run needs
type Input struct {
	Start, End time.Time

	Employees []Employee
	Duties    []Duty

	// Existing holds history and any stored entries inside the range.
	// Only manually locked entries inside the range survive a run.
	Existing []Assignment

	Unavailability []Unavailability
	SpecialDates   *SpecialDates
	DoubleDuty     map[EmployeeID]bool
	Queues         QueueState
}

// Options tunes a run. Zero values fall back to DefaultOptions.
type Options struct {
	Rand   *rand.Rand
	Logger *zap.Logger

	GeneralTolerance     int
	HolidayTolerance     int
	WeekendTolerance     int
	MaxBalanceIterations int
	MaxPoolIterations    int
	StagnationLimit      int
	LookbackMonths       int
	WeekendWindowMonths  int
}

// DefaultOptions returns the stock tolerances and iteration caps
func DefaultOptions() Options {
	return Options{
		GeneralTolerance:     1,
		HolidayTolerance:     1,
		WeekendTolerance:     2,
		MaxBalanceIterations: 500,
		MaxPoolIterations:    200,
		StagnationLimit:      2,
		LookbackMonths:       2,
		WeekendWindowMonths:  5,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	fill := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&o.GeneralTolerance, def.GeneralTolerance)
	fill(&o.HolidayTolerance, def.HolidayTolerance)
	fill(&o.WeekendTolerance, def.WeekendTolerance)
	fill(&o.MaxBalanceIterations, def.MaxBalanceIterations)
	fill(&o.MaxPoolIterations, def.MaxPoolIterations)
	fill(&o.StagnationLimit, def.StagnationLimit)
	fill(&o.LookbackMonths, def.LookbackMonths)
	fill(&o.WeekendWindowMonths, def.WeekendWindowMonths)
	if o.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		o.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Stats summarises what a run did
type Stats struct {
	Assigned    int
	Unfilled    int
	Swaps       map[string]int
	Stagnations []string
}

// Result is the output of a run
type Result struct {
	// Assignments covers the whole range, locked entries included, ordered by date, duty and shift
	Assignments []Assignment
	Queues      QueueState
	Log         []LogEntry
	Stats       Stats
}
