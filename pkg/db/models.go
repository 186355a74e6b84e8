package db

// Dates are stored and exchanged as "2006-01-02" strings.
const DateLayout = "2006-01-02"

// Employee represents a staff member who can be scheduled
type Employee struct {
	ID        int
	Name      string
	Surname   string
	Seniority int
}

// Duty represents a duty definition. ShiftConfig is persisted as JSON.
type Duty struct {
	ID           int
	Name         string
	ShiftsPerDay int
	IsWeekly     bool
	IsSpecial    bool
	IsOffBalance bool
	// ActiveStart and ActiveEnd are "DD-MM" bounds, empty when the duty is always active
	ActiveStart string
	ActiveEnd   string
	ShiftConfig []ShiftConfig
}

// ShiftConfig is the per-shift configuration stored with a duty
type ShiftConfig struct {
	IsOfficeHours     bool   `json:"is_office_hours,omitempty"`
	DefaultEmployeeID int    `json:"default_employee_id,omitempty"`
	WeekdaysOnly      bool   `json:"weekdays_only,omitempty"`
	ActiveStart       string `json:"active_start,omitempty"`
	ActiveEnd         string `json:"active_end,omitempty"`
	// WeeklyDayIndex is the first day of a weekly block, Monday = 0
	WeeklyDayIndex *int   `json:"weekly_day_index,omitempty"`
	SundayStart    string `json:"sunday_start,omitempty"`
	SundayEnd      string `json:"sunday_end,omitempty"`
	ExcludedIDs    []int  `json:"excluded_ids,omitempty"`
	// Handicaps maps employee id to starting points
	Handicaps map[int]int `json:"handicaps,omitempty"`
}

// ScheduleEntry represents one filled shift
type ScheduleEntry struct {
	Date           string
	DutyID         int
	ShiftIndex     int
	EmployeeID     int
	ManuallyLocked bool
}

// Unavailability represents a day an employee cannot work
type Unavailability struct {
	EmployeeID int
	Date       string
}

// SpecialDate represents a holiday. Recurring dates repeat every year on the same day and month.
type SpecialDate struct {
	Date        string
	Description string
	Recurring   bool
}

// QueueRow represents the persisted state of one rotation queue
type QueueRow struct {
	Key       string
	Active    []int
	NextRound []int
}

// RunLogLine is one line of a scheduler run log
type RunLogLine struct {
	Level   string `json:"level"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// ScheduleRun records a completed scheduler run
type ScheduleRun struct {
	ID        string
	Start     string
	End       string
	Seed      string
	Assigned  int
	Unfilled  int
	Log       []RunLogLine
	CreatedAt string
}
