package api

import (
	"github.com/jakechorley/duty-scheduler/pkg/core/scheduler"
	"github.com/jakechorley/duty-scheduler/pkg/core/services"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// GenerateRequest is the body of POST /api/schedule/generate
type GenerateRequest struct {
	StartMonth string  `json:"start_month" validate:"required"`
	EndMonth   string  `json:"end_month,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
	DryRun     bool    `json:"dry_run"`
}

// PublishRequest is the body of POST /api/schedule/publish
type PublishRequest struct {
	StartMonth string `json:"start_month" validate:"required"`
	EndMonth   string `json:"end_month,omitempty"`
}

// PreferenceRequest is the body of PUT /api/employees/{id}/preferences
type PreferenceRequest struct {
	DoubleDuty *bool `json:"double_duty" validate:"required"`
}

// SpecialDateDTO is a holiday on the wire
type SpecialDateDTO struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
}

// AssignmentDTO is one filled shift
type AssignmentDTO struct {
	Date           string `json:"date"`
	DutyID         int    `json:"duty_id"`
	Shift          int    `json:"shift"`
	EmployeeID     int    `json:"employee_id"`
	ManuallyLocked bool   `json:"manually_locked,omitempty"`
}

// StatsDTO summarises a run
type StatsDTO struct {
	Assigned    int            `json:"assigned"`
	Unfilled    int            `json:"unfilled"`
	Swaps       map[string]int `json:"swaps"`
	Stagnations []string       `json:"stagnations"`
}

// GenerateResponse is returned by POST /api/schedule/generate
type GenerateResponse struct {
	RunID       string               `json:"run_id"`
	Start       string               `json:"start"`
	End         string               `json:"end"`
	Seed        uint64               `json:"seed"`
	Saved       bool                 `json:"saved"`
	Assignments []AssignmentDTO      `json:"assignments"`
	Log         []scheduler.LogEntry `json:"log"`
	Stats       StatsDTO             `json:"stats"`
}

// PublishResponse is returned by POST /api/schedule/publish
type PublishResponse struct {
	Tab     string     `json:"tab"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toGenerateResponse(r *services.GenerateResult) GenerateResponse {
	out := GenerateResponse{
		RunID:       r.RunID,
		Start:       r.Start,
		End:         r.End,
		Seed:        r.Seed,
		Saved:       r.Saved,
		Assignments: make([]AssignmentDTO, 0, len(r.Assignments)),
		Log:         r.Log,
		Stats: StatsDTO{
			Assigned:    r.Stats.Assigned,
			Unfilled:    r.Stats.Unfilled,
			Swaps:       r.Stats.Swaps,
			Stagnations: r.Stats.Stagnations,
		},
	}
	if out.Log == nil {
		out.Log = []scheduler.LogEntry{}
	}
	if out.Stats.Stagnations == nil {
		out.Stats.Stagnations = []string{}
	}
	for _, e := range r.Assignments {
		out.Assignments = append(out.Assignments, AssignmentDTO{
			Date:           e.Date,
			DutyID:         e.DutyID,
			Shift:          e.ShiftIndex,
			EmployeeID:     e.EmployeeID,
			ManuallyLocked: e.ManuallyLocked,
		})
	}
	return out
}

func toSpecialDateDTOs(rows []db.SpecialDate) []SpecialDateDTO {
	out := make([]SpecialDateDTO, 0, len(rows))
	for _, s := range rows {
		out = append(out, SpecialDateDTO{Date: s.Date, Description: s.Description, Recurring: s.Recurring})
	}
	return out
}

// RunDTO is a stored scheduler run
type RunDTO struct {
	ID        string          `json:"id"`
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Seed      string          `json:"seed"`
	Assigned  int             `json:"assigned"`
	Unfilled  int             `json:"unfilled"`
	Log       []db.RunLogLine `json:"log"`
	CreatedAt string          `json:"created_at"`
}

func toRunDTOs(runs []db.ScheduleRun) []RunDTO {
	out := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunDTO{
			ID:        run.ID,
			Start:     run.Start,
			End:       run.End,
			Seed:      run.Seed,
			Assigned:  run.Assigned,
			Unfilled:  run.Unfilled,
			Log:       run.Log,
			CreatedAt: run.CreatedAt,
		})
	}
	return out
}
