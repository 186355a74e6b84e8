package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a referenced row does not exist
var ErrNotFound = errors.New("not found")

// ScheduleStore defines the operations needed to read and write schedules
type ScheduleStore interface {
	ListEmployees(ctx context.Context) ([]Employee, error)
	ListDuties(ctx context.Context) ([]Duty, error)
	ListScheduleEntries(ctx context.Context, from, to string) ([]ScheduleEntry, error)
	ListUnavailability(ctx context.Context, from, to string) ([]Unavailability, error)
	ListSpecialDates(ctx context.Context) ([]SpecialDate, error)
	ListDoubleDutyPreferences(ctx context.Context) (map[int]bool, error)
	GetQueueState(ctx context.Context) ([]QueueRow, error)
	SaveSchedule(ctx context.Context, run ScheduleRun, entries []ScheduleEntry, queues []QueueRow) error
}

// Database defines the interface for all database operations.
// Both postgres.DB and sqlite.Store implement this interface.
type Database interface {
	ScheduleStore
	InsertSpecialDate(ctx context.Context, date SpecialDate) error
	SetDoubleDutyPreference(ctx context.Context, employeeID int, prefer bool) error
	ListScheduleRuns(ctx context.Context) ([]ScheduleRun, error)
	Close() error
}
