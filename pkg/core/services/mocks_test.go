package services

import (
	"context"

	"github.com/jakechorley/duty-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/duty-scheduler/pkg/db"
)

// mockStore implements every store interface the services use
type mockStore struct {
	employees   []db.Employee
	duties      []db.Duty
	entries     []db.ScheduleEntry
	unavailable []db.Unavailability
	special     []db.SpecialDate
	prefs       map[int]bool
	queues      []db.QueueRow

	employeesErr error
	dutiesErr    error
	entriesErr   error
	specialErr   error
	queuesErr    error
	saveErr      error
	insertErr    error
	prefErr      error

	entriesFrom, entriesTo string

	savedRun     *db.ScheduleRun
	savedEntries []db.ScheduleEntry
	savedQueues  []db.QueueRow
	inserted     []db.SpecialDate
	setPrefs     map[int]bool
}

func (m *mockStore) ListEmployees(ctx context.Context) ([]db.Employee, error) {
	return m.employees, m.employeesErr
}

func (m *mockStore) ListDuties(ctx context.Context) ([]db.Duty, error) {
	return m.duties, m.dutiesErr
}

func (m *mockStore) ListScheduleEntries(ctx context.Context, from, to string) ([]db.ScheduleEntry, error) {
	m.entriesFrom, m.entriesTo = from, to
	return m.entries, m.entriesErr
}

func (m *mockStore) ListUnavailability(ctx context.Context, from, to string) ([]db.Unavailability, error) {
	return m.unavailable, nil
}

func (m *mockStore) ListSpecialDates(ctx context.Context) ([]db.SpecialDate, error) {
	return m.special, m.specialErr
}

func (m *mockStore) ListDoubleDutyPreferences(ctx context.Context) (map[int]bool, error) {
	return m.prefs, nil
}

func (m *mockStore) GetQueueState(ctx context.Context) ([]db.QueueRow, error) {
	return m.queues, m.queuesErr
}

func (m *mockStore) SaveSchedule(ctx context.Context, run db.ScheduleRun, entries []db.ScheduleEntry, queues []db.QueueRow) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.savedRun = &run
	m.savedEntries = entries
	m.savedQueues = queues
	return nil
}

func (m *mockStore) InsertSpecialDate(ctx context.Context, date db.SpecialDate) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, date)
	return nil
}

func (m *mockStore) SetDoubleDutyPreference(ctx context.Context, employeeID int, prefer bool) error {
	if m.prefErr != nil {
		return m.prefErr
	}
	if m.setPrefs == nil {
		m.setPrefs = make(map[int]bool)
	}
	m.setPrefs[employeeID] = prefer
	return nil
}

// mockRecorder captures metrics calls
type mockRecorder struct {
	outcomes    []string
	assigned    int
	unfilled    int
	swaps       map[string]int
	stagnations []string
}

func (m *mockRecorder) RecordRun(outcome string, seconds float64) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockRecorder) RecordAssignments(assigned, unfilled int) {
	m.assigned += assigned
	m.unfilled += unfilled
}

func (m *mockRecorder) RecordSwaps(pass string, count int) {
	if m.swaps == nil {
		m.swaps = make(map[string]int)
	}
	m.swaps[pass] += count
}

func (m *mockRecorder) RecordStagnation(pass string) {
	m.stagnations = append(m.stagnations, pass)
}

// mockPublisher implements SchedulePublisher for testing
type mockPublisher struct {
	publishErr    error
	spreadsheetID string
	published     *sheetsclient.PublishedSchedule
}

func (m *mockPublisher) PublishSchedule(spreadsheetID string, schedule *sheetsclient.PublishedSchedule) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.spreadsheetID = spreadsheetID
	m.published = schedule
	return nil
}

func threeEmployees() []db.Employee {
	return []db.Employee{
		{ID: 1, Name: "Ada", Surname: "King", Seniority: 0},
		{ID: 2, Name: "Bea", Surname: "Ross", Seniority: 1},
		{ID: 3, Name: "Cal", Surname: "Moss", Seniority: 2},
	}
}
