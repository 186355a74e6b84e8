package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodContains(t *testing.T) {
	summer := &Period{Start: DayMonth{1, time.June}, End: DayMonth{31, time.August}}
	winter := &Period{Start: DayMonth{1, time.November}, End: DayMonth{31, time.March}}
	leap := &Period{Start: DayMonth{29, time.February}, End: DayMonth{10, time.March}}

	tests := []struct {
		name     string
		period   *Period
		date     time.Time
		expected bool
	}{
		{"nil period always matches", nil, Day(2024, 1, 1), true},
		{"inside plain window", summer, Day(2024, 7, 15), true},
		{"start is inclusive", summer, Day(2024, 6, 1), true},
		{"end is inclusive", summer, Day(2024, 8, 31), true},
		{"outside plain window", summer, Day(2024, 9, 1), false},
		{"wrapped window, december", winter, Day(2024, 12, 15), true},
		{"wrapped window, february", winter, Day(2024, 2, 10), true},
		{"wrapped window, june", winter, Day(2024, 6, 1), false},
		{"leap day exists in leap year", leap, Day(2024, 3, 1), true},
		{"leap day missing fails open", leap, Day(2023, 7, 1), true},
		{"invalid month fails open", &Period{Start: DayMonth{1, 13}, End: DayMonth{1, 1}}, Day(2024, 5, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.period.Contains(tt.date))
		})
	}
}

func TestPeriodWrapIsComplementOfInnerWindow(t *testing.T) {
	wrapped := &Period{Start: DayMonth{1, time.November}, End: DayMonth{31, time.March}}
	inner := &Period{Start: DayMonth{1, time.April}, End: DayMonth{31, time.October}}

	for d := Day(2024, 1, 1); d.Year() == 2024; d = addDays(d, 1) {
		first := wrapped.Contains(d)
		assert.Equal(t, first, wrapped.Contains(d), "matching %s twice disagrees", dateKey(d))
		assert.NotEqual(t, first, inner.Contains(d), "date %s", dateKey(d))
	}
}

func TestParsePeriod(t *testing.T) {
	p := ParsePeriod("01/06", "31-08")
	require.NotNil(t, p)
	assert.Equal(t, DayMonth{1, time.June}, p.Start)
	assert.Equal(t, DayMonth{31, time.August}, p.End)
	assert.Equal(t, "01-06..31-08", p.String())

	assert.Nil(t, ParsePeriod("", "31-08"))
	assert.Nil(t, ParsePeriod("June", "31-08"))
	assert.Nil(t, ParsePeriod("01-06", "31-08-2024"))
	assert.True(t, ParsePeriod("garbage", "").Contains(Day(2024, 1, 1)))
}

func TestMonthStart(t *testing.T) {
	assert.Equal(t, Day(2023, 12, 1), monthStart(Day(2024, 2, 15), 2))
	assert.Equal(t, Day(2023, 8, 1), monthStart(Day(2024, 1, 31), 5))
	assert.Equal(t, Day(2024, 3, 1), monthStart(Day(2024, 3, 31), 0))
}

func TestWeekStart(t *testing.T) {
	// 2024-01-03 is a Wednesday
	assert.Equal(t, Day(2024, 1, 1), weekStart(Day(2024, 1, 3), time.Monday))
	assert.Equal(t, Day(2024, 1, 3), weekStart(Day(2024, 1, 3), time.Wednesday))
	assert.Equal(t, Day(2023, 12, 29), weekStart(Day(2024, 1, 3), time.Friday))
}
