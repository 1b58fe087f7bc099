package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{
			name:     "keeps day of month",
			start:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "clamps to end of february in a leap year",
			start:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "clamps to end of february in a common year",
			start:    time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "restores day after a short month",
			start:    time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "crosses the year",
			start:    time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			months:   3,
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonths(tt.start, tt.months))
		})
	}
}

func TestCalculateDueDate(t *testing.T) {
	baseDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), CalculateDueDate(baseDate, 1))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), CalculateDueDate(baseDate, 12))
}

func TestDaysLate(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		now      time.Time
		expected int
	}{
		{name: "before due date", now: due.AddDate(0, 0, -3), expected: 0},
		{name: "on due date", now: due.Add(20 * time.Hour), expected: 0},
		{name: "one day late", now: due.AddDate(0, 0, 1).Add(time.Hour), expected: 1},
		{name: "ten days late", now: due.AddDate(0, 0, 10), expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysLate(due, tt.now))
		})
	}
}

func TestIsDateOverdue(t *testing.T) {
	due := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, IsDateOverdue(due, due))
	assert.True(t, IsDateOverdue(due, due.AddDate(0, 0, 2)))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, DaysInMonth(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 31, DaysInMonth(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-03", MonthKey(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
}
