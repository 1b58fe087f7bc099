package utils

import (
	"math"
	"time"
)

// AddMonths moves date forward by months calendar months, keeping the day of
// month when the target month has it and clamping to its last day otherwise.
// Jan 31 + 1 month is Feb 28 (or 29), not Mar 3 as time.AddDate would give.
func AddMonths(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	hour, minute, sec := date.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	if last := DaysInMonth(firstOfTarget); day > last {
		day = last
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, minute, sec, date.Nanosecond(), date.Location())
}

// DaysInMonth returns the number of days of the month date falls in.
func DaysInMonth(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// CalculateDueDate calculates the due date of a monthly installment.
// Installment 1 is due one month after the start date.
func CalculateDueDate(startDate time.Time, installment int) time.Time {
	return AddMonths(startDate, installment)
}

// DaysLate counts whole calendar days from dueDate to now, in the due date's
// location. It is zero when now is on or before the due date.
func DaysLate(dueDate, now time.Time) int {
	due := StartOfDay(dueDate)
	today := StartOfDay(now.In(dueDate.Location()))
	if !today.After(due) {
		return 0
	}
	return int(math.Round(today.Sub(due).Hours() / 24))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// IsDateOverdue checks if a due date has passed at now
func IsDateOverdue(dueDate, now time.Time) bool {
	return DaysLate(dueDate, now) > 0
}

// MonthKey formats the calendar month of t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
