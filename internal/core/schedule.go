package core

import (
	"fmt"
	"time"
)

// NextExecutionDate computes when a recurring transaction runs next, given
// the occurrence it just ran at (or its current next-execution date).
//
// Daily and weekly advance by fixed day counts. Monthly advances one
// calendar month, clamping the day to the shorter target month while always
// aiming for the day-of-month of startAt (so Jan 31 -> Feb 28 -> Mar 31, not
// Mar 28). Yearly advances one year; a Feb 29 start lands on Feb 29 only in
// leap years and Feb 28 otherwise.
//
// The time of day of the result is always taken from startAt so repeated
// advancement never drifts in the time portion.
func NextExecutionDate(freq Frequency, startAt, from time.Time) (time.Time, error) {
	loc := from.Location()

	var next time.Time
	switch freq {
	case Daily:
		next = from.AddDate(0, 0, 1)
	case Weekly:
		next = from.AddDate(0, 0, 7)
	case Monthly:
		// First day of the month after from; time.Date normalizes
		// month 13 into January of the next year.
		first := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, loc)
		day := startAt.Day()
		if last := daysInMonth(first.Year(), first.Month()); day > last {
			day = last
		}
		next = time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
	case Yearly:
		year := from.Year() + 1
		month := startAt.Month()
		day := startAt.Day()
		if month == time.February && day == 29 {
			if !isLeapYear(year) {
				day = 28
			}
		} else if last := daysInMonth(year, month); day > last {
			day = last
		}
		next = time.Date(year, month, day, 0, 0, 0, 0, loc)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, freq)
	}

	return time.Date(next.Year(), next.Month(), next.Day(),
		startAt.Hour(), startAt.Minute(), startAt.Second(), 0, loc), nil
}

// daysInMonth returns the number of days in the given month. Day zero of the
// following month normalizes to the last day of this one.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
