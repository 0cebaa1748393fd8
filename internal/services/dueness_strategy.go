// Package services provides business logic and orchestration services.
//
// This file implements the strategy used to step a recurring template's
// cursor forward. Each cadence encapsulates how the next due instant is
// derived from the previous one.

package services

import (
	"time"
)

// Cadence is the strategy interface for advancing a recurring cursor.
type Cadence interface {
	// Next returns the first due instant after cursor. anchorDay is the
	// template's preferred day of month.
	Next(cursor time.Time, anchorDay int) time.Time
}

// MonthlyCadence steps one calendar month at a time. The anchor day is
// clamped to the target month's last day and the time of day is kept, so
// an anchor of 31 yields Jan 31, Feb 28 (29), Mar 31, Apr 30.
type MonthlyCadence struct{}

func (MonthlyCadence) Next(cursor time.Time, anchorDay int) time.Time {
	cursor = cursor.UTC()
	if anchorDay < 1 {
		anchorDay = cursor.Day()
	}

	year, month := cursor.Year(), cursor.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}

	day := anchorDay
	if last := daysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		cursor.Hour(), cursor.Minute(), cursor.Second(), cursor.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueOccurrences lists every instant the cadence reaches after cursor and
// not after now, oldest first.
func DueOccurrences(c Cadence, cursor time.Time, anchorDay int, now time.Time) []time.Time {
	var due []time.Time
	for {
		next := c.Next(cursor, anchorDay)
		if next.After(now) {
			return due
		}
		due = append(due, next)
		cursor = next
	}
}
