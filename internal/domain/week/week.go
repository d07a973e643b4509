// Package week normalizes calendar dates to ISO week buckets.
//
// A week bucket is identified by its start: the Monday of the ISO calendar
// week, at midnight UTC. Every attendance event belongs to exactly one
// bucket, regardless of the caller's timezone.
package week

import (
	"fmt"
	"time"
)

// paramLayout is the wire format for week parameters.
const paramLayout = "2006-01-02"

// Start returns the Monday of the ISO week containing t, at midnight UTC.
func Start(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Current returns the start of the week containing now, in UTC.
func Current(now time.Time) time.Time {
	return Start(now)
}

// Parse interprets a week parameter. An empty value defaults to the current
// UTC week; anything else must be an ISO date, which is normalized to the
// Monday of its week. Malformed values are rejected before any computation
// starts.
func Parse(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return Current(now), nil
	}
	t, err := time.ParseInLocation(paramLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid ISO date", ErrInvalidWeek, value)
	}
	return Start(t), nil
}

// Format renders a week start in the wire format.
func Format(weekStart time.Time) string {
	return weekStart.UTC().Format(paramLayout)
}

// End returns the exclusive upper bound of the week bucket.
func End(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 7)
}
