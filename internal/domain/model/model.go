// Package model contains domain models passed between layers.
package model

import "time"

// AttendanceEvent represents one member's presence at one scheduled slot.
// Events are produced by the ingestion path and never mutated here.
type AttendanceEvent struct {
	UserID      string    // member identifier
	SlotType    string    // schedule item type, e.g. "sunday_service"
	ScheduledAt time.Time // slot start; determines the week bucket
	ArrivedAt   time.Time // actual arrival; drives the lateness adjustment
}

// Member is one person in the active population. Every active member gets a
// ScoreResult row for every computed week, attendee or not.
type Member struct {
	ID     string
	Name   string
	Active bool
}

// ScoreResult is the output of scoring one member for one week.
type ScoreResult struct {
	UserID     string    `json:"user_id"`
	WeekStart  time.Time `json:"week_start"` // always a UTC Monday, midnight
	TotalScore float64   `json:"total_score"`
	Rank       int       `json:"rank"` // dense rank, 1 = highest score
}
