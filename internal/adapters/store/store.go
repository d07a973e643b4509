// Package store provides relational persistence for attendance events and
// weekly score results.
package store

import (
	"context"
	"time"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
)

// AttendanceStore is the engine's read-only view of attendance data.
type AttendanceStore interface {
	// ActiveMembers enumerates the population in scope for a weekly run,
	// independently of who has attendance events.
	ActiveMembers(ctx context.Context) ([]model.Member, error)

	// EventsForWeek returns all attendance events whose scheduled time
	// falls inside the week bucket [weekStart, weekStart+7d).
	EventsForWeek(ctx context.Context, weekStart time.Time) ([]model.AttendanceEvent, error)
}

// ResultStore persists and serves weekly score results.
type ResultStore interface {
	// PublishWeek atomically replaces the week's result set: prior rows
	// for the week are pruned and the current set inserted in one
	// transaction. Returns the number of rows published.
	PublishWeek(ctx context.Context, weekStart time.Time, results []model.ScoreResult) (int, error)

	// WeekResults returns the week's results ordered by rank ascending,
	// user ID ascending.
	WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error)

	// TopN returns the best-ranked n results for the week.
	TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error)
}
