package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/pkg/metrics"
)

// Driver names accepted by Open.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens the database and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:weeklyrank.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/weeklyrank?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return db, nil
}

// schema is shared between the sqlite and postgres drivers; timestamps are
// stored as unix seconds and week starts as ISO dates.
const schema = `
CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS attendance_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES members(id),
  slot_type TEXT NOT NULL,
  scheduled_at BIGINT NOT NULL,
  arrived_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS score_results (
  user_id TEXT NOT NULL,
  week_start TEXT NOT NULL,
  total_score DOUBLE PRECISION NOT NULL,
  rank INTEGER NOT NULL,
  PRIMARY KEY (user_id, week_start)
);

CREATE TABLE IF NOT EXISTS device_tokens (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES members(id)
);

CREATE INDEX IF NOT EXISTS idx_events_scheduled ON attendance_events(scheduled_at);
CREATE INDEX IF NOT EXISTS idx_results_week ON score_results(week_start, rank);
`

// SQLStore implements AttendanceStore and ResultStore over database/sql.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ActiveMembers enumerates the active population, ID ascending.
func (s *SQLStore) ActiveMembers(ctx context.Context) ([]model.Member, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM members WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m := model.Member{Active: true}
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("%w: scan member: %w", ErrUnavailable, err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list members: %w", ErrUnavailable, err)
	}
	metrics.RecordStoreQuery(time.Since(start).Seconds())
	return members, nil
}

// EventsForWeek returns the week's attendance events.
func (s *SQLStore) EventsForWeek(ctx context.Context, weekStart time.Time) ([]model.AttendanceEvent, error) {
	start := time.Now()
	lo := weekStart.UTC().Unix()
	hi := week.End(weekStart).UTC().Unix()
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, slot_type, scheduled_at, arrived_at
		   FROM attendance_events
		  WHERE scheduled_at >= $1 AND scheduled_at < $2
		  ORDER BY scheduled_at, user_id`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var events []model.AttendanceEvent
	for rows.Next() {
		var ev model.AttendanceEvent
		var scheduled, arrived int64
		if err := rows.Scan(&ev.UserID, &ev.SlotType, &scheduled, &arrived); err != nil {
			return nil, fmt.Errorf("%w: scan event: %w", ErrUnavailable, err)
		}
		ev.ScheduledAt = time.Unix(scheduled, 0).UTC()
		ev.ArrivedAt = time.Unix(arrived, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list events: %w", ErrUnavailable, err)
	}
	metrics.RecordStoreQuery(time.Since(start).Seconds())
	return events, nil
}

// PublishWeek replaces the week's result rows in one transaction.
func (s *SQLStore) PublishWeek(ctx context.Context, weekStart time.Time, results []model.ScoreResult) (int, error) {
	start := time.Now()
	wk := week.Format(weekStart)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin publish: %w", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Delete-then-insert keeps the week atomic and prunes members that
	// left the population since the previous run.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM score_results WHERE week_start = $1`, wk); err != nil {
		return 0, fmt.Errorf("%w: prune week: %w", ErrUnavailable, err)
	}
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO score_results (user_id, week_start, total_score, rank)
			 VALUES ($1, $2, $3, $4)`,
			r.UserID, wk, r.TotalScore, r.Rank); err != nil {
			return 0, fmt.Errorf("%w: insert result: %w", ErrUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit publish: %w", ErrUnavailable, err)
	}

	metrics.RecordStorePublish(time.Since(start).Seconds())
	metrics.RecordRowsPublished(len(results))
	return len(results), nil
}

// WeekResults reads back the week ordered by rank, then user ID.
func (s *SQLStore) WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error) {
	return s.queryResults(ctx, weekStart, 0)
}

// TopN returns the week's best-ranked n rows.
func (s *SQLStore) TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	return s.queryResults(ctx, weekStart, n)
}

func (s *SQLStore) queryResults(ctx context.Context, weekStart time.Time, limit int) ([]model.ScoreResult, error) {
	start := time.Now()
	wk := week.Format(weekStart)

	q := `SELECT user_id, total_score, rank FROM score_results
	       WHERE week_start = $1 ORDER BY rank, user_id`
	args := []any{wk}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: read results: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var results []model.ScoreResult
	for rows.Next() {
		r := model.ScoreResult{WeekStart: weekStart}
		if err := rows.Scan(&r.UserID, &r.TotalScore, &r.Rank); err != nil {
			return nil, fmt.Errorf("%w: scan result: %w", ErrUnavailable, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read results: %w", ErrUnavailable, err)
	}
	metrics.RecordStoreQuery(time.Since(start).Seconds())
	return results, nil
}

// AddMember inserts or updates a member row. Used by seeding and tests.
func (s *SQLStore) AddMember(ctx context.Context, m model.Member) error {
	active := 0
	if m.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (id, name, active) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`,
		m.ID, m.Name, active)
	if err != nil {
		return fmt.Errorf("%w: upsert member: %w", ErrUnavailable, err)
	}
	return nil
}

// DeviceTokens lists the registered device tokens for push fan-out.
func (s *SQLStore) DeviceTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT token FROM device_tokens ORDER BY token`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tokens: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: scan token: %w", ErrUnavailable, err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tokens: %w", ErrUnavailable, err)
	}
	return tokens, nil
}

// AddDeviceToken registers a device token for a member.
func (s *SQLStore) AddDeviceToken(ctx context.Context, userID, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO device_tokens (token, user_id) VALUES ($1, $2)
		 ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id`,
		token, userID)
	if err != nil {
		return fmt.Errorf("%w: upsert token: %w", ErrUnavailable, err)
	}
	return nil
}

// AddEvent inserts one attendance event. Used by seeding and tests.
func (s *SQLStore) AddEvent(ctx context.Context, id string, ev model.AttendanceEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance_events (id, user_id, slot_type, scheduled_at, arrived_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, ev.UserID, ev.SlotType, ev.ScheduledAt.UTC().Unix(), ev.ArrivedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("%w: insert event: %w", ErrUnavailable, err)
	}
	return nil
}
