// Package aggregator orchestrates one weekly scoring run: population
// resolution, concurrent per-member scoring, ranking, and idempotent
// publication.
package aggregator

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/ranking"
	"github.com/blessedfam/weeklyrank/internal/domain/scoring"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/pkg/logger"
	"github.com/blessedfam/weeklyrank/pkg/metrics"
)

const defaultComputeTimeout = 30 * time.Second

// Summary is the outcome of one weekly computation.
type Summary struct {
	WeekStart time.Time
	Results   []model.ScoreResult
	Published int

	// Warning is non-nil when the week was computed and durably stored
	// but the read-back failed. The authoritative result exists; callers
	// surface this as a warning, not an error.
	Warning error
}

// Service implements the weekly scoring and ranking engine.
type Service struct {
	attendance store.AttendanceStore
	results    store.ResultStore
	policy     scoring.Policy

	workerCount int
	timeout     time.Duration
	locks       *weekLocks
	logger      logger.Logger

	mu   sync.Mutex
	last *Summary
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount bounds concurrent per-member scoring.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithTimeout bounds one computation end to end.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over the given stores and scoring policy.
func New(attendance store.AttendanceStore, results store.ResultStore, policy scoring.Policy, opts ...Option) *Service {
	s := &Service{
		attendance:  attendance,
		results:     results,
		policy:      policy,
		workerCount: runtime.NumCPU() * 2,
		timeout:     defaultComputeTimeout,
		locks:       newWeekLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("aggregator")
	}
	return s
}

// Compute recomputes the whole week from source events and publishes the
// ranked result set. Recomputation is idempotent: unchanged inputs yield an
// identical published set, and a re-trigger after a failure is always safe.
// Concurrent calls for the same week are serialized.
func (s *Service) Compute(ctx context.Context, weekStart time.Time) (Summary, error) {
	release := s.locks.acquire(week.Format(weekStart))
	defer release()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	runID := uuid.NewString()
	started := time.Now()
	s.logger.Info(ctx, "starting weekly computation",
		logger.String("run_id", runID),
		logger.String("week", week.Format(weekStart)),
	)

	members, err := s.attendance.ActiveMembers(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve population: %w", err)
	}
	metrics.UpdateActiveMembers(len(members))

	events, err := s.attendance.EventsForWeek(ctx, weekStart)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch attendance: %w", err)
	}

	byUser := groupEvents(events)
	scored, err := s.scoreAll(ctx, weekStart, members, byUser)
	if err != nil {
		// A single member failure aborts the run: publishing a partial
		// week would break the completeness guarantee.
		return Summary{}, fmt.Errorf("score week: %w", err)
	}

	ranked := ranking.Assign(scored)

	published, err := s.results.PublishWeek(ctx, weekStart, ranked)
	if err != nil {
		return Summary{}, fmt.Errorf("publish week: %w", err)
	}

	metrics.RecordComputeDuration(time.Since(started).Seconds())
	s.logger.Info(ctx, "weekly computation published",
		logger.String("run_id", runID),
		logger.String("week", week.Format(weekStart)),
		logger.Int("members", len(members)),
		logger.Int("published", published),
	)

	summary := Summary{WeekStart: weekStart, Results: ranked, Published: published}
	readBack, err := s.results.WeekResults(ctx, weekStart)
	if err != nil {
		// The week is durably stored; only the summary read failed.
		metrics.RecordReadBackWarning()
		s.logger.Warn(ctx, "read-back after publish failed",
			logger.String("run_id", runID),
			logger.Error(err),
		)
		summary.Warning = fmt.Errorf("%w: %w", ErrReadBack, err)
		s.remember(summary)
		return summary, nil
	}
	summary.Results = readBack
	s.remember(summary)
	return summary, nil
}

// WeekResults exposes the published result set for reporting consumers.
func (s *Service) WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error) {
	return s.results.WeekResults(ctx, weekStart)
}

// TopN exposes the week's summary projection.
func (s *Service) TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error) {
	return s.results.TopN(ctx, weekStart, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]any{
		"workerCount":    s.workerCount,
		"computeTimeout": s.timeout.String(),
	}
	if s.last != nil {
		stats["lastWeek"] = week.Format(s.last.WeekStart)
		stats["lastPublished"] = s.last.Published
		stats["lastReadBackFailed"] = s.last.Warning != nil
	}
	return stats
}

func (s *Service) remember(summary Summary) {
	s.mu.Lock()
	s.last = &summary
	s.mu.Unlock()
}

// groupEvents buckets a week's events per member, converting to the scoring
// policy's input shape.
func groupEvents(events []model.AttendanceEvent) map[string][]scoring.Event {
	byUser := make(map[string][]scoring.Event)
	for _, ev := range events {
		byUser[ev.UserID] = append(byUser[ev.UserID], scoring.Event{
			SlotType:    ev.SlotType,
			ScheduledAt: ev.ScheduledAt,
			ArrivedAt:   ev.ArrivedAt,
		})
	}
	return byUser
}
