package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/scoring"
	"github.com/blessedfam/weeklyrank/pkg/metrics"
)

// scoreAll fans per-member scoring out over a bounded worker pool. Members
// have no data dependency on one another; the join point below waits for
// every worker before ranking. The first failure cancels the remaining work
// and fails the whole run.
func (s *Service) scoreAll(ctx context.Context, weekStart time.Time, members []model.Member, byUser map[string][]scoring.Event) ([]model.ScoreResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan model.Member)
	out := make([]model.ScoreResult, 0, len(members))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := s.workerCount
	if workers > len(members) {
		workers = len(members)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				total, err := s.policy.Score(ctx, byUser[m.ID])
				if err != nil {
					fail(err)
					return
				}
				metrics.RecordMemberScored()
				mu.Lock()
				out = append(out, model.ScoreResult{
					UserID:     m.ID,
					WeekStart:  weekStart,
					TotalScore: total,
				})
				mu.Unlock()
			}
		}()
	}

feed:
	for _, m := range members {
		select {
		case jobs <- m:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
