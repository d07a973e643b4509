package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/pkg/logger"
)

// Announcement is the rendered weekly ranking message.
type Announcement struct {
	Title string
	Body  string
}

// BuildAnnouncement renders a week's top results into a push message.
// An uncomputed week yields no announcement.
func BuildAnnouncement(ctx context.Context, results store.ResultStore, weekStart time.Time, topN int) (*Announcement, error) {
	top, err := results.TopN(ctx, weekStart, topN)
	if err != nil {
		return nil, fmt.Errorf("read week summary: %w", err)
	}
	if len(top) == 0 {
		return nil, nil
	}

	body := "Weekly attendance ranking for " + week.Format(weekStart) + ": "
	for i, r := range top {
		if i > 0 {
			body += ", "
		}
		body += fmt.Sprintf("#%d %s (%.1f)", r.Rank, r.UserID, r.TotalScore)
	}
	return &Announcement{
		Title: "BlessedFam",
		Body:  body,
	}, nil
}

// Announce reads the published week and fans the announcement out to the
// given device tokens. Returns the number of successful sends.
func Announce(ctx context.Context, results store.ResultStore, pusher Pusher, tokens []string, weekStart time.Time, topN int, log logger.Logger) (int, error) {
	ann, err := BuildAnnouncement(ctx, results, weekStart, topN)
	if err != nil {
		return 0, err
	}
	if ann == nil {
		log.Info(ctx, "no results published for week, skipping announcement",
			logger.String("week", week.Format(weekStart)))
		return 0, nil
	}
	return Fanout(ctx, pusher, tokens, ann.Title, ann.Body, log), nil
}
