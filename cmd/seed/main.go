// The seed tool populates a local store with a demo congregation and a few
// weeks of attendance events, for exercising the engine end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/config"
	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/pkg/logger"
)

const (
	defaultMembers = 25
	defaultWeeks   = 4
	defaultSeed    = 42

	attendChance = 0.8
	lateChance   = 0.3
	maxLate      = 90 * time.Minute
)

// demo schedule: slot type and its weekday/hour offset from the week start.
var slots = []struct {
	slotType string
	day      int
	hour     int
}{
	{"sunday_service", 6, 9},
	{"midweek_service", 2, 19},
	{"prayer_meeting", 4, 6},
	{"bible_study", 5, 18},
}

func main() {
	_ = godotenv.Load()

	memberCount := flag.Int("members", defaultMembers, "number of demo members to create")
	weekCount := flag.Int("weeks", defaultWeeks, "number of past weeks to fill with events")
	seed := flag.Int64("seed", defaultSeed, "random seed, fixed for reproducible demos")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("seed")

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	db, err := store.Open(ctx, store.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	s := store.NewSQLStore(db)

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // demo data only

	members := make([]model.Member, 0, *memberCount)
	for i := 0; i < *memberCount; i++ {
		m := model.Member{
			ID:     fmt.Sprintf("member-%03d", i+1),
			Name:   fmt.Sprintf("Member %d", i+1),
			Active: true,
		}
		if err := s.AddMember(ctx, m); err != nil {
			log.Error(ctx, "failed to add member", logger.Error(err))
			os.Exit(1)
		}
		members = append(members, m)
	}

	thisWeek := week.Current(time.Now())
	events := 0
	for w := 1; w <= *weekCount; w++ {
		weekStart := thisWeek.AddDate(0, 0, -7*w)
		for _, slot := range slots {
			scheduled := weekStart.AddDate(0, 0, slot.day).Add(time.Duration(slot.hour) * time.Hour)
			for _, m := range members {
				if rng.Float64() > attendChance {
					continue
				}
				arrived := scheduled
				if rng.Float64() < lateChance {
					arrived = scheduled.Add(time.Duration(rng.Int63n(int64(maxLate))))
				}
				ev := model.AttendanceEvent{
					UserID:      m.ID,
					SlotType:    slot.slotType,
					ScheduledAt: scheduled,
					ArrivedAt:   arrived,
				}
				if err := s.AddEvent(ctx, uuid.NewString(), ev); err != nil {
					log.Error(ctx, "failed to add event", logger.Error(err))
					os.Exit(1)
				}
				events++
			}
		}
	}

	log.Info(ctx, "seed complete",
		logger.Int("members", len(members)),
		logger.Int("weeks", *weekCount),
		logger.Int("events", events),
	)
}
