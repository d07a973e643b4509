// The notifier reads a published week's ranking and announces it to member
// devices. It runs separately from the scoring engine, typically after a
// scheduled compute: the engine publishes, this process decides to notify.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/config"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/internal/notify"
	"github.com/blessedfam/weeklyrank/pkg/logger"
)

const defaultTopN = 3

func main() {
	_ = godotenv.Load()

	weekParam := flag.String("week", "", "week to announce (YYYY-MM-DD, any day of the week); defaults to the current UTC week")
	topN := flag.Int("top", defaultTopN, "number of top-ranked members to name in the announcement")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("notifier")

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}

	weekStart, err := week.Parse(*weekParam, time.Now())
	if err != nil {
		log.Error(ctx, "invalid week parameter", logger.Error(err))
		os.Exit(1)
	}

	db, err := store.Open(ctx, store.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	sqlStore := store.NewSQLStore(db)

	tokens, err := sqlStore.DeviceTokens(ctx)
	if err != nil {
		log.Error(ctx, "failed to list device tokens", logger.Error(err))
		os.Exit(1)
	}
	if len(tokens) == 0 {
		log.Info(ctx, "no device tokens registered, nothing to do")
		return
	}

	pusher := notify.NewFCMClient(cfg.FCMEndpoint, cfg.FCMServerKey, log)
	sent, err := notify.Announce(ctx, sqlStore, pusher, tokens, weekStart, *topN, log)
	if err != nil {
		log.Error(ctx, "announcement failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "announcement complete",
		logger.String("week", week.Format(weekStart)),
		logger.Int("devices", len(tokens)),
		logger.Int("sent", sent),
	)
}
