package notify_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/notify"
	"github.com/blessedfam/weeklyrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeResults struct {
	top []model.ScoreResult
	err error
}

func (f *fakeResults) PublishWeek(ctx context.Context, weekStart time.Time, results []model.ScoreResult) (int, error) {
	return 0, errors.New("read-only in tests")
}

func (f *fakeResults) WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error) {
	return f.top, f.err
}

func (f *fakeResults) TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if n < len(f.top) {
		return f.top[:n], nil
	}
	return f.top, nil
}

type fakePusher struct {
	sent    atomic.Int32
	failFor string
}

func (f *fakePusher) Send(ctx context.Context, token, title, body string) error {
	if token == f.failFor {
		return notify.ErrPushFailed
	}
	f.sent.Add(1)
	return nil
}

func TestAnnounce(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	log := logger.Get().Named("notify_test")
	weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	Convey("Given a published week", t, func() {
		results := &fakeResults{top: []model.ScoreResult{
			{UserID: "alice", WeekStart: weekStart, TotalScore: 20, Rank: 1},
			{UserID: "bob", WeekStart: weekStart, TotalScore: 4, Rank: 2},
		}}

		Convey("When building the announcement", func() {
			ann, err := notify.BuildAnnouncement(context.Background(), results, weekStart, 3)

			Convey("Then it names the week and the top members", func() {
				So(err, ShouldBeNil)
				So(ann, ShouldNotBeNil)
				So(ann.Body, ShouldContainSubstring, "2026-08-24")
				So(ann.Body, ShouldContainSubstring, "#1 alice")
				So(ann.Body, ShouldContainSubstring, "#2 bob")
			})
		})

		Convey("When announcing to several devices", func() {
			pusher := &fakePusher{}
			sent, err := notify.Announce(context.Background(), results, pusher,
				[]string{"tok-1", "tok-2", "tok-3"}, weekStart, 3, log)

			Convey("Then every token receives the push", func() {
				So(err, ShouldBeNil)
				So(sent, ShouldEqual, 3)
				So(pusher.sent.Load(), ShouldEqual, 3)
			})
		})

		Convey("When one device token is dead", func() {
			pusher := &fakePusher{failFor: "tok-2"}
			sent, err := notify.Announce(context.Background(), results, pusher,
				[]string{"tok-1", "tok-2", "tok-3"}, weekStart, 3, log)

			Convey("Then the rest still get the announcement", func() {
				So(err, ShouldBeNil)
				So(sent, ShouldEqual, 2)
			})
		})
	})

	Convey("Given an uncomputed week", t, func() {
		results := &fakeResults{}

		Convey("When announcing", func() {
			pusher := &fakePusher{}
			sent, err := notify.Announce(context.Background(), results, pusher,
				[]string{"tok-1"}, weekStart, 3, log)

			Convey("Then nothing is sent and nothing fails", func() {
				So(err, ShouldBeNil)
				So(sent, ShouldEqual, 0)
				So(pusher.sent.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestFCMClient(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	log := logger.Get().Named("fcm_test")

	Convey("Given an FCM gateway", t, func() {
		Convey("When the gateway accepts the message", func() {
			var got atomic.Int32
			gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "key=secret" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				got.Add(1)
				w.WriteHeader(http.StatusOK)
			}))
			defer gw.Close()

			client := notify.NewFCMClient(gw.URL, "secret", log)
			err := client.Send(context.Background(), "tok-1", "BlessedFam", "hello")

			Convey("Then the send succeeds", func() {
				So(err, ShouldBeNil)
				So(got.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the gateway rejects the message", func() {
			gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer gw.Close()

			client := notify.NewFCMClient(gw.URL, "secret", log)
			err := client.Send(context.Background(), "tok-1", "BlessedFam", "hello")

			Convey("Then the send fails with a push error", func() {
				So(errors.Is(err, notify.ErrPushFailed), ShouldBeTrue)
			})
		})

		Convey("When no server key is configured", func() {
			client := notify.NewFCMClient("http://unused", "", log)
			err := client.Send(context.Background(), "tok-1", "BlessedFam", "hello")

			Convey("Then the send fails before any network call", func() {
				So(errors.Is(err, notify.ErrMissingServerKey), ShouldBeTrue)
			})
		})
	})
}
