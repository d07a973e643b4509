package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blessedfam/weeklyrank/internal/adapters/http/api"
	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/aggregator"
	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockEngine struct {
	summary    aggregator.Summary
	computeErr error
	results    []model.ScoreResult
	readErr    error
}

func (m *mockEngine) Compute(ctx context.Context, weekStart time.Time) (aggregator.Summary, error) {
	if m.computeErr != nil {
		return aggregator.Summary{}, m.computeErr
	}
	s := m.summary
	s.WeekStart = weekStart
	return s, nil
}

func (m *mockEngine) WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return m.results, nil
}

func (m *mockEngine) TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	if n < len(m.results) {
		return m.results[:n], nil
	}
	return m.results, nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]any {
	return map[string]any{"workerCount": 4}
}

func newTestServer(engine *mockEngine) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(engine, mockStats{}, 100).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestHandleCompute(t *testing.T) {
	Convey("Given the compute endpoint", t, func() {
		weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
		ranked := []model.ScoreResult{
			{UserID: "alice", WeekStart: weekStart, TotalScore: 20, Rank: 1},
			{UserID: "bob", WeekStart: weekStart, TotalScore: 4, Rank: 2},
		}

		Convey("When triggering a valid week", func() {
			engine := &mockEngine{summary: aggregator.Summary{Results: ranked, Published: 2}}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=2026-08-24", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the ranked results come back with status 200", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Week      string              `json:"week"`
					Published int                 `json:"published"`
					Results   []model.ScoreResult `json:"results"`
					Warning   string              `json:"warning"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Week, ShouldEqual, "2026-08-24")
				So(body.Published, ShouldEqual, 2)
				So(len(body.Results), ShouldEqual, 2)
				So(body.Warning, ShouldBeEmpty)
			})
		})

		Convey("When the week parameter is malformed", func() {
			engine := &mockEngine{}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=not-a-date", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is rejected before any computation", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the week parameter is a mid-week day", func() {
			engine := &mockEngine{}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=2026-08-26", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it is normalized to that week's Monday", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Week string `json:"week"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Week, ShouldEqual, "2026-08-24")
			})
		})

		Convey("When scoring weights are misconfigured", func() {
			engine := &mockEngine{
				computeErr: fmt.Errorf("score week: %w", scoring.ErrMissingWeight),
			}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=2026-08-24", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the caller sees a configuration error", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
				var body struct {
					Code string `json:"code"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Code, ShouldEqual, "configuration_error")
			})
		})

		Convey("When the attendance store is unreachable", func() {
			engine := &mockEngine{
				computeErr: fmt.Errorf("fetch attendance: %w", store.ErrUnavailable),
			}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=2026-08-24", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the caller sees 503 and may safely retry", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When publish succeeded but read-back failed", func() {
			engine := &mockEngine{summary: aggregator.Summary{
				Results:   ranked,
				Published: 2,
				Warning:   fmt.Errorf("%w: read timeout", aggregator.ErrReadBack),
			}}
			ts := newTestServer(engine)
			defer ts.Close()

			resp, err := http.Post(ts.URL+"/compute?week=2026-08-24", "", nil)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the response is 200 with a warning, not an error", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Warning string `json:"warning"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body.Warning, ShouldNotBeEmpty)
			})
		})

		Convey("When using the wrong method", func() {
			ts := newTestServer(&mockEngine{})
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/compute")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the route does not exist", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestHandleGetResultsAndSummary(t *testing.T) {
	Convey("Given published results", t, func() {
		weekStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
		engine := &mockEngine{results: []model.ScoreResult{
			{UserID: "alice", WeekStart: weekStart, TotalScore: 20, Rank: 1},
			{UserID: "bob", WeekStart: weekStart, TotalScore: 4, Rank: 2},
			{UserID: "carol", WeekStart: weekStart, TotalScore: 0, Rank: 3},
		}}
		ts := newTestServer(engine)
		defer ts.Close()

		Convey("When fetching the full week", func() {
			resp, err := http.Get(ts.URL + "/results?week=2026-08-24")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then all rows come back rank ascending", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Results []model.ScoreResult `json:"results"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(len(body.Results), ShouldEqual, 3)
				So(body.Results[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When fetching a top-N summary", func() {
			resp, err := http.Get(ts.URL + "/summary?week=2026-08-24&limit=2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then only the best-ranked rows come back", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body struct {
					Top []model.ScoreResult `json:"top"`
				}
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(len(body.Top), ShouldEqual, 2)
			})
		})

		Convey("When the summary limit exceeds the cap", func() {
			resp, err := http.Get(ts.URL + "/summary?week=2026-08-24&limit=9999")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the summary limit is not a number", func() {
			resp, err := http.Get(ts.URL + "/summary?week=2026-08-24&limit=lots")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the result store is down", func() {
			engine.readErr = fmt.Errorf("%w: connection refused", store.ErrUnavailable)

			resp, err := http.Get(ts.URL + "/results?week=2026-08-24")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the caller sees 503", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts := newTestServer(&mockEngine{})
		defer ts.Close()

		Convey("When probing /healthz", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the service reports healthy", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When fetching /stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then stats are served as JSON", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
				So(body["workerCount"], ShouldEqual, float64(4))
			})
		})

		Convey("When scraping /metrics", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the Prometheus endpoint responds", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
