package seasonhandlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	leaderboardevents "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/events"
	leaderboardtypes "github.com/Permavault-Club/season-engine/app/modules/leaderboard/domain/types"
	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasondomain "github.com/Permavault-Club/season-engine/app/modules/season/domain"
	seasonqueue "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/queue"
	"github.com/Permavault-Club/season-engine/internal/results"
)

var testBase = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

func newTestRouter(seasons *FakeSeasonService, leaderboard *FakeLeaderboardService, ticks TickLister) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(seasons, leaderboard, ticks, logger, func() time.Time { return testBase })

	r := chi.NewRouter()
	r.Get("/api/v1/seasons/current", h.HandleCurrentSeason)
	r.Get("/api/v1/seasons/compare", h.HandleCompareState)
	r.Get("/api/v1/seasons/{number}", h.HandleGetSeason)
	r.Get("/api/v1/seasons/{number}/leaderboard", h.HandleSeasonLeaderboard)
	r.Get("/api/v1/seasons/{number}/leaderboard/chart.png", h.HandleSeasonChart)
	r.Get("/api/v1/seasons/{number}/export.xlsx", h.HandleSeasonExport)
	r.Get("/api/v1/clock", h.HandleClock)
	r.Get("/api/v1/transitions", h.HandleListTransitions)
	r.Get("/api/v1/transitions/ticks", h.HandleRecentTicks)
	r.Post("/api/v1/transition/trigger", h.HandleTriggerTransition)
	return r
}

func doRequest(t *testing.T, router *chi.Mux, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandleCurrentSeason(t *testing.T) {
	seasons := &FakeSeasonService{
		State: seasondomain.SeasonState{
			Current: seasondomain.SeasonInfo{Number: 9, Status: seasondomain.StatusActive},
			Next:    seasondomain.SeasonInfo{Number: 10, Status: seasondomain.StatusPreparing},
		},
	}
	router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/current")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	state := decodeJSON[seasondomain.SeasonState](t, rec)
	if state.Current.Number != 9 || state.Next.Number != 10 {
		t.Errorf("state = current %d next %d, want 9 and 10", state.Current.Number, state.Next.Number)
	}
}

func TestHandleCompareState(t *testing.T) {
	seasons := &FakeSeasonService{
		Comparison: seasonservice.StateComparison{
			CalculatedSeason:    9,
			AuthoritativeSeason: 9,
			InAgreement:         true,
			CheckedAt:           testBase,
		},
	}
	router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/compare")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	cmp := decodeJSON[seasonservice.StateComparison](t, rec)
	if !cmp.InAgreement || cmp.CalculatedSeason != 9 {
		t.Errorf("comparison = %+v", cmp)
	}
}

func TestHandleGetSeason(t *testing.T) {
	t.Run("known season", func(t *testing.T) {
		seasons := &FakeSeasonService{
			SeasonView: seasonservice.SeasonView{Number: 7, Year: 2026, Week: "2026-W07"},
		}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/7")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		view := decodeJSON[seasonservice.SeasonView](t, rec)
		if view.Number != 7 || view.Week != "2026-W07" {
			t.Errorf("view = %+v", view)
		}
	})

	t.Run("rejects non-numeric season", func(t *testing.T) {
		router := newTestRouter(&FakeSeasonService{}, &FakeLeaderboardService{}, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/abc")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("rejects season zero", func(t *testing.T) {
		router := newTestRouter(&FakeSeasonService{}, &FakeLeaderboardService{}, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/0")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("service error", func(t *testing.T) {
		seasons := &FakeSeasonService{SeasonErr: errors.New("db down")}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/7")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		body := decodeJSON[map[string]string](t, rec)
		if body["error"] != "failed to load season" {
			t.Errorf("error = %q", body["error"])
		}
	})
}

func TestHandleClock(t *testing.T) {
	t.Run("defaults to now", func(t *testing.T) {
		seasons := &FakeSeasonService{}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/clock")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !seasons.ClockArg.Equal(testBase) {
			t.Errorf("clock at = %v, want %v", seasons.ClockArg, testBase)
		}
	})

	t.Run("explicit RFC3339 instant", func(t *testing.T) {
		seasons := &FakeSeasonService{}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/clock?at=2026-03-08T23%3A30%3A00Z")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		want := time.Date(2026, time.March, 8, 23, 30, 0, 0, time.UTC)
		if !seasons.ClockArg.Equal(want) {
			t.Errorf("clock at = %v, want %v", seasons.ClockArg, want)
		}
	})

	t.Run("natural language instant", func(t *testing.T) {
		seasons := &FakeSeasonService{}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/clock?at=in+2+days")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !seasons.ClockArg.After(testBase) {
			t.Errorf("clock at = %v, want after %v", seasons.ClockArg, testBase)
		}
	})

	t.Run("unparseable input", func(t *testing.T) {
		router := newTestRouter(&FakeSeasonService{}, &FakeLeaderboardService{}, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/clock?at=xyzzy")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleTriggerTransition(t *testing.T) {
	t.Run("phase success", func(t *testing.T) {
		seasons := &FakeSeasonService{
			Trigger: results.SuccessResult[seasonservice.TransitionResult, seasonservice.TransitionError](seasonservice.TransitionResult{
				Phase:         "tally_votes",
				Description:   "Votes tallied for season 9",
				TransitionID:  "9-10",
				CurrentSeason: 9,
				NextSeason:    10,
				Timestamp:     testBase,
			}),
		}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodPost, "/api/v1/transition/trigger")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decodeJSON[seasonservice.TransitionResult](t, rec)
		if body.Phase != "tally_votes" || body.TransitionID != "9-10" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("phase failure", func(t *testing.T) {
		seasons := &FakeSeasonService{
			Trigger: results.FailureResult[seasonservice.TransitionResult](seasonservice.TransitionError{
				Phase:   "prepare_next_season",
				Message: "bucket unavailable",
			}),
		}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodPost, "/api/v1/transition/trigger")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		body := decodeJSON[seasonservice.TransitionError](t, rec)
		if body.Phase != "prepare_next_season" || body.Message != "bucket unavailable" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		seasons := &FakeSeasonService{TriggerErr: errors.New("db connection lost")}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodPost, "/api/v1/transition/trigger")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		body := decodeJSON[seasonservice.TransitionError](t, rec)
		if body.Phase != "trigger" || body.Message != "db connection lost" {
			t.Errorf("body = %+v", body)
		}
	})
}

func TestHandleListTransitions(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		seasons := &FakeSeasonService{
			Transitions: []seasonservice.TransitionView{
				{ID: "9-10", FromSeason: 9, ToSeason: 10, Status: "completed"},
			},
		}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/transitions")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if seasons.ListLimit != defaultListLimit {
			t.Errorf("limit = %d, want %d", seasons.ListLimit, defaultListLimit)
		}
		rows := decodeJSON[[]seasonservice.TransitionView](t, rec)
		if len(rows) != 1 || rows[0].ID != "9-10" {
			t.Errorf("rows = %+v", rows)
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		seasons := &FakeSeasonService{}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		doRequest(t, router, http.MethodGet, "/api/v1/transitions?limit=5")
		if seasons.ListLimit != 5 {
			t.Errorf("limit = %d, want 5", seasons.ListLimit)
		}
	})

	t.Run("repository error", func(t *testing.T) {
		seasons := &FakeSeasonService{ListErr: errors.New("db down")}
		router := newTestRouter(seasons, &FakeLeaderboardService{}, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/transitions")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandleRecentTicks(t *testing.T) {
	t.Run("queue not configured", func(t *testing.T) {
		router := newTestRouter(&FakeSeasonService{}, &FakeLeaderboardService{}, nil)
		rec := doRequest(t, router, http.MethodGet, "/api/v1/transitions/ticks")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("recent ticks", func(t *testing.T) {
		ticks := &FakeTickLister{
			Jobs: []seasonqueue.JobInfo{
				{ID: 42, Kind: "season_transition_tick", State: "completed"},
			},
		}
		router := newTestRouter(&FakeSeasonService{}, &FakeLeaderboardService{}, ticks)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/transitions/ticks")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ticks.Limit != defaultListLimit {
			t.Errorf("limit = %d, want %d", ticks.Limit, defaultListLimit)
		}
		jobs := decodeJSON[[]seasonqueue.JobInfo](t, rec)
		if len(jobs) != 1 || jobs[0].ID != 42 {
			t.Errorf("jobs = %+v", jobs)
		}
	})
}

func TestHandleSeasonLeaderboard(t *testing.T) {
	t.Run("ranking", func(t *testing.T) {
		leaderboard := &FakeLeaderboardService{
			Entries: []leaderboardevents.RankedEntry{
				{EntityID: "0xabc", TotalVotes: leaderboardtypes.VoteCount("1200"), Rank: 1},
				{EntityID: "0xdef", TotalVotes: leaderboardtypes.VoteCount("800"), Rank: 2},
			},
		}
		router := newTestRouter(&FakeSeasonService{}, leaderboard, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/7/leaderboard")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		entries := decodeJSON[[]leaderboardevents.RankedEntry](t, rec)
		if len(entries) != 2 || entries[0].EntityID != "0xabc" {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("ranking error", func(t *testing.T) {
		leaderboard := &FakeLeaderboardService{RankErr: errors.New("db down")}
		router := newTestRouter(&FakeSeasonService{}, leaderboard, nil)

		rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/7/leaderboard")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandleSeasonChart(t *testing.T) {
	leaderboard := &FakeLeaderboardService{Chart: []byte{0x89, 'P', 'N', 'G'}}
	router := newTestRouter(&FakeSeasonService{}, leaderboard, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/7/leaderboard/chart.png?top=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if leaderboard.ChartTop != 5 {
		t.Errorf("top = %d, want 5", leaderboard.ChartTop)
	}
	if rec.Body.Len() != 4 {
		t.Errorf("body length = %d, want 4", rec.Body.Len())
	}
}

func TestHandleSeasonExport(t *testing.T) {
	leaderboard := &FakeLeaderboardService{Workbook: []byte("PK")}
	router := newTestRouter(&FakeSeasonService{}, leaderboard, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/seasons/12/export.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "season-12.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
