// Package seasonhandlers serves the season read API and the transition
// trigger endpoint. Auth and rate limiting sit in front of these handlers at
// the router, not inside them.
package seasonhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	leaderboardservice "github.com/Permavault-Club/season-engine/app/modules/leaderboard/application"
	seasonservice "github.com/Permavault-Club/season-engine/app/modules/season/application"
	seasonqueue "github.com/Permavault-Club/season-engine/app/modules/season/infrastructure/queue"
	"github.com/Permavault-Club/season-engine/internal/attr"
)

const defaultListLimit = 20

// TickLister is the slice of the tick queue the history endpoints read.
type TickLister interface {
	RecentTicks(ctx context.Context, limit int) ([]seasonqueue.JobInfo, error)
}

// Handlers holds the HTTP handlers for the season surface.
type Handlers struct {
	seasons     seasonservice.Service
	leaderboard leaderboardservice.Service
	ticks       TickLister
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandlers builds the handler set. now may be nil outside tests.
func NewHandlers(
	seasons seasonservice.Service,
	leaderboard leaderboardservice.Service,
	ticks TickLister,
	logger *slog.Logger,
	now func() time.Time,
) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		seasons:     seasons,
		leaderboard: leaderboard,
		ticks:       ticks,
		logger:      logger,
		now:         now,
	}
}

// HandleCurrentSeason returns the resolved season state.
func (h *Handlers) HandleCurrentSeason(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.seasons.CurrentState(r.Context()))
}

// HandleCompareState reports calculated vs authoritative season numbers.
func (h *Handlers) HandleCompareState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.seasons.CompareState(r.Context()))
}

// HandleGetSeason returns one season's view.
func (h *Handlers) HandleGetSeason(w http.ResponseWriter, r *http.Request) {
	number, ok := seasonNumberParam(w, r)
	if !ok {
		return
	}

	view, err := h.seasons.GetSeason(r.Context(), number)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load season", attr.SeasonNumber("season", number), attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load season")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// HandleClock describes the season clock at now or at an explicit instant.
// The at parameter accepts RFC3339 or natural language ("next sunday 11pm").
func (h *Handlers) HandleClock(w http.ResponseWriter, r *http.Request) {
	at := h.now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := parseTimeInput(raw, h.now())
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unparseable time %q", raw))
			return
		}
		at = parsed
	}
	respondJSON(w, http.StatusOK, h.seasons.ClockAt(at))
}

// HandleTriggerTransition runs one transition trigger tick. No-ops and
// completed phases report 200; a fatal phase failure reports 500 with the
// phase and message.
func (h *Handlers) HandleTriggerTransition(w http.ResponseWriter, r *http.Request) {
	result, err := h.seasons.TriggerTransition(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Transition trigger failed", attr.Error(err))
		respondJSON(w, http.StatusInternalServerError, seasonservice.TransitionError{
			Phase:   "trigger",
			Message: err.Error(),
		})
		return
	}
	if result.IsFailure() {
		respondJSON(w, http.StatusInternalServerError, result.Failure)
		return
	}
	respondJSON(w, http.StatusOK, result.Success)
}

// HandleListTransitions lists recent rollover records, newest first.
func (h *Handlers) HandleListTransitions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.seasons.ListTransitions(r.Context(), limitParam(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list transitions", attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list transitions")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// HandleRecentTicks lists the latest scheduler ticks.
func (h *Handlers) HandleRecentTicks(w http.ResponseWriter, r *http.Request) {
	if h.ticks == nil {
		respondError(w, http.StatusNotFound, "tick queue not configured")
		return
	}
	jobs, err := h.ticks.RecentTicks(r.Context(), limitParam(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list ticks", attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list ticks")
		return
	}
	respondJSON(w, http.StatusOK, jobs)
}

// HandleSeasonLeaderboard returns a season's ranking ordered by rank.
func (h *Handlers) HandleSeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	number, ok := seasonNumberParam(w, r)
	if !ok {
		return
	}

	entries, err := h.leaderboard.GetRanking(r.Context(), number)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load ranking", attr.SeasonNumber("season", number), attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load ranking")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// HandleSeasonChart renders a season's top entries as a PNG bar chart.
func (h *Handlers) HandleSeasonChart(w http.ResponseWriter, r *http.Request) {
	number, ok := seasonNumberParam(w, r)
	if !ok {
		return
	}

	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			top = n
		}
	}

	png, err := h.leaderboard.RenderChart(r.Context(), number, top)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render chart", attr.SeasonNumber("season", number), attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// HandleSeasonExport serves a season's ranking as an XLSX workbook.
func (h *Handlers) HandleSeasonExport(w http.ResponseWriter, r *http.Request) {
	number, ok := seasonNumberParam(w, r)
	if !ok {
		return
	}

	workbook, err := h.leaderboard.ExportRanking(r.Context(), number)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to export ranking", attr.SeasonNumber("season", number), attr.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to export ranking")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("season-%d.xlsx", number)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func seasonNumberParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	number, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil || number < 1 {
		respondError(w, http.StatusBadRequest, "season number must be a positive integer")
		return 0, false
	}
	return number, true
}

func limitParam(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return defaultListLimit
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
