package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/catchouli/better-tactics/internal/domain"
	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/service/tactics"
)

// singleUserID is the fixed identity the trainer operates as. Multi-user
// accounts are a Non-goal (spec.md §1); a real deployment would resolve
// this from a session rather than hardcoding it.
const singleUserID domain.UserID = "default"

// Handler adapts HTTP requests to tactics.Service calls.
type Handler struct {
	svc    tactics.Service
	logger *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(svc tactics.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, logger: log.With(slog.String("component", "api_handler"))}
}

func (h *Handler) GetNextPuzzle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	puzzle, err := h.svc.GetRandomPuzzle(r.Context(), singleUserID)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, puzzle)
}

func (h *Handler) GetNextReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	card, err := h.svc.GetNextReview(r.Context(), singleUserID)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

// submitReviewRequest is the body of POST /reviews.
type submitReviewRequest struct {
	PuzzleID            string               `json:"puzzle_id"`
	Outcome             domain.ReviewOutcome `json:"outcome"`
	ExpectedReviewCount int                  `json:"expected_review_count"`
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req submitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	card, err := h.svc.ApplyReview(r.Context(), singleUserID, req.PuzzleID, req.Outcome, req.ExpectedReviewCount)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, card)
}

func (h *Handler) SkipPuzzle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.svc.SkipPuzzle(r.Context(), singleUserID); err != nil {
		h.respondError(w, log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	stats, err := h.svc.GetUserStats(r.Context(), singleUserID)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			days = parsed
		}
	}

	forecast, err := h.svc.GetReviewForecast(r.Context(), singleUserID, days)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, forecast)
}

func (h *Handler) GetRatingHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	history, err := h.svc.GetRatingHistory(r.Context(), singleUserID)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, history)
}

func (h *Handler) GetScoreHistogram(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	histogram, err := h.svc.GetReviewScoreHistogram(r.Context(), singleUserID)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, histogram)
}

func (h *Handler) GetPuzzleHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	limit, offset := 20, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	entries, err := h.svc.GetDistinctPuzzleHistory(r.Context(), singleUserID, limit, offset)
	if err != nil {
		h.respondError(w, log, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, tactics.ErrNoPuzzlesAvailable):
		http.Error(w, "no puzzles available", http.StatusNotFound)
	case errors.Is(err, tactics.ErrInvalidOutcome):
		http.Error(w, "invalid review outcome", http.StatusBadRequest)
	case errors.Is(err, tactics.ErrNoNextPuzzle):
		http.Error(w, "no next puzzle set", http.StatusConflict)
	default:
		log.Error("unhandled service error", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
