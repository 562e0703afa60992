// Package api provides the thin HTTP surface over the tactics service.
// HTTP request/response shaping is deliberately minimal here: the wire
// format is an external-collaborator concern (see SPEC_FULL.md); this
// package exists mainly to give the core service something to be called
// through end to end.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/catchouli/better-tactics/internal/service/tactics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router wiring the tactics service to its HTTP
// surface. adminPasswordHash is the bcrypt hash protecting the admin-only
// routes (see AdminHandler).
func NewRouter(svc tactics.Service, adminPasswordHash string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := NewHandler(svc, log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/puzzles/next", h.GetNextPuzzle)
		r.Get("/reviews/next", h.GetNextReview)
		r.Post("/reviews", h.SubmitReview)
		r.Post("/puzzles/skip", h.SkipPuzzle)
		r.Get("/stats", h.GetStats)
		r.Get("/stats/forecast", h.GetForecast)
		r.Get("/stats/rating-history", h.GetRatingHistory)
		r.Get("/stats/score-histogram", h.GetScoreHistogram)
		r.Get("/stats/puzzle-history", h.GetPuzzleHistory)
	})

	admin := NewAdminHandler(svc, adminPasswordHash, log)
	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireAdmin)
		r.Post("/reset-rating", admin.ResetRating)
	})

	return r
}
