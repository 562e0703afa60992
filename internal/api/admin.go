package api

import (
	"log/slog"
	"net/http"

	"github.com/catchouli/better-tactics/internal/platform/logger"
	"github.com/catchouli/better-tactics/internal/service/tactics"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler exposes the operator-only operation that sits outside the
// single-learner core: resetting the rating. It has no backup endpoint. It
// is mounted separately from Handler so it can be protected by its own
// credential check.
type AdminHandler struct {
	svc          tactics.Service
	passwordHash string
	logger       *slog.Logger
}

// NewAdminHandler constructs an AdminHandler. passwordHash is the bcrypt
// hash of the operator password, from config.AdminConfig.PasswordHash.
func NewAdminHandler(svc tactics.Service, passwordHash string, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{svc: svc, passwordHash: passwordHash, logger: log.With(slog.String("component", "admin_handler"))}
}

// RequireAdmin is middleware that checks the X-Admin-Password header
// against the configured bcrypt hash before allowing a request through.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		password := r.Header.Get("X-Admin-Password")
		if err := bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(password)); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ResetRating handles POST /admin/reset-rating.
func (h *AdminHandler) ResetRating(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.svc.ResetUserRating(r.Context(), singleUserID); err != nil {
		log.Error("failed to reset rating", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

