package maintenance

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"petcare-serverless/internal/auth"
	"petcare-serverless/internal/observability"
)

// CleanupHandler reclaims stale login-attempt rows on a schedule. It is
// invoked by the platform cron with a static bearer secret; without a
// configured secret the route pretends not to exist.
type CleanupHandler struct {
	repo       *auth.Repository
	logger     *observability.Logger
	cronSecret string
	retention  time.Duration
	batchSize  int
}

func NewCleanupHandler(repo *auth.Repository, logger *observability.Logger, cronSecret string, retention time.Duration, batchSize int) *CleanupHandler {
	return &CleanupHandler{
		repo:       repo,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
		retention:  retention,
		batchSize:  batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	deleted, err := h.repo.CleanupStaleAttempts(r.Context(), h.retention, h.batchSize)
	if err != nil {
		h.logger.Error("attempt_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("attempt_cleanup_completed", map[string]any{
		"deleted_login_attempts": deleted,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                 "ok",
		"deleted_login_attempts": deleted,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
