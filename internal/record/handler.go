package record

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"petcare-serverless/internal/period"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo *Repository
	loc  *time.Location
}

func NewHandler(repo *Repository, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{repo: repo, loc: loc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	name := period.Normalize(r.URL.Query().Get("period"))
	rng := period.Resolve(name, time.Now(), h.loc)

	records, err := h.repo.ListBetween(r.Context(), rng.Start, rng.End)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"period":  name,
		"count":   len(records),
		"records": records,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input Input
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.repo.Create(r.Context(), input)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to save record")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "record saved",
		"id":          rec.ID,
		"recorded_at": rec.RecordedAt,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"record":  rec,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete record")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "record deleted",
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
