package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "invalid json body",
		})
		return
	}

	body.Password = strings.TrimSpace(body.Password)
	if body.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "password is required",
		})
		return
	}

	grant, err := h.service.Login(r.Context(), ClientID(r), body.Password)
	if err != nil {
		var locked ErrLoginLocked
		if errors.As(err, &locked) {
			w.Header().Set("Retry-After", strconv.Itoa(locked.RemainingSeconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success":          false,
				"message":          "too many failed attempts, try again later",
				"locked":           true,
				"remainingSeconds": locked.RemainingSeconds,
			})
			return
		}

		var rejected ErrInvalidPassword
		if errors.As(err, &rejected) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success":           false,
				"message":           fmt.Sprintf("wrong password (%d/%d)", rejected.AttemptCount, rejected.MaxAttempts),
				"remainingAttempts": rejected.RemainingAttempts,
			})
			return
		}

		if !errors.Is(err, ErrNotConfigured) {
			sentry.CaptureException(err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "server error",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "login successful",
		"token":     grant.Token,
		"expiresIn": grant.ExpiresIn,
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"valid":   false,
			"message": "authorization token required",
		})
		return
	}

	claims, err := h.service.VerifyRequest(token)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"valid":   false,
				"message": "server error",
			})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"valid":   false,
			"message": "invalid or expired token",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"message":   "authenticated",
		"user":      claims.Subject,
		"expiresAt": claims.ExpiresAt.Unix(),
	})
}

// ClientID derives the throttle bucket for a request from trusted proxy
// headers. Header-less clients all share the "unknown" bucket.
func ClientID(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	return "unknown"
}

// BearerToken extracts the token from a standard Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
