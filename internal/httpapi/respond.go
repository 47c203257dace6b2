package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/nwidmer/stempel/internal/domain"
	"github.com/nwidmer/stempel/internal/repository"
)

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// RetryAfterMinutes is set on lockout denials.
	RetryAfterMinutes int `json:"retry_after_minutes,omitempty"`
	// AttemptsRemaining is set on rate-limit denials.
	AttemptsRemaining int `json:"attempts_remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

// writeServiceError maps engine errors onto transport status codes. Validation
// and conflict messages are user-facing and pass through verbatim;
// configuration failures stay opaque.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		conflictErr   *domain.ConflictError
		budgetErr     *domain.BudgetExceededError
		notFoundErr   *domain.NotFoundError
		rateErr       *domain.RateLimitedError
		lockErr       *domain.LockedOutError
		confErr       *domain.ConfigurationError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
	case errors.As(err, &budgetErr):
		writeError(w, http.StatusConflict, "budget_exceeded", budgetErr.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "conflict", conflictErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, "not_found", notFoundErr.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &rateErr):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: responseError{
			Code:              "rate_limited",
			Message:           rateErr.Error(),
			AttemptsRemaining: rateErr.AttemptsRemaining,
		}})
	case errors.As(err, &lockErr):
		writeJSON(w, http.StatusLocked, errorResponse{Error: responseError{
			Code:              "locked_out",
			Message:           lockErr.Error(),
			RetryAfterMinutes: lockErr.MinutesRemaining,
		}})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.As(err, &confErr):
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// clientIP resolves the request's source address: the first X-Forwarded-For
// hop when present, otherwise the connection's remote host.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
