// Package respond writes JSON responses and turns errors into safe client messages.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/resilience/retry"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	RetryAfter *int   `json:"retry_after,omitempty"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// safeFragments mark messages written for the client.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"must not",
	"cannot be",
	"too long",
	"too short",
	"too large",
	"exceeds",
}

// SafeError writes err as {"error": msg} when its message is safe to show,
// otherwise logs it and writes a generic message. 5xx errors are never shown.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	isSafe := errors.Is(err, entity.ErrInvalidInput)
	if !isSafe {
		lowerMsg := strings.ToLower(msg)
		for _, safe := range safeFragments {
			if strings.Contains(lowerMsg, safe) {
				isSafe = true
				break
			}
		}
	}
	if code >= 500 {
		isSafe = false
	}

	if isSafe {
		JSON(w, code, ErrorBody{Error: msg})
		return
	}

	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.Any("error", SanitizeError(err)))
	JSON(w, code, ErrorBody{Error: "internal server error"})
}

// Classified writes an upstream failure using its classification.
// Retryable failures also get a Retry-After header.
func Classified(w http.ResponseWriter, ce *retry.ClassifiedError) {
	code := StatusFor(ce)
	if ce.Retryable && ce.RetryAfterSeconds != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*ce.RetryAfterSeconds))
	}
	if code >= 500 {
		slog.Default().Warn("upstream failure",
			slog.String("code", string(ce.Code)),
			slog.Int("upstream_status", ce.HTTPStatus),
			slog.String("error", SanitizeError(ce)))
	}
	JSON(w, code, ErrorBody{
		Error:      string(ce.Code),
		Message:    ce.Message,
		Suggestion: ce.Suggestion,
		RetryAfter: ce.RetryAfterSeconds,
	})
}

// StatusFor maps a classified failure to the status returned to the client.
// Upstream 4xx statuses are kept; exhausted transient failures become 429 or 5xx.
func StatusFor(ce *retry.ClassifiedError) int {
	if ce.HTTPStatus >= 400 && ce.HTTPStatus < 500 {
		return ce.HTTPStatus
	}
	switch ce.Code {
	case retry.CodeRateLimited:
		return http.StatusTooManyRequests
	case retry.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case retry.CodeTimeout:
		return http.StatusGatewayTimeout
	case retry.CodeBadRequest:
		return http.StatusBadRequest
	case retry.CodeUnauthorized:
		return http.StatusUnauthorized
	case retry.CodeForbidden:
		return http.StatusForbidden
	case retry.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// Err writes err: classified upstream failures via Classified, everything else
// via SafeError with code.
func Err(w http.ResponseWriter, code int, err error) {
	var ce *retry.ClassifiedError
	if errors.As(err, &ce) {
		Classified(w, ce)
		return
	}
	SafeError(w, code, err)
}
