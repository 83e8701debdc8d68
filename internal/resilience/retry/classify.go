package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrorCode is the category an upstream failure is sorted into.
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeServerError        ErrorCode = "SERVER_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeConnectionRefused  ErrorCode = "CONNECTION_REFUSED"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeUnknown            ErrorCode = "UNKNOWN_ERROR"
)

// Default backoff hints, in seconds, used when the upstream does not declare one.
const (
	DefaultRateLimitBackoff   = 60
	DefaultServerErrorBackoff = 30
	DefaultUnavailableBackoff = 60
	DefaultTransportBackoff   = 30
)

// HTTPError represents a non-2xx response from an upstream service.
type HTTPError struct {
	StatusCode int
	Header     http.Header
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ClassifiedError describes a failure in terms of whether and when it may be retried.
// Values are created by Classify and never modified afterwards.
type ClassifiedError struct {
	Code              ErrorCode
	HTTPStatus        int
	Message           string
	Suggestion        string
	Retryable         bool
	RetryAfterSeconds *int
	Err               error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the original failure.
func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// RetryAfter returns the declared backoff as a duration, or zero when none is set.
func (e *ClassifiedError) RetryAfter() time.Duration {
	if e.RetryAfterSeconds == nil {
		return 0
	}
	return time.Duration(*e.RetryAfterSeconds) * time.Second
}

// Classify maps any failure to a ClassifiedError.
// A failure that is already classified is returned unchanged.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return classifyStatus(httpErr.StatusCode, httpErr.Header, err)
	}

	if isConnectionRefused(err) {
		return &ClassifiedError{
			Code:              CodeConnectionRefused,
			Message:           "the service refused the connection",
			Suggestion:        "check that the service URL is correct and reachable",
			Retryable:         true,
			RetryAfterSeconds: seconds(DefaultTransportBackoff),
			Err:               err,
		}
	}

	if isTimeout(err) {
		return &ClassifiedError{
			Code:              CodeTimeout,
			Message:           "the request timed out",
			Suggestion:        "try again in a moment",
			Retryable:         true,
			RetryAfterSeconds: seconds(DefaultTransportBackoff),
			Err:               err,
		}
	}

	return &ClassifiedError{
		Code:    CodeUnknown,
		Message: "unexpected error",
		Err:     err,
	}
}

func classifyStatus(status int, header http.Header, err error) *ClassifiedError {
	ce := &ClassifiedError{HTTPStatus: status, Err: err}

	switch {
	case status == http.StatusBadRequest:
		ce.Code = CodeBadRequest
		ce.Message = "the request was rejected as invalid"
		ce.Suggestion = "check the request parameters"
	case status == http.StatusUnauthorized:
		ce.Code = CodeUnauthorized
		ce.Message = "authentication failed"
		ce.Suggestion = "check your credentials"
	case status == http.StatusForbidden:
		ce.Code = CodeForbidden
		ce.Message = "access denied"
		ce.Suggestion = "check that the account has permission for this action"
	case status == http.StatusNotFound:
		ce.Code = CodeNotFound
		ce.Message = "resource not found"
		ce.Suggestion = "check the URL or identifier"
	case status == http.StatusTooManyRequests:
		ce.Code = CodeRateLimited
		ce.Message = "rate limit exceeded"
		ce.Suggestion = "wait before retrying"
		ce.Retryable = true
		ce.RetryAfterSeconds = seconds(parseRetryAfter(header, DefaultRateLimitBackoff))
	case status == http.StatusInternalServerError:
		ce.Code = CodeServerError
		ce.Message = "the service reported an internal error"
		ce.Suggestion = "try again later"
		ce.Retryable = true
		ce.RetryAfterSeconds = seconds(DefaultServerErrorBackoff)
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		ce.Code = CodeServiceUnavailable
		ce.Message = "the service is temporarily unavailable"
		ce.Suggestion = "try again later"
		ce.Retryable = true
		ce.RetryAfterSeconds = seconds(DefaultUnavailableBackoff)
	case status >= 500:
		ce.Code = CodeUnknown
		ce.Message = fmt.Sprintf("unexpected server status %d", status)
		ce.Retryable = true
		ce.RetryAfterSeconds = seconds(DefaultServerErrorBackoff)
	default:
		ce.Code = CodeUnknown
		ce.Message = fmt.Sprintf("unexpected status %d", status)
	}

	return ce
}

// parseRetryAfter reads a Retry-After header given either as delay-seconds or as an HTTP date.
func parseRetryAfter(header http.Header, fallback int) int {
	if header == nil {
		return fallback
	}
	v := strings.TrimSpace(header.Get("Retry-After"))
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return n
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d <= 0 {
			return 0
		}
		return int((d + time.Second - 1) / time.Second)
	}
	return fallback
}

func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func seconds(n int) *int {
	return &n
}
