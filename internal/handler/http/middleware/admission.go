package middleware

import (
	"log/slog"
	"net/http"

	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/resilience/retry"
	"wpdesk/pkg/ratelimit"
)

// Admission limits each client to the limiter's budget for one endpoint group.
// The key is "group|ip", so groups are budgeted independently. A denied request
// gets 429 with Retry-After and never reaches next.
func Admission(limiter *ratelimit.Limiter, group string, ips IPExtractor) func(http.Handler) http.Handler {
	if ips == nil {
		ips = &RemoteAddrExtractor{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, err := ips.ExtractIP(r)
			if err != nil {
				slog.Warn("admission: IP extraction failed, using RemoteAddr",
					slog.String("remote_addr", r.RemoteAddr),
					slog.Any("error", err))
				ip = r.RemoteAddr
			}

			key := group + "|" + ip
			if limiter.IsAllowed(key) {
				next.ServeHTTP(w, r)
				return
			}

			wait := limiter.RetryAfterSeconds(key)
			if wait < 1 {
				wait = 1
			}
			slog.Warn("admission denied",
				slog.String("group", group),
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
				slog.Int("retry_after", wait))
			respond.Classified(w, &retry.ClassifiedError{
				Code:              retry.CodeRateLimited,
				HTTPStatus:        http.StatusTooManyRequests,
				Message:           "too many requests",
				Suggestion:        "wait before retrying",
				Retryable:         true,
				RetryAfterSeconds: &wait,
			})
		})
	}
}
