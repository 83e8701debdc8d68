package http

import (
	"net/http"

	"wpdesk/internal/handler/http/respond"
)

const (
	maxAuthHeaderBytes = 8 << 10
	maxPathBytes       = 2 << 10
	maxQueryBytes      = 8 << 10
)

// InputValidation rejects oversized headers, paths and query strings and caps
// the body at maxBody bytes. Media uploads need a larger cap than JSON routes,
// so the limit is per mount.
func InputValidation(maxBody int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.Header.Get("Authorization")) > maxAuthHeaderBytes {
				respond.JSON(w, http.StatusBadRequest, respond.ErrorBody{
					Error:   "BAD_REQUEST",
					Message: "authorization header too large",
				})
				return
			}
			if len(r.URL.Path) > maxPathBytes || len(r.URL.RawQuery) > maxQueryBytes {
				respond.JSON(w, http.StatusRequestURITooLong, respond.ErrorBody{
					Error:   "BAD_REQUEST",
					Message: "URI too long",
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
			next.ServeHTTP(w, r)
		})
	}
}
