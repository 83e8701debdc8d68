// Package images serves the aggregated stock-image search.
package images

import (
	"net/http"

	"wpdesk/internal/usecase/imagesearch"
)

// Register mounts the image routes on mux. guard wraps every route and may be nil.
func Register(mux *http.ServeMux, svc *imagesearch.Service, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /images/search", guard(SearchHandler{Svc: svc}))
}
