// Package sites lets the editor connect, list and disconnect WordPress sites.
package sites

import (
	"net/http"

	siteUC "wpdesk/internal/usecase/site"
)

// Register mounts the site routes on mux. guard wraps every route and may be nil.
func Register(mux *http.ServeMux, svc *siteUC.Service, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /sites", guard(ListHandler{svc}))
	mux.Handle("POST /sites", guard(CreateHandler{svc}))
	mux.Handle("GET /sites/{id}", guard(GetHandler{svc}))
	mux.Handle("DELETE /sites/{id}", guard(DeleteHandler{svc}))
}
