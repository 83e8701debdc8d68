// Package posts exposes post authoring, media upload and taxonomy listing for
// a connected site. Upstream WordPress failures keep their classification.
package posts

import (
	"net/http"

	postUC "wpdesk/internal/usecase/post"
)

// Register mounts the post routes on mux. guard wraps every route and may be nil.
func Register(mux *http.ServeMux, svc *postUC.Service, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /sites/{id}/posts", guard(ListHandler{svc}))
	mux.Handle("POST /sites/{id}/posts", guard(CreateHandler{svc}))
	mux.Handle("GET /sites/{id}/posts/{postID}", guard(GetHandler{svc}))
	mux.Handle("PUT /sites/{id}/posts/{postID}", guard(UpdateHandler{svc}))
	mux.Handle("DELETE /sites/{id}/posts/{postID}", guard(DeleteHandler{svc}))
	mux.Handle("POST /sites/{id}/posts/{postID}/publish", guard(PublishHandler{svc}))
	mux.Handle("POST /sites/{id}/media", guard(MediaHandler{Svc: svc}))
	mux.Handle("GET /sites/{id}/categories", guard(TermsHandler{Svc: svc, Kind: Categories}))
	mux.Handle("GET /sites/{id}/tags", guard(TermsHandler{Svc: svc, Kind: Tags}))
}
