package posts

import (
	"net/http"

	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/infra/wordpress"
	postUC "wpdesk/internal/usecase/post"
)

// ListHandler handles GET /sites/{id}/posts.
// Supported query parameters: page, per_page, status, search, categories, tags, orderby, order.
type ListHandler struct{ Svc *postUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, _, err := ids(r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	params := wordpress.ListPostsParams{
		Status:  q.Get("status"),
		Search:  q.Get("search"),
		OrderBy: q.Get("orderby"),
		Order:   q.Get("order"),
	}
	if params.Page, err = optionalInt(q.Get("page"), "page"); err != nil {
		writeError(w, err)
		return
	}
	if params.PerPage, err = optionalInt(q.Get("per_page"), "per_page"); err != nil {
		writeError(w, err)
		return
	}
	if params.Categories, err = idList(q.Get("categories"), "categories"); err != nil {
		writeError(w, err)
		return
	}
	if params.Tags, err = idList(q.Get("tags"), "tags"); err != nil {
		writeError(w, err)
		return
	}

	list, err := h.Svc.List(r.Context(), siteID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
