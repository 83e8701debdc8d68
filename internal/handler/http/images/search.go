package images

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/usecase/imagesearch"
)

// SearchHandler handles GET /images/search.
//
// Query parameters: q (required), providers (comma separated or "all"),
// page, per_page, license, category and orientation. Individual provider
// failures never fail the request; they are listed in "failed".
type SearchHandler struct{ Svc *imagesearch.Service }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	qv := r.URL.Query()

	page, err := intParam(qv.Get("page"), "page")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	perPage, err := intParam(qv.Get("per_page"), "per_page")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.Svc.SearchAll(r.Context(), imagesearch.Query{
		Text:        qv.Get("q"),
		Providers:   splitList(qv.Get("providers")),
		Page:        page,
		PerPage:     perPage,
		License:     qv.Get("license"),
		Category:    qv.Get("category"),
		Orientation: qv.Get("orientation"),
	})
	if err != nil {
		if errors.Is(err, entity.ErrInvalidInput) {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &entity.ValidationError{Field: name, Message: name + " must be a positive integer"}
	}
	return n, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
