package posts

import (
	"context"
	"net/http"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	postUC "wpdesk/internal/usecase/post"
)

// TermKind selects which taxonomy TermsHandler lists.
type TermKind int

const (
	Categories TermKind = iota
	Tags
)

type TermsHandler struct {
	Svc  *postUC.Service
	Kind TermKind
}

func (h TermsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, _, err := ids(r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	list := h.Svc.Categories
	if h.Kind == Tags {
		list = h.Svc.Tags
	}
	terms, err := fetch(r.Context(), list, siteID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, terms)
}

func fetch(ctx context.Context, list func(context.Context, string) ([]entity.Term, error), siteID string) ([]entity.Term, error) {
	terms, err := list(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if terms == nil {
		terms = []entity.Term{}
	}
	return terms, nil
}
