package sites

import (
	"net/http"

	"wpdesk/internal/handler/http/respond"
	siteUC "wpdesk/internal/usecase/site"
)

type ListHandler struct{ Svc *siteUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	respond.JSON(w, http.StatusOK, out)
}
