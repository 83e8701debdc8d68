package sites

import (
	"net/http"

	"wpdesk/internal/handler/http/pathutil"
	"wpdesk/internal/handler/http/respond"
	siteUC "wpdesk/internal/usecase/site"
)

type DeleteHandler struct{ Svc *siteUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseSiteID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
