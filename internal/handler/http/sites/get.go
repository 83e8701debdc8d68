package sites

import (
	"net/http"

	"wpdesk/internal/handler/http/pathutil"
	"wpdesk/internal/handler/http/respond"
	siteUC "wpdesk/internal/usecase/site"
)

type GetHandler struct{ Svc *siteUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ParseSiteID(r.PathValue("id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	site, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(site))
}
