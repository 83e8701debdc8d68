package sites

import (
	"encoding/json"
	"errors"
	"net/http"

	"wpdesk/internal/handler/http/respond"
	siteUC "wpdesk/internal/usecase/site"
)

type CreateHandler struct{ Svc *siteUC.Service }

// ServeHTTP connects a site. The credentials are checked against the site
// before anything is stored, so a rejected login surfaces as the upstream
// 401 or 403 with a suggestion.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		Username    string `json:"username"`
		AppPassword string `json:"app_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	site, err := h.Svc.Create(r.Context(), siteUC.CreateInput{
		Name:        req.Name,
		URL:         req.URL,
		Username:    req.Username,
		AppPassword: req.AppPassword,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/sites/"+site.ID)
	respond.JSON(w, http.StatusCreated, toDTO(site))
}
