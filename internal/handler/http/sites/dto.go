package sites

import (
	"errors"
	"net/http"
	"time"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	siteUC "wpdesk/internal/usecase/site"
)

// DTO is the public view of a site. The application password never leaves the server.
type DTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(s *entity.Site) DTO {
	return DTO{
		ID:        s.ID,
		Name:      s.Name,
		URL:       s.URL,
		Username:  s.Username,
		CreatedAt: s.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, siteUC.ErrSiteNotFound):
		respond.SafeError(w, http.StatusNotFound, err)
	case errors.Is(err, siteUC.ErrDuplicateSite):
		respond.SafeError(w, http.StatusConflict, err)
	default:
		respond.Err(w, http.StatusInternalServerError, err)
	}
}
