package posts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	postUC "wpdesk/internal/usecase/post"
)

func decodeInput(r *http.Request) (entity.PostInput, error) {
	var in entity.PostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, &entity.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return in, nil
}

type CreateHandler struct{ Svc *postUC.Service }

// ServeHTTP creates a post. Posts without a status are created as drafts.
func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, _, err := ids(r, false)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), siteID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, p)
}

type GetHandler struct{ Svc *postUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, postID, err := ids(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), siteID, postID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

type UpdateHandler struct{ Svc *postUC.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, postID, err := ids(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decodeInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), siteID, postID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

type PublishHandler struct{ Svc *postUC.Service }

func (h PublishHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, postID, err := ids(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Svc.Publish(r.Context(), siteID, postID)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// DeleteHandler trashes a post; ?force=true deletes it permanently.
type DeleteHandler struct{ Svc *postUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, postID, err := ids(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		if force, err = strconv.ParseBool(raw); err != nil {
			writeError(w, &entity.ValidationError{Field: "force", Message: "force must be true or false"})
			return
		}
	}
	if err := h.Svc.Delete(r.Context(), siteID, postID, force); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
