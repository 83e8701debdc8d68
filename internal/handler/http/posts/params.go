package posts

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/pathutil"
	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/infra/wordpress"
	siteUC "wpdesk/internal/usecase/site"
)

// ids reads and checks the {id} and, when wantPost is set, {postID} path values.
func ids(r *http.Request, wantPost bool) (string, int64, error) {
	siteID, err := pathutil.ParseSiteID(r.PathValue("id"))
	if err != nil {
		return "", 0, &entity.ValidationError{Field: "id", Message: "invalid site id"}
	}
	if !wantPost {
		return siteID, 0, nil
	}
	postID, err := pathutil.ParseID(r.PathValue("postID"))
	if err != nil {
		return "", 0, &entity.ValidationError{Field: "postID", Message: "invalid post id"}
	}
	return siteID, postID, nil
}

func optionalInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &entity.ValidationError{Field: name, Message: name + " must be a positive integer"}
	}
	return n, nil
}

func idList(raw, name string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := pathutil.ParseID(strings.TrimSpace(part))
		if err != nil {
			return nil, &entity.ValidationError{Field: name, Message: name + " must be a comma separated list of ids"}
		}
		out = append(out, id)
	}
	return out, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, siteUC.ErrSiteNotFound):
		respond.SafeError(w, http.StatusNotFound, err)
	case errors.Is(err, wordpress.ErrUploadTooLarge):
		respond.SafeError(w, http.StatusRequestEntityTooLarge, err)
	default:
		respond.Err(w, http.StatusInternalServerError, err)
	}
}
