package posts

import (
	"errors"
	"io"
	"net/http"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/infra/wordpress"
	postUC "wpdesk/internal/usecase/post"
)

// MaxUploadBytes bounds a media upload.
const MaxUploadBytes = wordpress.MaxUploadSize

// MediaHandler handles POST /sites/{id}/media with a multipart "file" field.
type MediaHandler struct {
	Svc *postUC.Service
}

func (h MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID, _, err := ids(r, false)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("file exceeds the 25 MiB upload limit"))
			return
		}
		writeError(w, &entity.ValidationError{Field: "file", Message: "invalid multipart body"})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, &entity.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > MaxUploadBytes {
		respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("file exceeds the 25 MiB upload limit"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := io.ReadFull(file, sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			respond.SafeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	m, err := h.Svc.UploadMedia(r.Context(), siteID, header.Filename, contentType, file)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, m)
}
