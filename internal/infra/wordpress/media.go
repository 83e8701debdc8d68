package wordpress

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"wpdesk/internal/domain/entity"
)

type wpMedia struct {
	ID        int64    `json:"id"`
	SourceURL string   `json:"source_url"`
	MimeType  string   `json:"mime_type"`
	MediaType string   `json:"media_type"`
	Title     rendered `json:"title"`
	AltText   string   `json:"alt_text"`
	Link      string   `json:"link"`
}

// UploadMedia uploads a file to the media library.
//
// The body is buffered (up to MaxUploadSize) so that a retried attempt can
// resend it. Uploads use the longer UploadTimeout.
func (c *Client) UploadMedia(ctx context.Context, filename, contentType string, r io.Reader) (*entity.Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}

	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "upload"
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	header := http.Header{}
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))

	var raw wpMedia
	if _, err := c.do(ctx, request{
		operation:   "upload_media",
		method:      http.MethodPost,
		path:        "/media",
		body:        data,
		contentType: contentType,
		header:      header,
		upload:      true,
	}, &raw); err != nil {
		return nil, err
	}

	return &entity.Media{
		ID:        raw.ID,
		SourceURL: raw.SourceURL,
		MimeType:  raw.MimeType,
		MediaType: raw.MediaType,
		Title:     raw.Title.text(),
		AltText:   raw.AltText,
		Link:      raw.Link,
	}, nil
}
