package entity

import (
	"fmt"
	"strings"
	"time"
)

// Post statuses accepted by WordPress.
const (
	PostStatusPublish = "publish"
	PostStatusFuture  = "future"
	PostStatusDraft   = "draft"
	PostStatusPending = "pending"
	PostStatusPrivate = "private"
)

var validPostStatuses = map[string]bool{
	PostStatusPublish: true,
	PostStatusFuture:  true,
	PostStatusDraft:   true,
	PostStatusPending: true,
	PostStatusPrivate: true,
}

// Post is a WordPress post as returned by the REST API.
type Post struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	Modified      time.Time `json:"modified"`
	Slug          string    `json:"slug"`
	Status        string    `json:"status"`
	Link          string    `json:"link"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Author        int64     `json:"author"`
	FeaturedMedia int64     `json:"featured_media"`
	Categories    []int64   `json:"categories"`
	Tags          []int64   `json:"tags"`
}

// PostInput carries the writable fields of a post.
// Nil pointers leave the field unchanged on update.
type PostInput struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	Status        *string `json:"status,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	FeaturedMedia *int64  `json:"featured_media,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
	Tags          []int64 `json:"tags,omitempty"`
}

// Validate checks the input. A new post needs a title.
func (in *PostInput) Validate(create bool) error {
	if create && (in.Title == nil || strings.TrimSpace(*in.Title) == "") {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if in.Title != nil && len(*in.Title) > 1000 {
		return &ValidationError{Field: "title", Message: "title must not exceed 1000 characters"}
	}
	if in.Status != nil && !validPostStatuses[*in.Status] {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("invalid status %q (must be publish, future, draft, pending or private)", *in.Status),
		}
	}
	if in.FeaturedMedia != nil && *in.FeaturedMedia < 0 {
		return &ValidationError{Field: "featured_media", Message: "featured_media must be zero or a media id"}
	}
	return nil
}

// PostList is one page of posts plus the pagination totals reported by WordPress.
type PostList struct {
	Posts      []Post `json:"posts"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}

// Media is an uploaded WordPress attachment.
type Media struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
	MimeType  string `json:"mime_type"`
	MediaType string `json:"media_type"`
	Title     string `json:"title"`
	AltText   string `json:"alt_text"`
	Link      string `json:"link"`
}

// Term is a category or tag.
type Term struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Count    int    `json:"count"`
	Parent   int64  `json:"parent,omitempty"`
	Taxonomy string `json:"taxonomy"`
}
