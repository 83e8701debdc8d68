package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wpdesk/internal/domain/entity"
)

// wpTimeLayout is the REST API's date format; *_gmt fields are UTC.
const wpTimeLayout = "2006-01-02T15:04:05"

// ListPostsParams filters and pages a post listing.
type ListPostsParams struct {
	Page       int
	PerPage    int
	Status     string
	Search     string
	Categories []int64
	Tags       []int64
	OrderBy    string
	Order      string
}

func (p ListPostsParams) values() url.Values {
	q := url.Values{}
	page, perPage := p.Page, p.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("context", "edit")
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if len(p.Categories) > 0 {
		q.Set("categories", joinIDs(p.Categories))
	}
	if len(p.Tags) > 0 {
		q.Set("tags", joinIDs(p.Tags))
	}
	if p.OrderBy != "" {
		q.Set("orderby", p.OrderBy)
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	return q
}

type rendered struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

// text prefers the raw (editable) value, available in the edit context.
func (r rendered) text() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Rendered
}

type wpPost struct {
	ID            int64    `json:"id"`
	DateGMT       string   `json:"date_gmt"`
	ModifiedGMT   string   `json:"modified_gmt"`
	Slug          string   `json:"slug"`
	Status        string   `json:"status"`
	Link          string   `json:"link"`
	Title         rendered `json:"title"`
	Content       rendered `json:"content"`
	Excerpt       rendered `json:"excerpt"`
	Author        int64    `json:"author"`
	FeaturedMedia int64    `json:"featured_media"`
	Categories    []int64  `json:"categories"`
	Tags          []int64  `json:"tags"`
}

func (p wpPost) toEntity() entity.Post {
	return entity.Post{
		ID:            p.ID,
		Date:          parseWPTime(p.DateGMT),
		Modified:      parseWPTime(p.ModifiedGMT),
		Slug:          p.Slug,
		Status:        p.Status,
		Link:          p.Link,
		Title:         p.Title.text(),
		Content:       p.Content.text(),
		Excerpt:       p.Excerpt.text(),
		Author:        p.Author,
		FeaturedMedia: p.FeaturedMedia,
		Categories:    nonNilIDs(p.Categories),
		Tags:          nonNilIDs(p.Tags),
	}
}

// ListPosts returns one page of posts with the totals from X-WP-Total and X-WP-TotalPages.
func (c *Client) ListPosts(ctx context.Context, params ListPostsParams) (*entity.PostList, error) {
	var raw []wpPost
	header, err := c.do(ctx, request{
		operation: "list_posts",
		method:    http.MethodGet,
		path:      "/posts",
		query:     params.values(),
	}, &raw)
	if err != nil {
		return nil, err
	}

	posts := make([]entity.Post, 0, len(raw))
	for _, p := range raw {
		posts = append(posts, p.toEntity())
	}
	return &entity.PostList{
		Posts:      posts,
		Total:      headerInt(header, "X-WP-Total", len(posts)),
		TotalPages: headerInt(header, "X-WP-TotalPages", 1),
	}, nil
}

// GetPost returns a single post.
func (c *Client) GetPost(ctx context.Context, id int64) (*entity.Post, error) {
	var raw wpPost
	if _, err := c.do(ctx, request{
		operation: "get_post",
		method:    http.MethodGet,
		path:      "/posts/" + strconv.FormatInt(id, 10),
		query:     url.Values{"context": {"edit"}},
	}, &raw); err != nil {
		return nil, err
	}
	p := raw.toEntity()
	return &p, nil
}

// CreatePost creates a post. Status defaults to draft on the WordPress side.
func (c *Client) CreatePost(ctx context.Context, in entity.PostInput) (*entity.Post, error) {
	return c.writePost(ctx, "create_post", "/posts", in)
}

// UpdatePost changes the fields set in in.
func (c *Client) UpdatePost(ctx context.Context, id int64, in entity.PostInput) (*entity.Post, error) {
	return c.writePost(ctx, "update_post", "/posts/"+strconv.FormatInt(id, 10), in)
}

func (c *Client) writePost(ctx context.Context, operation, path string, in entity.PostInput) (*entity.Post, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}

	var raw wpPost
	if _, err := c.do(ctx, request{
		operation:   operation,
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, &raw); err != nil {
		return nil, err
	}
	p := raw.toEntity()
	return &p, nil
}

// DeletePost moves a post to the trash, or deletes it permanently when force is set.
func (c *Client) DeletePost(ctx context.Context, id int64, force bool) error {
	_, err := c.do(ctx, request{
		operation: "delete_post",
		method:    http.MethodDelete,
		path:      "/posts/" + strconv.FormatInt(id, 10),
		query:     url.Values{"force": {strconv.FormatBool(force)}},
	}, nil)
	return err
}

func parseWPTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(wpTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func headerInt(h http.Header, key string, fallback int) int {
	v := h.Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

