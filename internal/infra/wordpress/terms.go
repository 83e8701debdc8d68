package wordpress

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"wpdesk/internal/domain/entity"
)

// maxTermPages stops term listing on sites with very large taxonomies.
const maxTermPages = 10

// ListCategories returns the site's categories, following pagination.
func (c *Client) ListCategories(ctx context.Context) ([]entity.Term, error) {
	return c.listTerms(ctx, "list_categories", "/categories", "category")
}

// ListTags returns the site's tags, following pagination.
func (c *Client) ListTags(ctx context.Context) ([]entity.Term, error) {
	return c.listTerms(ctx, "list_tags", "/tags", "post_tag")
}

func (c *Client) listTerms(ctx context.Context, operation, path, taxonomy string) ([]entity.Term, error) {
	terms := []entity.Term{}
	for page := 1; page <= maxTermPages; page++ {
		var batch []entity.Term
		header, err := c.do(ctx, request{
			operation: operation,
			method:    http.MethodGet,
			path:      path,
			query: url.Values{
				"per_page": {"100"},
				"page":     {strconv.Itoa(page)},
				"orderby":  {"name"},
			},
		}, &batch)
		if err != nil {
			return nil, err
		}

		for _, t := range batch {
			if t.Taxonomy == "" {
				t.Taxonomy = taxonomy
			}
			terms = append(terms, t)
		}
		if page >= headerInt(header, "X-WP-TotalPages", 1) {
			break
		}
	}
	return terms, nil
}
