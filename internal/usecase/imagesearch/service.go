// Package imagesearch fans an image query out to every selected stock-image
// provider and merges the results in configured provider order.
package imagesearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/infra/imageprovider"
	"wpdesk/internal/observability/metrics"
)

// AllProviders selects every registered provider.
const AllProviders = "all"

// Query is one aggregated search request.
type Query struct {
	Text        string
	Providers   []string
	Page        int
	PerPage     int
	License     string
	Category    string
	Orientation string
}

// Result is the merged page returned to the editor.
type Result struct {
	Images  []entity.Image `json:"images"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
	HasMore bool           `json:"has_more"`
	// Failed lists providers whose call failed and contributed nothing.
	Failed []string `json:"failed"`
}

// Service aggregates results from a provider registry.
type Service struct {
	Registry *imageprovider.Registry

	// ProxyPath, when set, is the media proxy route. Media URLs from providers
	// that need replayed headers are rewritten to go through it.
	ProxyPath string
}

// outcome is what one provider call produced. Exactly one of page and err is set.
type outcome struct {
	page *imageprovider.SearchPage
	err  error
}

// SearchAll queries the selected providers concurrently. A provider that fails
// (by error or panic) is logged, listed in Result.Failed and contributes no
// images; it never fails the whole search.
func (s *Service) SearchAll(ctx context.Context, q Query) (*Result, error) {
	params := imageprovider.SearchParams{
		Query:       q.Text,
		Page:        q.Page,
		PerPage:     q.PerPage,
		License:     q.License,
		Category:    q.Category,
		Orientation: q.Orientation,
	}.Normalize()
	if params.Query == "" {
		return nil, &entity.ValidationError{Field: "q", Message: "query is required"}
	}

	selected, err := s.selectProviders(q.Providers)
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, len(selected))
	var eg errgroup.Group
	for i, p := range selected {
		eg.Go(func() error {
			outcomes[i] = call(ctx, p, params)
			// errors stay in outcomes so siblings are never cancelled
			return nil
		})
	}
	_ = eg.Wait()

	res := &Result{
		Images:  make([]entity.Image, 0, params.PerPage),
		Page:    params.Page,
		PerPage: params.PerPage,
		Failed:  []string{},
	}
	for i, o := range outcomes {
		name := selected[i].Name()
		if o.err != nil {
			slog.Warn("image provider failed, skipping",
				slog.String("provider", name),
				slog.String("query", params.Query),
				slog.Any("error", o.err))
			res.Failed = append(res.Failed, name)
			continue
		}
		images := o.page.Images
		if ph, ok := selected[i].(imageprovider.ProxyHeaderer); ok && s.ProxyPath != "" {
			images = s.rewriteMedia(name, ph, images)
		}
		res.Images = append(res.Images, images...)
	}

	if len(res.Images) > params.PerPage {
		res.Images = res.Images[:params.PerPage]
	}
	res.HasMore = hasMore(params, len(res.Images), outcomes)

	metrics.RecordImageSearch(len(res.Images), res.Failed)
	slog.Debug("image search completed",
		slog.String("query", params.Query),
		slog.Int("providers", len(selected)),
		slog.Int("results", len(res.Images)),
		slog.Any("failed", res.Failed))

	return res, nil
}

// selectProviders resolves names to configured providers, keeping registry order.
func (s *Service) selectProviders(names []string) ([]imageprovider.Provider, error) {
	all := len(names) == 0
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		switch {
		case n == "":
		case n == AllProviders:
			all = true
		default:
			if _, ok := s.Registry.Get(n); !ok {
				return nil, &entity.ValidationError{
					Field:   "providers",
					Message: fmt.Sprintf("unknown provider %q (known: %s)", n, strings.Join(s.Registry.Names(), ", ")),
				}
			}
			wanted[n] = true
		}
	}
	if !all && len(wanted) == 0 {
		all = true
	}

	selected := make([]imageprovider.Provider, 0, len(s.Registry.Names()))
	for _, p := range s.Registry.All() {
		if !all && !wanted[p.Name()] {
			continue
		}
		if !p.Configured() {
			continue
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// rewriteMedia routes the provider's own media through the proxy. URLs on
// other hosts stay direct; the proxy would add nothing to them.
func (s *Service) rewriteMedia(provider string, ph imageprovider.ProxyHeaderer, images []entity.Image) []entity.Image {
	out := make([]entity.Image, len(images))
	for i, img := range images {
		img.URL = s.proxied(provider, ph, img.URL)
		img.FullURL = s.proxied(provider, ph, img.FullURL)
		img.ThumbnailURL = s.proxied(provider, ph, img.ThumbnailURL)
		out[i] = img
	}
	return out
}

func (s *Service) proxied(provider string, ph imageprovider.ProxyHeaderer, raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err != nil || !ph.ServesMedia(u) {
		return raw
	}
	v := url.Values{}
	v.Set("provider", provider)
	v.Set("url", raw)
	return s.ProxyPath + "?" + v.Encode()
}

// hasMore reports whether another page is likely. A single provider's total is
// exact; otherwise a full page is taken to mean more results exist.
func hasMore(params imageprovider.SearchParams, returned int, outcomes []outcome) bool {
	if len(outcomes) == 1 && outcomes[0].err == nil && outcomes[0].page.Total > 0 {
		return params.Page*params.PerPage < outcomes[0].page.Total
	}
	return returned == params.PerPage
}

// call runs one provider search, turning a panic or a nil page into an error.
func call(ctx context.Context, p imageprovider.Provider, params imageprovider.SearchParams) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("image provider panicked",
				slog.String("provider", p.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			o = outcome{err: fmt.Errorf("provider %s panicked: %v", p.Name(), r)}
		}
	}()

	page, err := p.Search(ctx, params)
	if err != nil {
		return outcome{err: err}
	}
	if page == nil {
		return outcome{page: &imageprovider.SearchPage{}}
	}
	return outcome{page: page}
}
