// Package imageprovider adapts stock-image search APIs to a common Provider interface.
//
// Every adapter maps its provider's payload onto entity.Image, runs HTTP calls
// through the retry executor and reports metrics and spans per call. An adapter
// without credentials is not an error: Search returns an empty page so the
// aggregator is never blocked by an unconfigured provider.
package imageprovider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/resilience/retry"
)

// Provider names.
const (
	NameOpenverse = "openverse"
	NamePixabay   = "pixabay"
	NameUnsplash  = "unsplash"
	NamePexels    = "pexels"
)

// Orientation filter values accepted in SearchParams.
const (
	OrientationLandscape = "landscape"
	OrientationPortrait  = "portrait"
	OrientationSquare    = "square"
)

// DefaultTimeout bounds a single HTTP call to a provider.
const DefaultTimeout = 30 * time.Second

// SearchParams is a provider-neutral image query.
type SearchParams struct {
	Query       string
	Page        int
	PerPage     int
	License     string
	Category    string
	Orientation string
}

// Normalize fills defaults and bounds the page size.
func (p SearchParams) Normalize() SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 80 {
		p.PerPage = 80
	}
	return p
}

// SearchPage is one page of normalized results.
// Total is the provider's reported match count, or 0 when it does not report one.
type SearchPage struct {
	Images []entity.Image
	Total  int
}

// Provider searches one stock-image service.
type Provider interface {
	// Name returns the provider's stable identifier.
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	// Search returns one page of results. An unconfigured provider returns an
	// empty page and a nil error.
	Search(ctx context.Context, params SearchParams) (*SearchPage, error)
}

// ProxyHeaderer is implemented by providers whose media cannot be loaded by the
// browser directly. The media proxy replays the returned headers.
type ProxyHeaderer interface {
	// ServesMedia reports whether target is hosted by the provider itself.
	ServesMedia(target *url.URL) bool
	// ProxyHeaders returns the headers for fetching target. It returns an
	// empty header for any target ServesMedia rejects, so credentials never
	// reach third-party hosts.
	ProxyHeaders(ctx context.Context, target *url.URL) (http.Header, error)
}

// sameHost reports whether target's host is host or, with subdomains set, one
// of its subdomains.
func sameHost(target *url.URL, host string, subdomains bool) bool {
	if target == nil || host == "" {
		return false
	}
	h := strings.ToLower(target.Hostname())
	host = strings.ToLower(host)
	return h == host || (subdomains && strings.HasSuffix(h, "."+host))
}

// Config holds settings shared by every adapter.
type Config struct {
	// BaseURL overrides the provider's API root. Used by tests and proxies.
	BaseURL string
	// HTTPClient is used for API calls. Defaults to a client with Timeout.
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Defaults to DefaultTimeout.
	Timeout time.Duration
	// Retry configures the retry executor. Zero values use retry.DefaultConfig.
	Retry retry.Config
}

func emptyPage() *SearchPage {
	return &SearchPage{Images: []entity.Image{}}
}

// truncate keeps at most n images.
func truncate(images []entity.Image, n int) []entity.Image {
	if n >= 0 && len(images) > n {
		return images[:n]
	}
	return images
}
