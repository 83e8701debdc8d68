package imageprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/resilience/retry"
	"wpdesk/internal/resilience/tokencache"
)

const openverseBaseURL = "https://api.openverse.org"

// Openverse searches openly licensed images. It authenticates with an OAuth2
// client-credentials token held in its own token cache.
type Openverse struct {
	endpoint
	configured bool
	tokens     *tokencache.Cache
	// apiHost is the only host that may receive the bearer token.
	apiHost string
}

// NewOpenverse creates an Openverse adapter. Empty credentials disable it.
func NewOpenverse(clientID, clientSecret string, cfg Config) *Openverse {
	ep := newEndpoint(NameOpenverse, openverseBaseURL, cfg)
	fetcher := tokencache.NewClientCredentials(ep.baseURL+"/v1/auth_tokens/token/", clientID, clientSecret, cfg.HTTPClient)

	var apiHost string
	if u, err := url.Parse(ep.baseURL); err == nil {
		apiHost = u.Hostname()
	}
	return &Openverse{
		endpoint:   ep,
		configured: clientID != "" && clientSecret != "",
		tokens:     tokencache.New(NameOpenverse, fetcher),
		apiHost:    apiHost,
	}
}

// Name implements Provider.
func (o *Openverse) Name() string { return o.name }

// Configured implements Provider.
func (o *Openverse) Configured() bool { return o.configured }

type openverseResponse struct {
	ResultCount int               `json:"result_count"`
	PageCount   int               `json:"page_count"`
	Results     []openverseResult `json:"results"`
}

type openverseResult struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	URL               string `json:"url"`
	Thumbnail         string `json:"thumbnail"`
	Creator           string `json:"creator"`
	CreatorURL        string `json:"creator_url"`
	License           string `json:"license"`
	LicenseVersion    string `json:"license_version"`
	ForeignLandingURL string `json:"foreign_landing_url"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	Tags              []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Search implements Provider.
func (o *Openverse) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	if !o.configured {
		return emptyPage(), nil
	}
	params = params.Normalize()

	q := url.Values{}
	q.Set("q", params.Query)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("page_size", strconv.Itoa(params.PerPage))
	if params.License != "" {
		q.Set("license", params.License)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Orientation != "" {
		q.Set("aspect_ratio", openverseAspect(params.Orientation))
	}
	reqURL := o.baseURL + "/v1/images/?" + q.Encode()

	var body openverseResponse
	err := o.observe(ctx, "search", func(ctx context.Context) error {
		return retry.WithRetry(ctx, o.retry, func(ctx context.Context) error {
			header, err := o.authHeader(ctx)
			if err != nil {
				return err
			}
			return o.getJSON(ctx, reqURL, header, &body, o.invalidateOn401)
		})
	})
	if err != nil {
		return nil, err
	}

	images := make([]entity.Image, 0, len(body.Results))
	for _, r := range body.Results {
		images = append(images, mapOpenverse(r))
	}
	return &SearchPage{Images: truncate(images, params.PerPage), Total: body.ResultCount}, nil
}

// ServesMedia implements ProxyHeaderer. Only media on the API host itself
// (thumbnails and the like) needs the token; originals live on the
// creators' hosts.
func (o *Openverse) ServesMedia(target *url.URL) bool {
	return sameHost(target, o.apiHost, false)
}

// ProxyHeaders implements ProxyHeaderer. Requests to the API host carry the
// bearer token; anything else gets no headers.
func (o *Openverse) ProxyHeaders(ctx context.Context, target *url.URL) (http.Header, error) {
	if !o.configured || !o.ServesMedia(target) {
		return http.Header{}, nil
	}
	return o.authHeader(ctx)
}

func (o *Openverse) authHeader(ctx context.Context) (http.Header, error) {
	token, err := o.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &retry.ClassifiedError{
			Code:       retry.CodeUnauthorized,
			HTTPStatus: http.StatusUnauthorized,
			Message:    "could not obtain an Openverse access token",
			Suggestion: "check your credentials",
			Err:        err,
		}
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

func (o *Openverse) invalidateOn401(resp *http.Response) {
	if resp.StatusCode == http.StatusUnauthorized {
		o.tokens.Invalidate()
	}
}

func mapOpenverse(r openverseResult) entity.Image {
	creator := entity.CreatorOrUnknown(r.Creator)
	full := r.URL
	thumb := r.Thumbnail
	if thumb == "" {
		thumb = r.URL
	}

	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, t.Name)
	}

	return entity.Image{
		URL:             r.URL,
		FullURL:         full,
		Caption:         r.Title,
		SourceProvider:  NameOpenverse,
		ThumbnailURL:    thumb,
		Link:            r.ForeignLandingURL,
		Photographer:    creator,
		PhotographerURL: r.CreatorURL,
		Attribution:     fmt.Sprintf("Photo by %s via Openverse", creator),
		Width:           r.Width,
		Height:          r.Height,
		License:         openverseLicense(r.License, r.LicenseVersion),
		Tags:            entity.UniqueTags(tags),
		ProviderID:      r.ID,
	}
}

// openverseLicense renders ("by-sa", "4.0") as "CC BY-SA 4.0" and ("cc0", "1.0") as "CC0 1.0".
func openverseLicense(code, version string) string {
	if code == "" {
		return ""
	}
	name := strings.ToUpper(code)
	if name != "CC0" && name != "PDM" {
		name = "CC " + name
	}
	if version != "" {
		name += " " + version
	}
	return name
}

func openverseAspect(orientation string) string {
	switch orientation {
	case OrientationLandscape:
		return "wide"
	case OrientationPortrait:
		return "tall"
	default:
		return "square"
	}
}
