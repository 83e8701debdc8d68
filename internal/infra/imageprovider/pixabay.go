package imageprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/infra/queue"
	"wpdesk/internal/resilience/retry"
)

const (
	pixabayBaseURL = "https://pixabay.com"
	pixabayOrigin  = "https://pixabay.com"
	pixabayHost    = "pixabay.com"

	// Pixabay rejects per_page outside [3, 200].
	pixabayMinPerPage = 3
	pixabayMaxPerPage = 200
)

// Pixabay searches the Pixabay API. Its key travels as a query parameter, and
// every attempt runs through the provider's request queue so the queue can
// pause on the rate-limit headers Pixabay returns.
type Pixabay struct {
	endpoint
	apiKey string
	queue  *queue.Queue
}

// NewPixabay creates a Pixabay adapter that dispatches through q.
// An empty apiKey disables it.
func NewPixabay(apiKey string, q *queue.Queue, cfg Config) *Pixabay {
	return &Pixabay{
		endpoint: newEndpoint(NamePixabay, pixabayBaseURL, cfg),
		apiKey:   apiKey,
		queue:    q,
	}
}

// Name implements Provider.
func (p *Pixabay) Name() string { return p.name }

// Configured implements Provider.
func (p *Pixabay) Configured() bool { return p.apiKey != "" }

type pixabayResponse struct {
	Total     int          `json:"total"`
	TotalHits int          `json:"totalHits"`
	Hits      []pixabayHit `json:"hits"`
}

type pixabayHit struct {
	ID            int64  `json:"id"`
	PageURL       string `json:"pageURL"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	User          string `json:"user"`
	UserID        int64  `json:"user_id"`
}

// Search implements Provider.
func (p *Pixabay) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	if !p.Configured() {
		return emptyPage(), nil
	}
	params = params.Normalize()

	perPage := min(max(params.PerPage, pixabayMinPerPage), pixabayMaxPerPage)
	q := url.Values{}
	q.Set("key", p.apiKey)
	q.Set("q", params.Query)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("image_type", "photo")
	q.Set("safesearch", "true")
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if o := pixabayOrientation(params.Orientation); o != "" {
		q.Set("orientation", o)
	}
	reqURL := p.baseURL + "/api/?" + q.Encode()

	var body pixabayResponse
	err := p.observe(ctx, "search", func(ctx context.Context) error {
		return retry.WithRetry(ctx, p.retry, func(ctx context.Context) error {
			_, err := queue.Enqueue(ctx, p.queue, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, p.getJSON(ctx, reqURL, nil, &body, func(resp *http.Response) {
					p.queue.UpdateRateLimit(resp.Header)
				})
			})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	images := make([]entity.Image, 0, len(body.Hits))
	for _, h := range body.Hits {
		images = append(images, mapPixabay(h))
	}
	return &SearchPage{Images: truncate(images, params.PerPage), Total: body.TotalHits}, nil
}

// ServesMedia implements ProxyHeaderer for pixabay.com and its CDN subdomains.
func (p *Pixabay) ServesMedia(target *url.URL) bool {
	return sameHost(target, pixabayHost, true)
}

// ProxyHeaders implements ProxyHeaderer. Pixabay's CDN checks the referrer.
func (p *Pixabay) ProxyHeaders(_ context.Context, target *url.URL) (http.Header, error) {
	h := http.Header{}
	if !p.ServesMedia(target) {
		return h, nil
	}
	h.Set("Referer", pixabayOrigin+"/")
	h.Set("Origin", pixabayOrigin)
	return h, nil
}

func mapPixabay(h pixabayHit) entity.Image {
	user := entity.CreatorOrUnknown(h.User)
	full := h.LargeImageURL
	if full == "" {
		full = h.WebformatURL
	}

	var userURL string
	if h.User != "" {
		userURL = fmt.Sprintf("%s/users/%s-%d/", pixabayOrigin, h.User, h.UserID)
	}

	return entity.Image{
		URL:             h.WebformatURL,
		FullURL:         full,
		Caption:         h.Tags,
		SourceProvider:  NamePixabay,
		ThumbnailURL:    h.PreviewURL,
		Link:            h.PageURL,
		Photographer:    user,
		PhotographerURL: userURL,
		Attribution:     fmt.Sprintf("Image by %s from Pixabay", user),
		Width:           h.ImageWidth,
		Height:          h.ImageHeight,
		License:         "Pixabay License",
		Tags:            entity.UniqueTags(strings.Split(h.Tags, ",")),
		ProviderID:      strconv.FormatInt(h.ID, 10),
	}
}

func pixabayOrientation(orientation string) string {
	switch orientation {
	case OrientationLandscape:
		return "horizontal"
	case OrientationPortrait:
		return "vertical"
	default:
		return ""
	}
}
