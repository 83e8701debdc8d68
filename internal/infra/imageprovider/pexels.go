package imageprovider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/resilience/retry"
)

const (
	pexelsBaseURL    = "https://api.pexels.com"
	pexelsMaxPerPage = 80
)

// Pexels searches the Pexels API using an API key sent in the Authorization header.
type Pexels struct {
	endpoint
	apiKey string
}

// NewPexels creates a Pexels adapter. An empty apiKey disables it.
func NewPexels(apiKey string, cfg Config) *Pexels {
	return &Pexels{
		endpoint: newEndpoint(NamePexels, pexelsBaseURL, cfg),
		apiKey:   apiKey,
	}
}

// Name implements Provider.
func (p *Pexels) Name() string { return p.name }

// Configured implements Provider.
func (p *Pexels) Configured() bool { return p.apiKey != "" }

type pexelsResponse struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []pexelsPhoto `json:"photos"`
}

type pexelsPhoto struct {
	ID              int64  `json:"id"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	URL             string `json:"url"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Alt             string `json:"alt"`
	Src             struct {
		Original string `json:"original"`
		Large2x  string `json:"large2x"`
		Large    string `json:"large"`
		Medium   string `json:"medium"`
		Small    string `json:"small"`
		Tiny     string `json:"tiny"`
	} `json:"src"`
}

// Search implements Provider.
func (p *Pexels) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	if !p.Configured() {
		return emptyPage(), nil
	}
	params = params.Normalize()

	q := url.Values{}
	q.Set("query", params.Query)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("per_page", strconv.Itoa(min(params.PerPage, pexelsMaxPerPage)))
	if params.Orientation != "" {
		q.Set("orientation", params.Orientation)
	}
	reqURL := p.baseURL + "/v1/search?" + q.Encode()

	header := http.Header{}
	header.Set("Authorization", p.apiKey)

	var body pexelsResponse
	err := p.observe(ctx, "search", func(ctx context.Context) error {
		return retry.WithRetry(ctx, p.retry, func(ctx context.Context) error {
			return p.getJSON(ctx, reqURL, header, &body, nil)
		})
	})
	if err != nil {
		return nil, err
	}

	images := make([]entity.Image, 0, len(body.Photos))
	for _, ph := range body.Photos {
		images = append(images, mapPexels(ph))
	}
	return &SearchPage{Images: truncate(images, params.PerPage), Total: body.TotalResults}, nil
}

func mapPexels(ph pexelsPhoto) entity.Image {
	name := entity.CreatorOrUnknown(ph.Photographer)
	primary := ph.Src.Large
	if primary == "" {
		primary = ph.Src.Medium
	}
	full := ph.Src.Original
	if full == "" {
		full = ph.Src.Large
	}
	if full == "" {
		full = primary
	}

	return entity.Image{
		URL:             primary,
		FullURL:         full,
		Caption:         ph.Alt,
		SourceProvider:  NamePexels,
		ThumbnailURL:    ph.Src.Tiny,
		Link:            ph.URL,
		Photographer:    name,
		PhotographerURL: ph.PhotographerURL,
		Attribution:     fmt.Sprintf("Photo by %s on Pexels", name),
		Width:           ph.Width,
		Height:          ph.Height,
		License:         "Pexels License",
		Tags:            []string{},
		ProviderID:      strconv.FormatInt(ph.ID, 10),
	}
}
