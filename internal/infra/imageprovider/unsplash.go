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
	unsplashBaseURL    = "https://api.unsplash.com"
	unsplashMaxPerPage = 30
)

// Unsplash searches the Unsplash API using an access key.
type Unsplash struct {
	endpoint
	accessKey string
}

// NewUnsplash creates an Unsplash adapter. An empty accessKey disables it.
func NewUnsplash(accessKey string, cfg Config) *Unsplash {
	return &Unsplash{
		endpoint:  newEndpoint(NameUnsplash, unsplashBaseURL, cfg),
		accessKey: accessKey,
	}
}

// Name implements Provider.
func (u *Unsplash) Name() string { return u.name }

// Configured implements Provider.
func (u *Unsplash) Configured() bool { return u.accessKey != "" }

type unsplashResponse struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []unsplashPhoto `json:"results"`
}

type unsplashPhoto struct {
	ID             string `json:"id"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Raw     string `json:"raw"`
		Full    string `json:"full"`
		Regular string `json:"regular"`
		Small   string `json:"small"`
		Thumb   string `json:"thumb"`
	} `json:"urls"`
	Links struct {
		HTML string `json:"html"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Tags []struct {
		Title string `json:"title"`
	} `json:"tags"`
}

// Search implements Provider.
func (u *Unsplash) Search(ctx context.Context, params SearchParams) (*SearchPage, error) {
	if !u.Configured() {
		return emptyPage(), nil
	}
	params = params.Normalize()

	q := url.Values{}
	q.Set("query", params.Query)
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("per_page", strconv.Itoa(min(params.PerPage, unsplashMaxPerPage)))
	q.Set("content_filter", "high")
	if o := unsplashOrientation(params.Orientation); o != "" {
		q.Set("orientation", o)
	}
	reqURL := u.baseURL + "/search/photos?" + q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Client-ID "+u.accessKey)
	header.Set("Accept-Version", "v1")

	var body unsplashResponse
	err := u.observe(ctx, "search", func(ctx context.Context) error {
		return retry.WithRetry(ctx, u.retry, func(ctx context.Context) error {
			return u.getJSON(ctx, reqURL, header, &body, nil)
		})
	})
	if err != nil {
		return nil, err
	}

	images := make([]entity.Image, 0, len(body.Results))
	for _, p := range body.Results {
		images = append(images, mapUnsplash(p))
	}
	return &SearchPage{Images: truncate(images, params.PerPage), Total: body.Total}, nil
}

func mapUnsplash(p unsplashPhoto) entity.Image {
	name := entity.CreatorOrUnknown(p.User.Name)
	primary := p.URLs.Regular
	if primary == "" {
		primary = p.URLs.Small
	}
	full := p.URLs.Full
	if full == "" {
		full = primary
	}
	caption := p.Description
	if caption == "" {
		caption = p.AltDescription
	}

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Title)
	}

	return entity.Image{
		URL:             primary,
		FullURL:         full,
		Caption:         caption,
		SourceProvider:  NameUnsplash,
		ThumbnailURL:    p.URLs.Thumb,
		Link:            p.Links.HTML,
		Photographer:    name,
		PhotographerURL: p.User.Links.HTML,
		Attribution:     fmt.Sprintf("Photo by %s on Unsplash", name),
		Width:           p.Width,
		Height:          p.Height,
		License:         "Unsplash License",
		Tags:            entity.UniqueTags(tags),
		ProviderID:      p.ID,
	}
}

func unsplashOrientation(orientation string) string {
	switch orientation {
	case OrientationLandscape, OrientationPortrait:
		return orientation
	case OrientationSquare:
		return "squarish"
	default:
		return ""
	}
}
