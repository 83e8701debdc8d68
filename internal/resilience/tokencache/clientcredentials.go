package tokencache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrMissingCredentials is returned when the client id or secret is empty.
var ErrMissingCredentials = errors.New("client credentials not configured")

// ClientCredentials exchanges a client id and secret for an access token
// using the OAuth2 client-credentials grant.
type ClientCredentials struct {
	config     clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClientCredentials creates a Fetcher for the given token endpoint.
// httpClient may be nil.
func NewClientCredentials(tokenURL, clientID, clientSecret string, httpClient *http.Client) *ClientCredentials {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ClientCredentials{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			// grant_type, client_id and client_secret go in the form body
			AuthStyle: oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// FetchToken implements Fetcher.
func (c *ClientCredentials) FetchToken(ctx context.Context) (string, time.Duration, error) {
	if c.config.ClientID == "" || c.config.ClientSecret == "" {
		return "", 0, ErrMissingCredentials
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.config.Token(ctx)
	if err != nil {
		return "", 0, err
	}

	var ttl time.Duration
	if !tok.Expiry.IsZero() {
		ttl = tok.Expiry.Sub(c.now())
	}
	return tok.AccessToken, ttl, nil
}
