// Package wordpress is a client for the WordPress REST API (wp/v2).
//
// Requests authenticate with Basic auth using a username and an application
// password. Every call goes through the retry executor; failures reach the
// caller as *retry.ClassifiedError without further wrapping.
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/observability/metrics"
	"wpdesk/internal/observability/tracing"
	"wpdesk/internal/resilience/retry"
)

const (
	// DefaultTimeout bounds ordinary API calls.
	DefaultTimeout = 30 * time.Second
	// UploadTimeout bounds media uploads.
	UploadTimeout = 120 * time.Second
	// MaxUploadSize is the largest media file accepted for upload.
	MaxUploadSize = 25 << 20

	apiPrefix    = "/wp-json/wp/v2"
	maxErrorBody = 4 << 10
	providerName = "wordpress"
)

// ErrUploadTooLarge is returned when a media file exceeds MaxUploadSize.
var ErrUploadTooLarge = fmt.Errorf("media file exceeds %d bytes", MaxUploadSize)

// Credentials identify a WordPress user.
type Credentials struct {
	Username    string
	AppPassword string
}

// Client talks to one WordPress site.
type Client struct {
	baseURL     string
	creds       Credentials
	http        *http.Client
	uploadHTTP  *http.Client
	retryConfig retry.Config
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for ordinary calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithUploadHTTPClient replaces the client used for media uploads.
func WithUploadHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.uploadHTTP = c }
}

// WithRetry replaces the retry configuration.
func WithRetry(cfg retry.Config) Option {
	return func(cl *Client) { cl.retryConfig = cfg }
}

// NewClient creates a client for the site at siteURL.
func NewClient(siteURL string, creds Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(siteURL, "/"),
		creds:       creds,
		http:        &http.Client{Timeout: DefaultTimeout},
		uploadHTTP:  &http.Client{Timeout: UploadTimeout},
		retryConfig: retry.CMSConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}

	userHook := c.retryConfig.OnRetry
	c.retryConfig.OnRetry = func(attempt int, delay time.Duration, ce *retry.ClassifiedError) {
		metrics.RecordProviderRetry(providerName, string(ce.Code))
		if userHook != nil {
			userHook(attempt, delay, ce)
		}
	}
	if c.retryConfig.Name == "" {
		c.retryConfig.Name = providerName
	}
	return c
}

// request describes one REST call. body is re-read on every attempt.
type request struct {
	operation   string
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	header      http.Header
	upload      bool
}

// do executes req with retries and decodes a 2xx JSON body into out.
// It returns the headers of the successful response.
func (c *Client) do(ctx context.Context, req request, out any) (http.Header, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "wordpress."+req.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("wordpress.path", req.path),
		),
	)
	defer span.End()
	start := time.Now()

	header, err := retry.Do(ctx, c.retryConfig, func(ctx context.Context) (http.Header, error) {
		return c.attempt(ctx, req, out)
	})

	status := "success"
	if err != nil {
		ce := retry.Classify(err)
		status = string(ce.Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ce.Code))
		err = ce
	}
	metrics.RecordProviderRequest(providerName, req.operation, status, time.Since(start))
	return header, err
}

func (c *Client) attempt(ctx context.Context, req request, out any) (http.Header, error) {
	u := c.baseURL + apiPrefix + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.SetBasicAuth(c.creds.Username, c.creds.AppPassword)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	client := c.http
	if req.upload {
		client = c.uploadHTTP
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", slog.Any("error", cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", req.operation, err)
		}
	}
	return resp.Header, nil
}

// wpError is the error envelope WordPress returns on failure.
type wpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(raw))
	var env wpError
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		msg = env.Message
		if env.Code != "" {
			msg = env.Code + ": " + env.Message
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &retry.HTTPError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Message:    msg,
	}
}

func jsonBody(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

// VerifyCredentials checks that the credentials authenticate against the site.
func (c *Client) VerifyCredentials(ctx context.Context) (*User, error) {
	var u User
	if _, err := c.do(ctx, request{
		operation: "verify_credentials",
		method:    http.MethodGet,
		path:      "/users/me",
		query:     url.Values{"context": {"edit"}},
	}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// User is the authenticated WordPress user.
type User struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Roles []string `json:"roles"`
}

// Connector builds clients for stored sites with shared options.
type Connector struct {
	opts []Option
}

// NewConnector returns a Connector applying opts to every client it builds.
func NewConnector(opts ...Option) *Connector {
	return &Connector{opts: opts}
}

// Client returns a client authenticated as the site's stored user.
func (c *Connector) Client(site *entity.Site) *Client {
	return NewClient(site.URL, Credentials{Username: site.Username, AppPassword: site.AppPassword}, c.opts...)
}
