package imageprovider

import (
	"context"
	"encoding/json"
	"errors"
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

	"wpdesk/internal/observability/metrics"
	"wpdesk/internal/observability/tracing"
	"wpdesk/internal/resilience/retry"
)

// maxErrorBody bounds how much of an error response is kept for the message.
const maxErrorBody = 4 << 10

// maxResponseBody bounds a decoded search response.
const maxResponseBody = 8 << 20

// endpoint is the HTTP plumbing shared by the adapters.
type endpoint struct {
	name    string
	baseURL string
	client  *http.Client
	retry   retry.Config
}

func newEndpoint(name, defaultBaseURL string, cfg Config) endpoint {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	rc := cfg.Retry
	if rc.MaxRetries == 0 && rc.BaseDelay == 0 {
		def := retry.DefaultConfig()
		rc.MaxRetries, rc.BaseDelay = def.MaxRetries, def.BaseDelay
	}
	rc.Name = name
	userHook := rc.OnRetry
	rc.OnRetry = func(attempt int, delay time.Duration, ce *retry.ClassifiedError) {
		metrics.RecordProviderRetry(name, string(ce.Code))
		if userHook != nil {
			userHook(attempt, delay, ce)
		}
	}

	return endpoint{name: name, baseURL: baseURL, client: client, retry: rc}
}

// observe wraps one logical provider operation, retries included, in a span
// and records its outcome.
func (e *endpoint) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.GetTracer().Start(ctx, e.name+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider", e.name)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	status := "success"
	if err != nil {
		ce := retry.Classify(err)
		status = string(ce.Code)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ce.Code))
		span.SetAttributes(attribute.Int("http.status_code", ce.HTTPStatus))
	}
	metrics.RecordProviderRequest(e.name, operation, status, time.Since(start))
	return err
}

// getJSON performs one GET attempt and decodes a 2xx body into out.
// inspect, when set, sees every response before its status is checked.
func (e *endpoint) getJSON(ctx context.Context, rawURL string, header http.Header, out any, inspect func(*http.Response)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", e.name, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redactURL(urlErr.URL)
		}
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Debug("failed to close response body", slog.String("provider", e.name), slog.Any("error", cerr))
		}
	}()

	if inspect != nil {
		inspect(resp)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", e.name, err)
	}
	return nil
}

// secretParams are query parameters that carry credentials.
var secretParams = []string{"key", "client_id", "client_secret", "access_token"}

// redactURL masks credentials in a request URL so transport errors can be logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// responseError converts a non-2xx response into a retry.HTTPError.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &retry.HTTPError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Message:    msg,
	}
}
