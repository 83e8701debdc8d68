// Package mediaproxy fetches provider media on behalf of the browser.
//
// Some providers only serve images to requests carrying their own headers
// (a bearer token, a referrer). The proxy replays those headers and streams
// the bytes back with permissive CORS and a one-day cache directive.
package mediaproxy

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/respond"
	"wpdesk/internal/infra/imageprovider"
	"wpdesk/internal/resilience/retry"
)

const (
	// DefaultTimeout bounds one upstream fetch.
	DefaultTimeout = 30 * time.Second
	maxRedirects   = 5
	cacheControl   = "public, max-age=86400"
)

// copied from the upstream response
var passHeaders = []string{"Content-Type", "Content-Length", "Last-Modified", "ETag"}

// Handler serves GET /media/proxy?url=&provider=.
type Handler struct {
	Providers *imageprovider.Registry
	Client    *http.Client
	Resolver  Resolver
}

// New returns a Handler whose client refuses to dial private addresses and
// re-checks every redirect target.
func New(providers *imageprovider.Registry) *Handler {
	h := &Handler{Providers: providers, Resolver: net.DefaultResolver}
	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: dialControl}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil
	h.Client = &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			_, err := checkURL(req.Context(), h.Resolver, req.URL.String())
			return err
		},
	}
	return h
}

// Register mounts the proxy on mux. guard may be nil.
func Register(mux *http.ServeMux, h *Handler, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(h http.Handler) http.Handler { return h }
	}
	mux.Handle("GET /media/proxy", guard(h))
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	target, err := checkURL(ctx, h.Resolver, q.Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	header := http.Header{}
	if name := q.Get("provider"); name != "" {
		p, ok := h.Providers.Get(name)
		if !ok {
			writeError(w, &entity.ValidationError{Field: "provider", Message: fmt.Sprintf("unknown provider %q", name)})
			return
		}
		if ph, ok := p.(imageprovider.ProxyHeaderer); ok {
			if header, err = ph.ProxyHeaders(ctx, target); err != nil {
				respond.Err(w, http.StatusBadGateway, err)
				return
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		writeError(w, &entity.ValidationError{Field: "url", Message: "url is invalid"})
		return
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "image/*,*/*;q=0.8")

	resp, err := h.Client.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedHost) {
			writeError(w, ErrBlockedHost)
			return
		}
		slog.Warn("media proxy fetch failed",
			slog.String("host", target.Host),
			slog.Any("error", err))
		respond.Classified(w, retry.Classify(err))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respond.Classified(w, retry.Classify(&retry.HTTPError{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
		}))
		return
	}

	for _, k := range passHeaders {
		if v := resp.Header.Get(k); v != "" {
			w.Header().Set(k, v)
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Debug("media proxy stream interrupted", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBlockedHost):
		respond.JSON(w, http.StatusForbidden, respond.ErrorBody{Error: "FORBIDDEN", Message: err.Error()})
	default:
		respond.SafeError(w, http.StatusBadRequest, err)
	}
}
