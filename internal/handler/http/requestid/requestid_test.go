package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "abc", FromContext(WithRequestID(context.Background(), "abc")))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "reuses client id", incoming: "editor-7f3a", keep: true},
		{name: "mints when absent", incoming: ""},
		{name: "rejects control characters", incoming: "abc\r\nX-Evil: 1"},
		{name: "rejects spaces", incoming: "a b"},
		{name: "rejects oversized ids", incoming: strings.Repeat("a", maxLen+1)},
		{name: "accepts max length", incoming: strings.Repeat("a", maxLen), keep: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/images/search", nil)
			if tt.incoming != "" {
				req.Header[http.CanonicalHeaderKey(Header)] = []string{tt.incoming}
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(Header))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
				return
			}
			_, err := uuid.Parse(seen)
			assert.NoError(t, err, "a fresh UUID replaces %q", tt.incoming)
		})
	}
}

func TestTransport_PropagatesID(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get(Header))
	}))
	defer srv.Close()
	client := Client(time.Second)

	ctx := WithRequestID(context.Background(), "req-42")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Empty(t, req.Header.Get(Header), "caller's request is not mutated")

	explicit, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	explicit.Header.Set(Header, "set-by-caller")
	resp, err = client.Do(explicit)
	require.NoError(t, err)
	_ = resp.Body.Close()

	bare, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err = client.Do(bare)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, []string{"req-42", "set-by-caller", ""}, got)
}

func TestTransport_RetriedAttemptsShareID(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(Header))
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	client := &http.Client{Transport: &Transport{Base: http.DefaultTransport}}
	ctx := WithRequestID(context.Background(), "req-retry")

	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	assert.Equal(t, []string{"req-retry", "req-retry", "req-retry"}, ids)
}
