package imageprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpdesk/internal/resilience/retry"
)

type fakeOpenverse struct {
	tokenCalls  int32
	searchCalls int32

	mu        sync.Mutex
	tokens    []string
	reject    map[string]bool
	tokenFail bool
}

func (f *fakeOpenverse) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth_tokens/token/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&f.tokenCalls, 1)
		if f.tokenFail {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		tok := "tok-" + string(rune('0'+n))
		f.mu.Lock()
		f.tokens = append(f.tokens, tok)
		f.mu.Unlock()
		writeJSON(w, `{"access_token":"`+tok+`","token_type":"Bearer","expires_in":36000}`)
	})
	mux.HandleFunc("GET /v1/images/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.searchCalls, 1)
		auth := r.Header.Get("Authorization")
		f.mu.Lock()
		rejected := f.reject[auth]
		f.mu.Unlock()
		if rejected {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "cat", r.URL.Query().Get("q"))
		assert.Equal(t, "by", r.URL.Query().Get("license"))
		assert.Equal(t, "photograph", r.URL.Query().Get("category"))
		assert.Equal(t, "3", r.URL.Query().Get("page_size"))
		writeJSON(w, `{"result_count":120,"page_count":40,"results":[
			{"id":"ov-1","title":"Cat on a wall","url":"https://img/1.jpg","thumbnail":"https://api/thumb/1","creator":"","creator_url":"",
			 "license":"by","license_version":"4.0","foreign_landing_url":"https://flickr/1","width":1024,"height":768,
			 "tags":[{"name":"cat"},{"name":"wall"}]},
			{"id":"ov-2","title":"","url":"https://img/2.jpg","creator":"Dee","license":"cc0","license_version":"1.0","foreign_landing_url":"https://wiki/2"}
		]}`)
	})
	return mux
}

func TestOpenverse_Search(t *testing.T) {
	fake := &fakeOpenverse{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	o := NewOpenverse("id", "secret", testConfig(srv.URL))
	params := SearchParams{Query: "cat", PerPage: 3, License: "by", Category: "photograph"}

	page, err := o.Search(context.Background(), params)
	require.NoError(t, err)
	_, err = o.Search(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls), "token is served from cache")
	assert.Equal(t, 120, page.Total)
	require.Len(t, page.Images, 2)

	first := page.Images[0]
	assert.Equal(t, "https://img/1.jpg", first.URL)
	assert.Equal(t, "https://img/1.jpg", first.FullURL)
	assert.Equal(t, "https://api/thumb/1", first.ThumbnailURL)
	assert.Equal(t, "Unknown", first.Photographer)
	assert.Equal(t, "Photo by Unknown via Openverse", first.Attribution)
	assert.Equal(t, "CC BY 4.0", first.License)
	assert.Equal(t, []string{"cat", "wall"}, first.Tags)

	second := page.Images[1]
	assert.Equal(t, "Photo by Dee via Openverse", second.Attribution)
	assert.Equal(t, "CC0 1.0", second.License)
	assert.Equal(t, "https://img/2.jpg", second.ThumbnailURL, "thumbnail falls back to the primary URL")
}

func TestOpenverse_InvalidatesTokenOn401(t *testing.T) {
	fake := &fakeOpenverse{reject: map[string]bool{"Bearer tok-1": true}}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	o := NewOpenverse("id", "secret", testConfig(srv.URL))
	params := SearchParams{Query: "cat", PerPage: 3, License: "by", Category: "photograph"}

	_, err := o.Search(context.Background(), params)
	var ce *retry.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, retry.CodeUnauthorized, ce.Code)

	_, err = o.Search(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fake.tokenCalls))
}

func TestOpenverse_TokenFailureIsUnauthorized(t *testing.T) {
	fake := &fakeOpenverse{tokenFail: true}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	_, err := NewOpenverse("id", "wrong", testConfig(srv.URL)).Search(context.Background(), SearchParams{Query: "cat"})

	var ce *retry.ClassifiedError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, retry.CodeUnauthorized, ce.Code)
	assert.Equal(t, "check your credentials", ce.Suggestion)
	assert.Zero(t, atomic.LoadInt32(&fake.searchCalls))
}

func TestOpenverse_ProxyHeadersOnlyForAPIHost(t *testing.T) {
	fake := &fakeOpenverse{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	ov := NewOpenverse("id", "secret", testConfig(srv.URL))

	apiThumb, err := url.Parse(srv.URL + "/v1/images/ov-1/thumb/")
	require.NoError(t, err)
	h, err := ov.ProxyHeaders(context.Background(), apiThumb)
	require.NoError(t, err)
	assert.True(t, ov.ServesMedia(apiThumb))
	assert.Equal(t, "Bearer tok-1", h.Get("Authorization"))

	for _, raw := range []string{
		"https://attacker.example/steal.png",
		"https://live.staticflickr.com/1/2.jpg",
		"https://127.0.0.1.attacker.example/x.png",
	} {
		t.Run(raw, func(t *testing.T) {
			target, err := url.Parse(raw)
			require.NoError(t, err)

			h, err := ov.ProxyHeaders(context.Background(), target)

			require.NoError(t, err)
			assert.False(t, ov.ServesMedia(target))
			assert.Empty(t, h.Get("Authorization"))
		})
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls), "off-host targets never fetch a token")
}

type countingTransport struct {
	calls int32
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return http.DefaultTransport.RoundTrip(req)
}

func TestOpenverse_TokenFetchUsesConfiguredClient(t *testing.T) {
	fake := &fakeOpenverse{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()
	rt := &countingTransport{}
	cfg := testConfig(srv.URL)
	cfg.HTTPClient = &http.Client{Transport: rt}

	target, err := url.Parse(srv.URL + "/thumb.jpg")
	require.NoError(t, err)
	_, err = NewOpenverse("id", "secret", cfg).ProxyHeaders(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.tokenCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&rt.calls))
}
