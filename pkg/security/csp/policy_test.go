package csp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{
			name:    "empty",
			builder: NewBuilder(),
			want:    "",
		},
		{
			name:    "fixed order regardless of call order",
			builder: NewBuilder().FrameAncestors("'none'").ImgSrc("'self'", "data:").DefaultSrc("'none'"),
			want:    "default-src 'none'; img-src 'self' data:; frame-ancestors 'none'",
		},
		{
			name:    "valueless directive",
			builder: NewBuilder().DefaultSrc("'none'").Directive("sandbox"),
			want:    "default-src 'none'; sandbox",
		},
		{
			name:    "unknown directives sorted after known ones",
			builder: NewBuilder().Directive("worker-src", "'none'").Directive("media-src", "'self'").StyleSrc("'unsafe-inline'"),
			want:    "style-src 'unsafe-inline'; media-src 'self'; worker-src 'none'",
		},
		{
			name:    "later call replaces earlier",
			builder: NewBuilder().DefaultSrc("'self'").DefaultSrc("'none'"),
			want:    "default-src 'none'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.builder.Build())
		})
	}
}

func TestBuilder_HeaderName(t *testing.T) {
	assert.Equal(t, "Content-Security-Policy", NewBuilder().HeaderName())
	assert.Equal(t, "Content-Security-Policy-Report-Only", NewBuilder().ReportOnly(true).HeaderName())
}

func TestAPIPolicy(t *testing.T) {
	assert.Equal(t,
		"default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
		APIPolicy().Build())
}

func TestHeaders(t *testing.T) {
	h := Headers(APIPolicy())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/search", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, APIPolicy().Build(), rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
}

func TestHeaders_ReportOnly(t *testing.T) {
	h := Headers(APIPolicy().ReportOnly(true))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy-Report-Only"))
}
