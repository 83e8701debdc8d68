package posts_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wpdesk/internal/domain/entity"
	"wpdesk/internal/handler/http/posts"
	"wpdesk/internal/infra/wordpress"
	"wpdesk/internal/resilience/retry"
	postUC "wpdesk/internal/usecase/post"
	siteUC "wpdesk/internal/usecase/site"
)

const siteID = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"

type fakeSites map[string]*entity.Site

func (f fakeSites) Get(_ context.Context, id string) (*entity.Site, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return nil, siteUC.ErrSiteNotFound
}

// setup wires the handlers to the real WordPress client pointed at wp.
func setup(t *testing.T, wp http.Handler) *http.ServeMux {
	t.Helper()
	srv := httptest.NewServer(wp)
	t.Cleanup(srv.Close)

	connector := wordpress.NewConnector(wordpress.WithRetry(retry.Config{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}))
	svc := &postUC.Service{
		Sites: fakeSites{siteID: {ID: siteID, URL: srv.URL, Username: "editor", AppPassword: "pw"}},
		Connect: func(site *entity.Site) postUC.CMS {
			return connector.Client(site)
		},
	}
	mux := http.NewServeMux()
	posts.Register(mux, svc, nil)
	return mux
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestList_PassesFiltersAndTotals(t *testing.T) {
	mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/posts", r.URL.Path)
		assert.Equal(t, "draft", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "1,5", r.URL.Query().Get("categories"))
		w.Header().Set("X-WP-Total", "12")
		w.Header().Set("X-WP-TotalPages", "3")
		_, _ = io.WriteString(w, `[{"id":4,"status":"draft","title":{"raw":"Hi"}}]`)
	}))

	rec := serve(mux, httptest.NewRequest(http.MethodGet,
		"/sites/"+siteID+"/posts?status=draft&page=2&categories=1,5", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list entity.PostList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 12, list.Total)
	assert.Equal(t, 3, list.TotalPages)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, "Hi", list.Posts[0].Title)
}

func TestCreate_DefaultsToDraft(t *testing.T) {
	var sent map[string]any
	mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = io.WriteString(w, `{"id":9,"status":"draft","title":{"raw":"New"}}`)
	}))

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/sites/"+siteID+"/posts",
		strings.NewReader(`{"title":"New","content":"<p>body</p>"}`)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "draft", sent["status"])
	assert.Equal(t, "New", sent["title"])
}

func TestPublishAndDelete(t *testing.T) {
	var gotStatus, gotForce string
	mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotStatus, _ = body["status"].(string)
			_, _ = io.WriteString(w, `{"id":3,"status":"publish"}`)
		case http.MethodDelete:
			gotForce = r.URL.Query().Get("force")
			_, _ = io.WriteString(w, `{"deleted":true}`)
		}
	}))

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/sites/"+siteID+"/posts/3/publish", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "publish", gotStatus)

	rec = serve(mux, httptest.NewRequest(http.MethodDelete, "/sites/"+siteID+"/posts/3?force=true", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", gotForce)
}

func TestUpstreamFailuresKeepClassification(t *testing.T) {
	t.Run("not found keeps 404", func(t *testing.T) {
		mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"code":"rest_post_invalid_id","message":"Invalid post ID."}`)
		}))
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/sites/"+siteID+"/posts/77", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
	})

	t.Run("exhausted 503 becomes 503", func(t *testing.T) {
		calls := 0
		mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		rec := serve(mux, httptest.NewRequest(http.MethodGet, "/sites/"+siteID+"/categories", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"SERVICE_UNAVAILABLE"`)
		assert.Equal(t, 2, calls)
	})
}

func TestMediaUpload(t *testing.T) {
	var disposition, contentType string
	var size int
	mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/media", r.URL.Path)
		disposition = r.Header.Get("Content-Disposition")
		contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		size = len(b)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":21,"source_url":"https://blog.example/cat.png","mime_type":"image/png"}`)
	}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="../../cat.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nrest"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/sites/"+siteID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := serve(mux, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, disposition, `filename=cat.png`)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, 12, size)

	var m entity.Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, int64(21), m.ID)
}

func TestMediaUpload_MissingFile(t *testing.T) {
	mux := setup(t, http.NotFoundHandler())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/sites/"+siteID+"/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(mux, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file is required")
}

func TestTerms(t *testing.T) {
	mux := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WP-TotalPages", "1")
		_, _ = io.WriteString(w, `[{"id":5,"name":"golang","slug":"golang","count":3}]`)
	}))

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/sites/"+siteID+"/tags", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var terms []entity.Term
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &terms))
	require.Len(t, terms, 1)
	assert.Equal(t, "post_tag", terms[0].Taxonomy)
}

func TestBadRequests(t *testing.T) {
	mux := setup(t, http.NotFoundHandler())

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown site", http.MethodGet, "/sites/9b2e5b4e-8f41-4f7a-9d3c-1a2b3c4d5e6f/posts", "", http.StatusNotFound},
		{"bad site id", http.MethodGet, "/sites/nope/posts", "", http.StatusBadRequest},
		{"bad post id", http.MethodGet, "/sites/" + siteID + "/posts/abc", "", http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/sites/" + siteID + "/posts?status=archived", "", http.StatusBadRequest},
		{"bad categories", http.MethodGet, "/sites/" + siteID + "/posts?categories=a,b", "", http.StatusBadRequest},
		{"missing title", http.MethodPost, "/sites/" + siteID + "/posts", `{"content":"x"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPut, "/sites/" + siteID + "/posts/2", `{`, http.StatusBadRequest},
		{"bad force", http.MethodDelete, "/sites/" + siteID + "/posts/2?force=maybe", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			rec := serve(mux, httptest.NewRequest(tt.method, tt.target, body))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}
