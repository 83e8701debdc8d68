package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func attrs(kv []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(kv))
	for _, a := range kv {
		out[a.Key] = a.Value
	}
	return out
}

func serve(h http.Handler, method, target string, hdr http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_NamesSpanByRoute(t *testing.T) {
	exporter := installRecorder(t)
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := serve(h, http.MethodPost, "/sites/3f2504e0-4f89-11d3-9a0c-0305e82c3301/posts/42/publish", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /sites/:id/posts/:postID/publish", spans[0].Name)
	a := attrs(spans[0].Attributes)
	assert.Equal(t, "POST", a["http.method"].AsString())
	assert.Equal(t, "/sites/:id/posts/:postID/publish", a["http.route"].AsString())
	assert.Equal(t, int64(http.StatusCreated), a["http.status_code"].AsInt64())
	assert.Equal(t, spans[0].SpanContext.TraceID().String(), rr.Header().Get(TraceHeader))
}

func TestMiddleware_HandlerSeesSpanInContext(t *testing.T) {
	exporter := installRecorder(t)
	var childName string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, child := GetTracer().Start(r.Context(), "wordpress.list_posts")
		childName = "wordpress.list_posts"
		child.End()
	}))

	serve(h, http.MethodGet, "/sites/abc/posts", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	child, parent := spans[0], spans[1]
	assert.Equal(t, childName, child.Name)
	assert.Equal(t, parent.SpanContext.SpanID(), child.Parent.SpanID())
	assert.Equal(t, parent.SpanContext.TraceID(), child.SpanContext.TraceID())
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	exporter := installRecorder(t)
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve(h, http.MethodGet, "/images/search", http.Header{
		"Traceparent": {"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
	})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantError bool
	}{
		{http.StatusOK, false},
		{http.StatusNotFound, false},
		{http.StatusTooManyRequests, false},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			exporter := installRecorder(t)
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			serve(h, http.MethodGet, "/sites", nil)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			if tt.wantError {
				assert.Equal(t, codes.Error, spans[0].Status.Code)
				assert.True(t, attrs(spans[0].Attributes)["error"].AsBool())
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status.Code)
				_, ok := attrs(spans[0].Attributes)["error"]
				assert.False(t, ok)
			}
		})
	}
}

func TestSetup_InstallsProviderAndPropagator(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	shutdown := Setup("test", nil)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := GetTracer().Start(context.Background(), "probe")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "baggage")
}
