package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zombar/authenticity/internal/tracing"
)

func findSpan(spans tracetest.SpanStubs, name string) *tracetest.SpanStub {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

// TestAIDetectTracing checks that classification spans are children of the request span
func TestAIDetectTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := setupTestHandler(t, Config{})
	handler := tracing.HTTPMiddleware("authenticity")(h.mux)

	req := httptest.NewRequest(http.MethodPost, "/api/ai-detect", strings.NewReader(`{"text":"`+transitionText+`"}`))
	req.Header.Set(tracing.RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(tracing.RequestIDHeader))
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	server := findSpan(spans, "POST /api/ai-detect")
	classify := findSpan(spans, "detector.authorship")
	require.NotNil(t, server)
	require.NotNil(t, classify)

	assert.Equal(t, server.SpanContext.TraceID(), classify.SpanContext.TraceID())
	assert.Equal(t, server.SpanContext.SpanID(), classify.Parent.SpanID())

	attrs := map[string]any{}
	for _, kv := range classify.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "fallback", attrs["detector.path"])
	assert.Equal(t, "ai_generated", attrs["detector.status"])

	serverAttrs := map[string]any{}
	for _, kv := range server.Attributes {
		serverAttrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(len(transitionText)), serverAttrs["text.length"])
	assert.Equal(t, int64(http.StatusOK), serverAttrs["http.status_code"])
}

func TestAnalyzeTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := setupTestHandler(t, Config{})
	handler := tracing.HTTPMiddleware("authenticity")(h.mux)

	body := `{"text":"According to Reuters, the minister announced the new policy on Tuesday."}`
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	analyze := findSpan(spans, "detector.analyze")
	require.NotNil(t, analyze)
	require.NotNil(t, findSpan(spans, "detector.authorship"))
	require.NotNil(t, findSpan(spans, "detector.news"))
	assert.Equal(t, analyze.SpanContext.SpanID(), findSpan(spans, "detector.news").Parent.SpanID())
}
