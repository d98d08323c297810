package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func setupTracer(t *testing.T) (*tracetest.SpanRecorder, trace.Tracer) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder, tp.Tracer("test")
}

func TestNewScanPayloadCapturesTrace(t *testing.T) {
	recorder, tracer := setupTracer(t)

	ctx, span := tracer.Start(context.Background(), "POST /api/scans")
	payload := newScanPayload(ctx, "scan-1", "https://example.com", []string{plainBlock})
	span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), payload.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), payload.SpanID)
	assert.NotZero(t, payload.EnqueuedAt)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "task_enqueued", ended[0].Events()[0].Name)
}

func TestNewScanPayloadWithoutTrace(t *testing.T) {
	payload := newScanPayload(context.Background(), "scan-1", "", nil)
	assert.Empty(t, payload.TraceID)
	assert.Empty(t, payload.SpanID)
}

func TestHandleScanPageContinuesTrace(t *testing.T) {
	recorder, tracer := setupTracer(t)

	ctx, parent := tracer.Start(context.Background(), "enqueue")
	payload := newScanPayload(ctx, "scan-1", "", []string{plainBlock})
	parent.End()

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	w, _ := newTestWorker(&fakeAnalyzer{})
	require.NoError(t, w.mux.ProcessTask(context.Background(), asynq.NewTask(TypeScanPage, data)))

	var consumer sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() == "asynq.task.process" {
			consumer = s
		}
	}
	require.NotNil(t, consumer)
	assert.Equal(t, trace.SpanKindConsumer, consumer.SpanKind())
	assert.Equal(t, parent.SpanContext().TraceID(), consumer.SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), consumer.Parent().SpanID())
	assert.True(t, consumer.Parent().IsRemote())
}

func TestHandleScanPageWithoutTrace(t *testing.T) {
	recorder, _ := setupTracer(t)

	data, err := json.Marshal(ScanPagePayload{ScanID: "scan-2", Blocks: []string{plainBlock}})
	require.NoError(t, err)

	w, _ := newTestWorker(&fakeAnalyzer{})
	require.NoError(t, w.mux.ProcessTask(context.Background(), asynq.NewTask(TypeScanPage, data)))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.False(t, ended[0].Parent().IsValid())
}
