package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zombar/authenticity/internal/detector"
	"github.com/zombar/authenticity/internal/models"
)

// Task type and queue names
const (
	TypeScanPage = "authenticity:scan_page"
	QueueScans   = "page-scan"
)

// MinBlockChars is the shortest block a page scan analyses
const MinBlockChars = 20

// ScanPagePayload is the payload of a page scan task
type ScanPagePayload struct {
	ScanID string   `json:"scan_id"`
	URL    string   `json:"url"`
	Blocks []string `json:"blocks"`
	// Tracing and timing fields
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
	EnqueuedAt int64  `json:"enqueued_at"` // Unix timestamp in nanoseconds
}

// BlockResult is the analysis of one block of a page
type BlockResult struct {
	Index  int                   `json:"index"`
	Result models.AnalysisResult `json:"result"`
}

// ScanSummary is written as the task result once a page has been scanned
type ScanSummary struct {
	ScanID      string        `json:"scan_id"`
	URL         string        `json:"url"`
	Analyzed    int           `json:"analyzed"`
	Skipped     int           `json:"skipped"`
	AIGenerated int           `json:"ai_generated"`
	Flagged     int           `json:"flagged"`
	Blocks      []BlockResult `json:"blocks"`
	CompletedAt time.Time     `json:"completed_at"`
}

// handleScanPage analyses every block of a page and stores the summary as the task result
func (w *Worker) handleScanPage(ctx context.Context, t *asynq.Task) error {
	var payload ScanPagePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		w.logger.Error("failed to unmarshal task payload", "error", err)
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	var queueWaitTime time.Duration
	if payload.EnqueuedAt > 0 {
		queueWaitTime = time.Since(time.Unix(0, payload.EnqueuedAt))
	}
	retryCount, _ := asynq.GetRetryCount(ctx)

	w.logger.Info("scanning page",
		"scan_id", payload.ScanID,
		"url", payload.URL,
		"blocks", len(payload.Blocks),
		"retry_count", retryCount,
		"queue_wait_seconds", queueWaitTime.Seconds(),
	)

	ctx, span := taskSpan(ctx, payload.TraceID, payload.SpanID,
		attribute.String("task.type", TypeScanPage),
		attribute.String("scan.id", payload.ScanID),
		attribute.Int("scan.blocks", len(payload.Blocks)),
		attribute.Int("retry_count", retryCount),
		attribute.Float64("queue.wait_time_seconds", queueWaitTime.Seconds()),
	)
	defer span.End()

	summary := w.ScanPage(ctx, payload)
	span.SetAttributes(
		attribute.Int("scan.analyzed", summary.Analyzed),
		attribute.Int("scan.flagged", summary.Flagged),
	)

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal scan summary: %w", err)
	}
	if rw := t.ResultWriter(); rw != nil {
		if _, err := rw.Write(data); err != nil {
			return fmt.Errorf("failed to write scan result: %w", err)
		}
	}

	w.logger.Info("page scan completed",
		"scan_id", payload.ScanID,
		"analyzed", summary.Analyzed,
		"skipped", summary.Skipped,
		"flagged", summary.Flagged,
	)
	return nil
}

// ScanPage analyses the blocks of a page. Blocks shorter than MinBlockChars are skipped.
func (w *Worker) ScanPage(ctx context.Context, payload ScanPagePayload) ScanSummary {
	summary := ScanSummary{
		ScanID: payload.ScanID,
		URL:    payload.URL,
		Blocks: []BlockResult{},
	}

	for i, block := range payload.Blocks {
		block = strings.TrimSpace(block)
		if utf8.RuneCountInString(block) < MinBlockChars {
			summary.Skipped++
			continue
		}

		res, err := w.analyzer.Analyze(ctx, detector.AnalyzeRequest{
			Text:        block,
			URL:         payload.URL,
			ContentType: detector.ContentText,
		})
		if err != nil {
			w.logger.Warn("block analysis failed", "scan_id", payload.ScanID, "index", i, "error", err)
			summary.Skipped++
			continue
		}

		summary.Analyzed++
		if res.AuthenticityStatus == models.StatusAIGenerated {
			summary.AIGenerated++
		}
		if flagged(res) {
			summary.Flagged++
		}
		summary.Blocks = append(summary.Blocks, BlockResult{Index: i, Result: res})
	}

	w.metrics.RecordScanBlocks(summary.Analyzed)
	summary.CompletedAt = time.Now().UTC()
	return summary
}

func flagged(res models.AnalysisResult) bool {
	switch res.AuthenticityStatus {
	case models.StatusManipulated, models.StatusHyperreal:
		return true
	}
	if f := res.RealTimeFlags; f != nil {
		return f.FakeNews || f.MisleadingContent || f.LowCredibility
	}
	return false
}

// taskSpan starts a consumer span, continuing the trace that enqueued the task when its ids are known
func taskSpan(ctx context.Context, traceIDHex, spanIDHex string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if traceIDHex != "" && spanIDHex != "" {
		traceID, terr := trace.TraceIDFromHex(traceIDHex)
		spanID, serr := trace.SpanIDFromHex(spanIDHex)
		if terr == nil && serr == nil {
			ctx = trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     spanID,
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			}))
		}
	}

	ctx, span := otel.Tracer("authenticity").Start(ctx, "asynq.task.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attrs...),
	)
	span.AddEvent("task_processing_started")
	return ctx, span
}
