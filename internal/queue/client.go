package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrScanNotFound is returned when no task exists for a scan id
var ErrScanNotFound = errors.New("scan not found")

// ScanInfo identifies an enqueued page scan
type ScanInfo struct {
	ScanID string `json:"scan_id"`
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// ScanStatus reports the progress of a page scan
type ScanStatus struct {
	ScanID      string          `json:"scan_id"`
	State       string          `json:"state"`
	Retried     int             `json:"retried"`
	LastError   string          `json:"last_error,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// Client wraps the Asynq client for enqueueing tasks
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// ClientConfig contains configuration for the queue client
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
}

// NewClient creates a new queue client
func NewClient(cfg ClientConfig) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}

	return &Client{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// newScanPayload builds a scan payload carrying the caller's trace context
func newScanPayload(ctx context.Context, scanID, url string, blocks []string) ScanPagePayload {
	payload := ScanPagePayload{
		ScanID:     scanID,
		URL:        url,
		Blocks:     blocks,
		EnqueuedAt: time.Now().UnixNano(), // Record enqueue time for queue wait metrics
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		payload.TraceID = spanCtx.TraceID().String()
		payload.SpanID = spanCtx.SpanID().String()

		span.AddEvent("task_enqueued", trace.WithAttributes(
			attribute.String("task.type", TypeScanPage),
			attribute.String("scan.id", scanID),
			attribute.Int("scan.blocks", len(blocks)),
			attribute.Int64("enqueued_at", payload.EnqueuedAt),
		))
	}
	return payload
}

// EnqueueScanPage enqueues a page scan and returns its ids
func (c *Client) EnqueueScanPage(ctx context.Context, url string, blocks []string) (ScanInfo, error) {
	scanID := uuid.NewString()
	payloadBytes, err := json.Marshal(newScanPayload(ctx, scanID, url, blocks))
	if err != nil {
		return ScanInfo{}, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TypeScanPage, payloadBytes, asynq.TaskID(scanID))
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(10 * time.Minute),
		asynq.Queue(QueueScans),
		asynq.Retention(24 * time.Hour), // Keep results readable for a day
	}

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return ScanInfo{}, fmt.Errorf("failed to enqueue scan page task: %w", err)
	}

	return ScanInfo{ScanID: scanID, TaskID: info.ID, Status: info.State.String()}, nil
}

// GetScanStatus looks up a scan task and its result
func (c *Client) GetScanStatus(ctx context.Context, scanID string) (ScanStatus, error) {
	info, err := c.inspector.GetTaskInfo(QueueScans, scanID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return ScanStatus{}, ErrScanNotFound
	}
	if err != nil {
		return ScanStatus{}, fmt.Errorf("failed to get scan task: %w", err)
	}
	return statusFromTask(info), nil
}

func statusFromTask(info *asynq.TaskInfo) ScanStatus {
	status := ScanStatus{
		ScanID:    info.ID,
		State:     info.State.String(),
		Retried:   info.Retried,
		LastError: info.LastErr,
	}
	if !info.CompletedAt.IsZero() {
		completed := info.CompletedAt
		status.CompletedAt = &completed
	}
	if len(info.Result) > 0 {
		status.Result = json.RawMessage(info.Result)
	}
	return status
}

// Close closes the client connection
func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}
