package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/zombar/authenticity/internal/detector"
	"github.com/zombar/authenticity/internal/metrics"
	"github.com/zombar/authenticity/internal/models"
)

// Analyzer analyses one block of content
type Analyzer interface {
	Analyze(ctx context.Context, req detector.AnalyzeRequest) (models.AnalysisResult, error)
}

// Worker wraps the Asynq server for processing tasks
type Worker struct {
	server      *asynq.Server
	mux         *asynq.ServeMux
	analyzer    Analyzer
	metrics     *metrics.Metrics
	concurrency int
	logger      *slog.Logger
}

// WorkerConfig contains configuration for the queue worker
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	Concurrency   int
}

// scanRetryDelays back off 1m, 5m, 15m
var scanRetryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
}

func scanRetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < len(scanRetryDelays) {
		return scanRetryDelays[n]
	}
	return scanRetryDelays[len(scanRetryDelays)-1]
}

// NewWorker creates a new queue worker
func NewWorker(cfg WorkerConfig, analyzer Analyzer, m *metrics.Metrics, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}

	serverCfg := asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueScans: 1,
		},
		RetryDelayFunc:  scanRetryDelay,
		ShutdownTimeout: 30 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			logger.Error("task processing error",
				"task_type", task.Type(),
				"error", err,
				"retry_count", retried,
				"max_retries", maxRetry,
			)
		}),
	}

	w := &Worker{
		server:      asynq.NewServer(redisOpt, serverCfg),
		mux:         asynq.NewServeMux(),
		analyzer:    analyzer,
		metrics:     m,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
	w.registerHandlers()
	return w
}

func (w *Worker) registerHandlers() {
	w.mux.HandleFunc(TypeScanPage, w.handleScanPage)
}

// Start starts the worker to begin processing tasks. It blocks until shutdown.
func (w *Worker) Start() error {
	w.logger.Info("starting asynq worker",
		"concurrency", w.concurrency,
		"queue", QueueScans,
	)

	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the worker
func (w *Worker) Shutdown() {
	w.logger.Info("shutting down asynq worker")
	w.server.Shutdown()
}
