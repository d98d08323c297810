package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/authenticity/internal/detector"
	"github.com/zombar/authenticity/internal/queue"
	"github.com/zombar/authenticity/internal/source"
	"github.com/zombar/authenticity/internal/tracing"
	"github.com/zombar/authenticity/pkg/logging"
)

const (
	minAuthorshipChars = 20
	minNewsChars       = 50
	maxBodyBytes       = 1 << 20
)

// ScanQueue enqueues page scans and reports their progress
type ScanQueue interface {
	EnqueueScanPage(ctx context.Context, url string, blocks []string) (queue.ScanInfo, error)
	GetScanStatus(ctx context.Context, scanID string) (queue.ScanStatus, error)
}

// SourceFetcher downloads the article behind a news URL
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (*source.Article, error)
}

// Handler handles HTTP requests
type Handler struct {
	service *detector.Service
	scans   ScanQueue
	fetcher SourceFetcher
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Config holds the optional collaborators of the handler. A nil Scans
// disables page scans; a nil Fetcher disables source fetching.
type Config struct {
	Scans   ScanQueue
	Fetcher SourceFetcher
	Logger  *slog.Logger
}

// NewHandler creates a new API handler with CORS support
func NewHandler(service *detector.Service, cfg Config) http.Handler {
	h := newHandler(service, cfg)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(h.mux)
}

func newHandler(service *detector.Service, cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		service: service,
		scans:   cfg.Scans,
		fetcher: cfg.Fetcher,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("GET /metrics", promhttp.Handler())
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("POST /api/ai-detect", h.handleAIDetect)
	h.mux.HandleFunc("POST /api/news-verify", h.handleNewsVerify)
	h.mux.HandleFunc("POST /api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("POST /api/scans", h.handleCreateScan)
	h.mux.HandleFunc("GET /api/scans/{id}", h.handleScanStatus)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
		"model":  h.service.ModelName(),
	}, http.StatusOK)
}

func charCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// decode reads a JSON body into v, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// handleAIDetect classifies the authorship of a text
func (h *Handler) handleAIDetect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decode(w, r, &req) {
		return
	}
	if charCount(req.Text) < minAuthorshipChars {
		respondError(w, "Text must be at least 20 characters long", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(), attribute.Int("text.length", len(req.Text)))
	respondJSON(w, h.service.DetectAuthorship(r.Context(), req.Text), http.StatusOK)
}

// handleNewsVerify rates the credibility of a news text, fetching the source
// article when the request carries a URL but too little text
func (h *Handler) handleNewsVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		URL  string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}

	text := req.Text
	if h.fetcher != nil && req.URL != "" && charCount(text) < minNewsChars {
		article, err := h.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			h.logger.WarnContext(r.Context(), "source fetch failed", "url", req.URL, "error", err)
		} else {
			text = strings.TrimSpace(strings.Join([]string{article.Title, article.Text}, "\n\n"))
			tracing.SetSpanAttributes(r.Context(), attribute.String("source.host", article.Host))
		}
	}

	if charCount(text) < minNewsChars {
		respondError(w, "News content must be at least 50 characters long", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.Int("text.length", len(text)),
		attribute.Bool("source.present", req.URL != ""))
	respondJSON(w, h.service.VerifyNews(r.Context(), text, req.URL), http.StatusOK)
}

// handleAnalyze runs the combined analysis
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req detector.AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Analyze(r.Context(), req)
	if errors.Is(err, detector.ErrNoContent) {
		respondError(w, "No content provided for analysis", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serverError(w, r, "Analysis failed", err)
		return
	}
	respondJSON(w, res, http.StatusOK)
}

// handleCreateScan queues a page scan
func (h *Handler) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		respondError(w, "Page scans are disabled", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		URL    string   `json:"url"`
		Blocks []string `json:"blocks"`
	}
	if !decode(w, r, &req) {
		return
	}
	if len(req.Blocks) == 0 {
		respondError(w, "At least one content block is required", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(), attribute.Int("scan.blocks", len(req.Blocks)))
	info, err := h.scans.EnqueueScanPage(r.Context(), req.URL, req.Blocks)
	if err != nil {
		h.serverError(w, r, "Failed to enqueue scan", err)
		return
	}
	respondJSON(w, info, http.StatusAccepted)
}

// handleScanStatus reports the state and result of a page scan
func (h *Handler) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	if h.scans == nil {
		respondError(w, "Page scans are disabled", http.StatusServiceUnavailable)
		return
	}

	status, err := h.scans.GetScanStatus(r.Context(), r.PathValue("id"))
	if errors.Is(err, queue.ErrScanNotFound) {
		respondError(w, "Scan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, r, "Failed to get scan status", err)
		return
	}
	respondJSON(w, status, http.StatusOK)
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	logging.HTTPErrorLogger(h.logger, http.StatusInternalServerError, err, r)
	respondError(w, message, http.StatusInternalServerError)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, map[string]string{"error": message}, statusCode)
}
