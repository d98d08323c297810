package detector

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/zombar/authenticity/internal/analyzer"
	"github.com/zombar/authenticity/internal/cache"
	"github.com/zombar/authenticity/internal/metrics"
	"github.com/zombar/authenticity/internal/models"
	"github.com/zombar/authenticity/internal/tracing"
)

// Operation names used for cache keys, metrics and spans
const (
	OpAuthorship = "authorship"
	OpNews       = "news"
	OpAnalyze    = "analyze"
)

// Fallback reasons
const (
	reasonTimeout   = "timeout"
	reasonRateLimit = "rate_limit"
	reasonInvalid   = "invalid_response"
	reasonError     = "error"
)

const (
	DefaultMaxInputChars = 20000
	DefaultModelTimeout  = 30 * time.Second
	DefaultCacheTTL      = time.Hour
)

// Config tunes the service. Zero values select the defaults.
type Config struct {
	MaxInputChars int
	ModelTimeout  time.Duration
	CacheTTL      time.Duration
	// ModelRPS limits primary model calls per second. Zero disables the limiter.
	ModelRPS float64
}

// Service runs the primary detector when one is configured and the heuristic
// engine otherwise, or whenever the primary fails.
type Service struct {
	engine   *analyzer.Engine
	primary  Detector
	fallback Detector
	cache    cache.Cache
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
}

// Option configures a Service
type Option func(*Service)

// WithPrimary sets the detector tried before the heuristic engine
func WithPrimary(d Detector) Option {
	return func(s *Service) { s.primary = d }
}

// WithCache stores primary verdicts in c
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a detector service around engine
func NewService(engine *analyzer.Engine, cfg Config, opts ...Option) *Service {
	if engine == nil {
		engine = analyzer.NewEngine(nil)
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = DefaultMaxInputChars
	}
	if cfg.ModelTimeout <= 0 {
		cfg.ModelTimeout = DefaultModelTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	s := &Service{
		engine:   engine,
		fallback: NewHeuristic(engine),
		logger:   slog.Default(),
		cfg:      cfg,
	}
	if cfg.ModelRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.ModelRPS), max(1, int(cfg.ModelRPS)))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the heuristic engine
func (s *Service) Engine() *analyzer.Engine {
	return s.engine
}

// ModelName names the detector tried first
func (s *Service) ModelName() string {
	if s.primary != nil {
		return s.primary.Name()
	}
	return s.fallback.Name()
}

// truncate caps text at the configured number of characters
func (s *Service) truncate(text string) string {
	if utf8.RuneCountInString(text) <= s.cfg.MaxInputChars {
		return text
	}
	return string([]rune(text)[:s.cfg.MaxInputChars])
}

// DetectAuthorship classifies text as AI-generated or human-written
func (s *Service) DetectAuthorship(ctx context.Context, text string) models.AuthorshipResult {
	start := time.Now()
	text = s.truncate(text)

	ctx, span := tracing.StartSpan(ctx, "detector.authorship", attribute.Int("text.length", len(text)))
	defer span.End()

	path, modelUsed := models.PathPrimary, s.ModelName()
	v, ok := runPrimary(ctx, s, OpAuthorship, cache.Key(OpAuthorship, s.ModelName(), text),
		func(ctx context.Context) (models.Verdict, error) {
			return s.primary.DetectAuthorship(ctx, text)
		})
	if !ok {
		path, modelUsed = models.PathFallback, s.fallback.Name()
		v, _ = s.fallback.DetectAuthorship(ctx, text)
	}

	elapsed := time.Since(start)
	s.metrics.RecordClassification(OpAuthorship, path, string(v.Status), elapsed)
	span.SetAttributes(
		attribute.String("detector.path", path),
		attribute.String("detector.status", string(v.Status)),
		attribute.Float64("detector.confidence", v.Confidence),
	)

	return models.AuthorshipResult{
		Verdict:        v,
		AnalysisTimeMs: elapsed.Milliseconds(),
		ModelUsed:      modelUsed,
		Path:           path,
	}
}

// VerifyNews rates the credibility of a news text
func (s *Service) VerifyNews(ctx context.Context, text, sourceURL string) models.NewsResult {
	start := time.Now()
	text = s.truncate(text)

	ctx, span := tracing.StartSpan(ctx, "detector.news",
		attribute.Int("text.length", len(text)),
		attribute.Bool("source.present", sourceURL != ""),
	)
	defer span.End()

	path, modelUsed := models.PathPrimary, s.ModelName()
	v, ok := runPrimary(ctx, s, OpNews, cache.Key(OpNews, s.ModelName(), text, sourceURL),
		func(ctx context.Context) (models.NewsVerdict, error) {
			return s.primary.VerifyNews(ctx, text, sourceURL)
		})
	if !ok {
		path, modelUsed = models.PathFallback, s.fallback.Name()
		v, _ = s.fallback.VerifyNews(ctx, text, sourceURL)
	}

	elapsed := time.Since(start)
	s.metrics.RecordClassification(OpNews, path, string(v.Authenticity), elapsed)
	span.SetAttributes(
		attribute.String("detector.path", path),
		attribute.String("detector.status", string(v.Authenticity)),
		attribute.Int("detector.credibility", v.CredibilityScore),
	)

	return models.NewsResult{
		NewsVerdict:        v,
		VerificationTimeMs: elapsed.Milliseconds(),
		ModelUsed:          modelUsed,
		Path:               path,
	}
}

// runPrimary returns the primary verdict from cache or from the primary
// detector. It reports false when there is no primary or the call failed.
func runPrimary[T any](ctx context.Context, s *Service, op, key string, call func(context.Context) (T, error)) (T, bool) {
	var zero T
	if s.primary == nil {
		return zero, false
	}

	if v, ok := cacheGet[T](ctx, s, key); ok {
		return v, true
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ModelTimeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(callCtx); err != nil {
			s.primaryFailed(ctx, op, reasonRateLimit, err)
			return zero, false
		}
	}

	v, err := call(callCtx)
	if err != nil {
		s.primaryFailed(ctx, op, failureReason(err), err)
		return zero, false
	}

	cacheSet(ctx, s, key, v)
	return v, true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	case errors.Is(err, ErrNoJSONObject), errors.Is(err, ErrInvalidResponse):
		return reasonInvalid
	default:
		return reasonError
	}
}

func (s *Service) primaryFailed(ctx context.Context, op, reason string, err error) {
	s.logger.WarnContext(ctx, "primary detector failed, using fallback",
		"operation", op,
		"model", s.primary.Name(),
		"reason", reason,
		"error", err)
	s.metrics.RecordFallback(op, reason)
	tracing.SetSpanAttributes(ctx, attribute.String("detector.fallback_reason", reason))
}

func cacheGet[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var v T
	if s.cache == nil {
		return v, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "cache lookup failed", "key", key, "error", err)
		return v, false
	}
	if data == nil {
		s.metrics.RecordCache(false)
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key, "error", err)
		s.metrics.RecordCache(false)
		return v, false
	}
	s.metrics.RecordCache(true)
	return v, true
}

func cacheSet[T any](ctx context.Context, s *Service, key string, v T) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode verdict for cache", "key", key, "error", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "cache store failed", "key", key, "error", err)
	}
}
