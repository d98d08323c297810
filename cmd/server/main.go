package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zombar/authenticity/internal/analyzer"
	"github.com/zombar/authenticity/internal/api"
	"github.com/zombar/authenticity/internal/cache"
	"github.com/zombar/authenticity/internal/detector"
	"github.com/zombar/authenticity/internal/metrics"
	"github.com/zombar/authenticity/internal/ollama"
	"github.com/zombar/authenticity/internal/openai"
	"github.com/zombar/authenticity/internal/queue"
	"github.com/zombar/authenticity/internal/source"
	"github.com/zombar/authenticity/internal/tracing"
	"github.com/zombar/authenticity/pkg/logging"
)

const serviceName = "authenticity"

func main() {
	// A missing .env file is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	openAIKey := getEnv("OPENAI_API_KEY", "")
	defaultProvider := "none"
	if openAIKey != "" {
		defaultProvider = "openai"
	}

	var (
		port            = flag.String("port", getEnv("PORT", "8080"), "Server port (env: PORT)")
		logLevel        = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error (env: LOG_LEVEL)")
		provider        = flag.String("provider", getEnv("MODEL_PROVIDER", defaultProvider), "Primary model provider: openai, ollama or none (env: MODEL_PROVIDER)")
		openAIModel     = flag.String("openai-model", getEnv("OPENAI_MODEL", ""), "OpenAI model, defaults per endpoint (env: OPENAI_MODEL)")
		appURL          = flag.String("app-url", getEnv("APP_URL", "http://localhost:8080"), "Public URL sent to OpenRouter (env: APP_URL)")
		ollamaURL       = flag.String("ollama-url", getEnv("OLLAMA_URL", ollama.DefaultURL), "Ollama API URL (env: OLLAMA_URL)")
		ollamaModel     = flag.String("ollama-model", getEnv("OLLAMA_MODEL", ollama.DefaultModel), "Ollama model to use (env: OLLAMA_MODEL)")
		modelTimeout    = flag.Duration("model-timeout", getEnvDuration("MODEL_TIMEOUT", detector.DefaultModelTimeout), "Timeout for one model call (env: MODEL_TIMEOUT)")
		modelRPS        = flag.Float64("model-rps", getEnvFloat("MODEL_RPS", 0), "Model calls per second, 0 for unlimited (env: MODEL_RPS)")
		maxInputChars   = flag.Int("max-input-chars", getEnvInt("MAX_INPUT_CHARS", detector.DefaultMaxInputChars), "Characters analysed per request (env: MAX_INPUT_CHARS)")
		rulesFile       = flag.String("rules-file", getEnv("RULES_FILE", ""), "YAML file with extra pattern rules (env: RULES_FILE)")
		cacheType       = flag.String("cache", getEnv("CACHE_TYPE", "memory"), "Verdict cache: none, memory or redis (env: CACHE_TYPE)")
		cacheTTL        = flag.Duration("cache-ttl", getEnvDuration("CACHE_TTL", detector.DefaultCacheTTL), "Verdict cache TTL (env: CACHE_TTL)")
		cacheSize       = flag.Int("cache-size", getEnvInt("CACHE_SIZE", 1000), "In-memory cache entries (env: CACHE_SIZE)")
		redisAddr       = flag.String("redis-addr", getEnv("REDIS_ADDR", ""), "Redis address for cache and page scans (env: REDIS_ADDR)")
		fetchSources    = flag.Bool("fetch-sources", getEnvBool("FETCH_SOURCES", false), "Fetch article text for news URLs (env: FETCH_SOURCES)")
		otelEndpoint    = flag.String("otel-endpoint", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""), "OTLP gRPC endpoint (env: OTEL_EXPORTER_OTLP_ENDPOINT)")
		scanConcurrency = flag.Int("scan-concurrency", getEnvInt("SCAN_CONCURRENCY", 4), "Page scan worker concurrency (env: SCAN_CONCURRENCY)")
	)
	flag.Parse()
	redisPassword := getEnv("REDIS_PASSWORD", "")

	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("authenticity service initializing", "version", "1.0.0")

	tp, err := tracing.InitTracer(context.Background(), serviceName, *otelEndpoint)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized", "otlp_endpoint", *otelEndpoint)
	}

	lib, err := buildLibrary(*rulesFile)
	if err != nil {
		logger.Error("failed to build pattern library", "error", err, "rules_file", *rulesFile)
		os.Exit(1)
	}
	logger.Info("pattern library loaded", "rules", lib.Len(), "rules_file", *rulesFile)

	m := metrics.New(prometheus.DefaultRegisterer)

	opts := []detector.Option{detector.WithMetrics(m), detector.WithLogger(logger)}

	verdictCache, err := cache.New(cache.Config{
		Type:          *cacheType,
		MaxSize:       *cacheSize,
		RedisAddr:     *redisAddr,
		RedisPassword: redisPassword,
	})
	if err != nil {
		logger.Warn("failed to initialize cache, continuing without cache", "error", err, "cache_type", *cacheType)
	} else if verdictCache != nil {
		defer verdictCache.Close()
		opts = append(opts, detector.WithCache(verdictCache))
		logger.Info("verdict cache enabled", "cache_type", *cacheType, "ttl", *cacheTTL)
	}

	completer, err := newCompleter(*provider, openai.Config{
		APIKey: openAIKey,
		Model:  *openAIModel,
		AppURL: *appURL,
	}, *ollamaURL, *ollamaModel)
	if err != nil {
		logger.Warn("failed to initialize model client, using heuristic analysis only",
			"error", err,
			"provider", *provider,
		)
	} else if completer != nil {
		opts = append(opts, detector.WithPrimary(detector.NewModelDetector(completer)))
		logger.Info("primary model configured", "model", completer.Name())
	} else {
		logger.Info("no model provider configured, using heuristic analysis only")
	}

	service := detector.NewService(analyzer.NewEngine(lib), detector.Config{
		MaxInputChars: *maxInputChars,
		ModelTimeout:  *modelTimeout,
		CacheTTL:      *cacheTTL,
		ModelRPS:      *modelRPS,
	}, opts...)

	handlerCfg := api.Config{Logger: logger}
	if *fetchSources {
		handlerCfg.Fetcher = source.NewFetcher(source.DefaultTimeout, source.DefaultMaxBytes)
	}

	var worker *queue.Worker
	if *redisAddr != "" {
		queueClient := queue.NewClient(queue.ClientConfig{RedisAddr: *redisAddr, RedisPassword: redisPassword})
		defer queueClient.Close()
		handlerCfg.Scans = queueClient

		worker = queue.NewWorker(queue.WorkerConfig{
			RedisAddr:     *redisAddr,
			RedisPassword: redisPassword,
			Concurrency:   *scanConcurrency,
		}, service, m, logger)
		go func() {
			if err := worker.Start(); err != nil {
				logger.Error("page scan worker stopped", "error", err)
			}
		}()
	} else {
		logger.Info("REDIS_ADDR not set, page scans disabled")
	}

	apiHandler := api.NewHandler(service, handlerCfg)

	// Middleware chain: tracing -> HTTP logging -> handlers
	handler := tracing.HTTPMiddleware(serviceName)(
		logging.HTTPLoggingMiddleware(logger)(apiHandler),
	)

	srv := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2*(*modelTimeout) + 30*time.Second, // news analysis may run two model calls
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("authenticity service starting",
			"port", *port,
			"model", service.ModelName(),
			"cache", *cacheType,
			"page_scans", *redisAddr != "",
			"fetch_sources", *fetchSources,
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if worker != nil {
		worker.Shutdown()
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildLibrary returns the default pattern library plus any rules from path
func buildLibrary(path string) (*analyzer.Library, error) {
	lib := analyzer.DefaultLibrary()
	if path == "" {
		return lib, nil
	}
	rules, err := analyzer.LoadRuleFile(path)
	if err != nil {
		return nil, err
	}
	return lib.With(rules...)
}

// newCompleter creates the model client for provider. It returns nil, nil when
// no provider is configured.
func newCompleter(provider string, openAICfg openai.Config, ollamaURL, ollamaModel string) (detector.Completer, error) {
	switch provider {
	case "", "none":
		return nil, nil
	case "openai":
		if openAICfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		c, err := openai.New(openAICfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ollama":
		c, err := ollama.New(ollamaURL, ollamaModel)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", provider)
	}
}

func parseLogLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") or whole seconds ("45")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
