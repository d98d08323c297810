package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/authenticity/internal/analyzer"
	"github.com/zombar/authenticity/internal/cache"
	"github.com/zombar/authenticity/internal/metrics"
	"github.com/zombar/authenticity/internal/models"
)

const transitionText = "Furthermore, the committee reviewed the proposal in considerable detail before the meeting. " +
	"Moreover, the members agreed that the budget required careful adjustment this year. " +
	"It's important to note that the final decision will depend on several external factors."

const newsText = "According to Reuters, the minister announced the new policy on Tuesday."

type fakeDetector struct {
	mu       sync.Mutex
	verdict  models.Verdict
	news     models.NewsVerdict
	err      error
	block    bool
	calls    int
	lastText string
}

func (f *fakeDetector) record(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastText = text
}

func (f *fakeDetector) DetectAuthorship(ctx context.Context, text string) (models.Verdict, error) {
	f.record(text)
	if f.block {
		<-ctx.Done()
		return models.Verdict{}, ctx.Err()
	}
	return f.verdict, f.err
}

func (f *fakeDetector) VerifyNews(ctx context.Context, text, _ string) (models.NewsVerdict, error) {
	f.record(text)
	if f.block {
		<-ctx.Done()
		return models.NewsVerdict{}, ctx.Err()
	}
	return f.news, f.err
}

func (f *fakeDetector) Name() string { return "fake/model" }

func primaryVerdict() models.Verdict {
	return models.Verdict{
		Status:           models.StatusAuthentic,
		Confidence:       80,
		AIProbability:    20,
		HumanProbability: 80,
		Reasoning:        "Personal voice.",
		Breakdown:        models.Breakdown{AIGenerated: 10, AIRefined: 10, HumanRefined: 30, HumanWritten: 50},
	}
}

func newTestService(t *testing.T, cfg Config, opts ...Option) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return NewService(analyzer.NewEngine(nil), cfg, append(opts, WithMetrics(m))...), m
}

func TestServiceWithoutPrimary(t *testing.T) {
	s, m := newTestService(t, Config{})

	res := s.DetectAuthorship(context.Background(), transitionText)

	assert.Equal(t, models.PathFallback, res.Path)
	assert.Equal(t, HeuristicName, res.ModelUsed)
	assert.Equal(t, models.StatusAIGenerated, res.Status)
	assert.Equal(t, HeuristicName, s.ModelName())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues(OpAuthorship, models.PathFallback, "ai_generated")))
	assert.Zero(t, testutil.CollectAndCount(m.Fallbacks))
}

func TestServicePrimary(t *testing.T) {
	primary := &fakeDetector{verdict: primaryVerdict()}
	s, m := newTestService(t, Config{}, WithPrimary(primary))

	res := s.DetectAuthorship(context.Background(), transitionText)

	assert.Equal(t, models.PathPrimary, res.Path)
	assert.Equal(t, "fake/model", res.ModelUsed)
	assert.Equal(t, primaryVerdict(), res.Verdict)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues(OpAuthorship, models.PathPrimary, "authentic")))
}

func TestServiceFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeDetector
		reason  string
	}{
		{"transport error", &fakeDetector{err: errors.New("connection refused")}, "error"},
		{"invalid reply", &fakeDetector{err: fmt.Errorf("%w: missing isAI", ErrInvalidResponse)}, "invalid_response"},
		{"no json", &fakeDetector{err: ErrNoJSONObject}, "invalid_response"},
		{"timeout", &fakeDetector{block: true}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := newTestService(t, Config{ModelTimeout: 20 * time.Millisecond}, WithPrimary(tt.primary))

			res := s.DetectAuthorship(context.Background(), transitionText)

			assert.Equal(t, models.PathFallback, res.Path)
			assert.Equal(t, HeuristicName, res.ModelUsed)
			assert.Equal(t, models.StatusAIGenerated, res.Status)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(OpAuthorship, tt.reason)))
		})
	}
}

func TestServiceCachesPrimaryVerdicts(t *testing.T) {
	primary := &fakeDetector{verdict: primaryVerdict()}
	s, m := newTestService(t, Config{}, WithPrimary(primary), WithCache(cache.NewLRUCache(10)))

	first := s.DetectAuthorship(context.Background(), transitionText)
	second := s.DetectAuthorship(context.Background(), transitionText)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.Equal(t, models.PathPrimary, second.Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("miss")))
}

func TestServiceDoesNotCacheFallbacks(t *testing.T) {
	primary := &fakeDetector{err: errors.New("down")}
	c := cache.NewLRUCache(10)
	s, _ := newTestService(t, Config{}, WithPrimary(primary), WithCache(c))

	s.DetectAuthorship(context.Background(), transitionText)
	s.DetectAuthorship(context.Background(), transitionText)

	assert.Equal(t, 2, primary.calls)
	data, err := c.Get(context.Background(), cache.Key(OpAuthorship, primary.Name(), transitionText))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestServiceRateLimit(t *testing.T) {
	primary := &fakeDetector{verdict: primaryVerdict()}
	s, m := newTestService(t, Config{ModelRPS: 1, ModelTimeout: 20 * time.Millisecond}, WithPrimary(primary))

	first := s.DetectAuthorship(context.Background(), transitionText)
	second := s.DetectAuthorship(context.Background(), transitionText)

	assert.Equal(t, models.PathPrimary, first.Path)
	assert.Equal(t, models.PathFallback, second.Path)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(OpAuthorship, "rate_limit")))
}

func TestServiceTruncatesInput(t *testing.T) {
	primary := &fakeDetector{verdict: primaryVerdict()}
	s, _ := newTestService(t, Config{MaxInputChars: 10}, WithPrimary(primary))

	s.DetectAuthorship(context.Background(), "ééééééééééééééééé")

	assert.Equal(t, 10, utf8.RuneCountInString(primary.lastText))
	assert.True(t, utf8.ValidString(primary.lastText))
}

func TestServiceVerifyNewsFallback(t *testing.T) {
	s, m := newTestService(t, Config{})

	res := s.VerifyNews(context.Background(), newsText, "https://www.reuters.com/world/policy")

	assert.Equal(t, models.PathFallback, res.Path)
	assert.Contains(t, res.FactCheck.SourcesFound, "www.reuters.com")
	assert.Equal(t, models.NewsUncertain, res.Authenticity)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues(OpNews, models.PathFallback, "uncertain")))
}

func TestAnalyzeNoContent(t *testing.T) {
	s, _ := newTestService(t, Config{})

	_, err := s.Analyze(context.Background(), AnalyzeRequest{Text: "   "})
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestAnalyzeMedia(t *testing.T) {
	s, _ := newTestService(t, Config{})

	for _, req := range []AnalyzeRequest{
		{ImageURL: "https://example.com/cat.png"},
		{Text: "caption text", VideoURL: "https://example.com/v.mp4", ContentType: ContentVideo},
	} {
		res, err := s.Analyze(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, models.StatusUncertain, res.AuthenticityStatus)
		assert.Equal(t, 50.0, res.Confidence)
		assert.Nil(t, res.CredibilityScore)
		assert.Equal(t, "Manual verification recommended for media content", res.SuggestedAction)
	}

	res, _ := s.Analyze(context.Background(), AnalyzeRequest{ImageURL: "https://example.com/cat.png"})
	assert.Equal(t, ContentImage, res.ContentType)
}

func TestAnalyzeDeclaredTextWithoutText(t *testing.T) {
	s, _ := newTestService(t, Config{})

	tests := []struct {
		req  AnalyzeRequest
		want string
	}{
		{AnalyzeRequest{ContentType: ContentText, ImageURL: "https://example.com/cat.png"}, ContentImage},
		{AnalyzeRequest{ContentType: ContentText, Text: "  ", VideoURL: "https://example.com/v.mp4"}, ContentVideo},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			res, err := s.Analyze(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ContentType)
			assert.Equal(t, models.StatusUncertain, res.AuthenticityStatus)
		})
	}
}

func TestAnalyzeNews(t *testing.T) {
	primary := &fakeDetector{
		verdict: primaryVerdict(),
		news: models.NewsVerdict{
			Authenticity:     models.NewsFake,
			CredibilityScore: 30,
			Confidence:       90,
			FactCheck:        models.FactCheck{RedFlags: []string{"unsourced claim"}},
		},
	}
	s, _ := newTestService(t, Config{}, WithPrimary(primary))

	res, err := s.Analyze(context.Background(), AnalyzeRequest{Text: newsText, URL: "https://example.com/a"})
	require.NoError(t, err)

	assert.True(t, res.IsNewsContent)
	assert.Equal(t, models.StatusAuthentic, res.AuthenticityStatus)
	require.NotNil(t, res.News)
	assert.Equal(t, models.PathPrimary, res.News.Path)

	require.NotNil(t, res.CredibilityScore)
	assert.Equal(t, 45, res.CredibilityScore.Overall)
	assert.Equal(t, models.CredibilityFactors{
		AIDetection:         80,
		ContentAuthenticity: 30,
		FactCheckStatus:     20,
		SourceReliability:   75,
	}, res.CredibilityScore.Factors)
	assert.Equal(t, models.RealTimeFlags{
		FakeNews:          true,
		MisleadingContent: true,
		UnverifiedClaims:  true,
		LowCredibility:    true,
	}, *res.RealTimeFlags)
	assert.Equal(t, "This appears to be fake news. Verify with credible sources before sharing.", res.SuggestedAction)
}

func TestAnalyzeText(t *testing.T) {
	s, _ := newTestService(t, Config{})

	res, err := s.Analyze(context.Background(), AnalyzeRequest{Text: transitionText})
	require.NoError(t, err)

	assert.Equal(t, ContentText, res.ContentType)
	assert.False(t, res.IsNewsContent)
	assert.Nil(t, res.News)
	assert.Equal(t, models.StatusAIGenerated, res.AuthenticityStatus)
	assert.Equal(t, 100, res.Breakdown.Sum())
	assert.Equal(t, 90, res.CredibilityScore.Overall)
	assert.Equal(t, models.CredibilityFactors{
		AIDetection:         90,
		ContentAuthenticity: 30,
		FactCheckStatus:     70,
		SourceReliability:   60,
	}, res.CredibilityScore.Factors)
	assert.Equal(t, models.RealTimeFlags{AIGenerated: true}, *res.RealTimeFlags)
	assert.Equal(t, "This content appears to be AI-generated.", res.SuggestedAction)
}

func TestAnalyzeHyperreal(t *testing.T) {
	s, _ := newTestService(t, Config{})

	res, err := s.Analyze(context.Background(), AnalyzeRequest{
		Text: "Shocking new footage shows an unbelievable bombshell about the mayor. " +
			"You won't believe what happened next at the council meeting.",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusHyperreal, res.AuthenticityStatus)
	assert.Contains(t, res.Reasoning, "Hyperreal score")
}
