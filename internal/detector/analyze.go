package detector

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/authenticity/internal/models"
	"github.com/zombar/authenticity/internal/tracing"
)

// Content types accepted by Analyze
const (
	ContentText  = "text"
	ContentImage = "image"
	ContentVideo = "video"
)

// ErrNoContent is returned by Analyze when the request carries nothing to analyse
var ErrNoContent = errors.New("no content provided for analysis")

// AnalyzeRequest is the input of the combined analysis
type AnalyzeRequest struct {
	Text        string `json:"text"`
	ImageURL    string `json:"imageUrl"`
	VideoURL    string `json:"videoUrl"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
}

// contentType is the declared type, or the one implied by the fields present
// when nothing is declared or text is declared without any text.
func (r AnalyzeRequest) contentType() string {
	hasText := strings.TrimSpace(r.Text) != ""
	if r.ContentType != "" && (r.ContentType != ContentText || hasText) {
		return r.ContentType
	}
	switch {
	case hasText:
		return ContentText
	case r.ImageURL != "":
		return ContentImage
	default:
		return ContentVideo
	}
}

const (
	newsAuthorshipWeight  = 0.3
	newsCredibilityWeight = 0.7

	factCheckReal    = 90
	factCheckFake    = 20
	factCheckNeutral = 70
	authenticAIText  = 30
	authenticHuman   = 80
	sourceWithURL    = 75
	sourceWithoutURL = 60
	misleadingBelow  = 50
	lowCredibleBelow = 40
	mediaConfidence  = 50
)

// Analyze runs authorship, manipulation and, for news-like text, credibility
// checks and combines them into one result.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (models.AnalysisResult, error) {
	start := time.Now()
	if strings.TrimSpace(req.Text) == "" && req.ImageURL == "" && req.VideoURL == "" {
		return models.AnalysisResult{}, ErrNoContent
	}

	contentType := req.contentType()
	ctx, span := tracing.StartSpan(ctx, "detector.analyze", attribute.String("content.type", contentType))
	defer span.End()

	if contentType != ContentText || strings.TrimSpace(req.Text) == "" {
		return mediaResult(contentType, start), nil
	}

	text := s.truncate(req.Text)
	authorship := s.DetectAuthorship(ctx, text)
	breakdown := authorship.Breakdown

	res := models.AnalysisResult{
		ContentType:        ContentText,
		IsNewsContent:      s.engine.LooksLikeNews(text),
		AuthenticityStatus: authorship.Status,
		Confidence:         authorship.Confidence,
		AIProbability:      authorship.AIProbability,
		HumanProbability:   authorship.HumanProbability,
		Reasoning:          authorship.Reasoning,
		Breakdown:          &breakdown,
		Indicators:         authorship.Indicators,
		ModelUsed:          authorship.ModelUsed,
		Path:               authorship.Path,
	}

	technical := s.engine.ClassifyManipulation(text)
	if technical.Status == models.StatusHyperreal || technical.Status == models.StatusManipulated {
		res.AuthenticityStatus = technical.Status
		res.Reasoning = strings.TrimSpace(res.Reasoning + " " + technical.Reasoning)
		res.Indicators = append(append([]string(nil), res.Indicators...), technical.Indicators...)
	}

	sourceReliability := float64(sourceWithoutURL)
	if req.URL != "" {
		sourceReliability = sourceWithURL
	}

	aiConf := authorship.Confidence
	if res.IsNewsContent {
		news := s.VerifyNews(ctx, text, req.URL)
		res.News = &news
		cred := float64(news.CredibilityScore)

		factCheck := float64(factCheckFake)
		if news.IsReal {
			factCheck = factCheckReal
		}
		res.CredibilityScore = &models.CredibilityScore{
			Overall: int(math.Round(aiConf*newsAuthorshipWeight + cred*newsCredibilityWeight)),
			Factors: models.CredibilityFactors{
				AIDetection:         aiConf,
				ContentAuthenticity: cred,
				FactCheckStatus:     factCheck,
				SourceReliability:   sourceReliability,
			},
		}
		res.RealTimeFlags = &models.RealTimeFlags{
			AIGenerated:       authorship.IsAI,
			FakeNews:          !news.IsReal,
			MisleadingContent: news.CredibilityScore < misleadingBelow,
			UnverifiedClaims:  len(news.FactCheck.RedFlags) > 0,
			LowCredibility:    news.CredibilityScore < lowCredibleBelow,
		}
		if news.IsReal {
			res.SuggestedAction = "This appears to be legitimate news content."
		} else {
			res.SuggestedAction = "This appears to be fake news. Verify with credible sources before sharing."
		}
	} else {
		contentAuthenticity := float64(authenticHuman)
		if authorship.IsAI {
			contentAuthenticity = authenticAIText
		}
		res.CredibilityScore = &models.CredibilityScore{
			Overall: int(math.Round(aiConf)),
			Factors: models.CredibilityFactors{
				AIDetection:         aiConf,
				ContentAuthenticity: contentAuthenticity,
				FactCheckStatus:     factCheckNeutral,
				SourceReliability:   sourceReliability,
			},
		}
		res.RealTimeFlags = &models.RealTimeFlags{AIGenerated: authorship.IsAI}
		switch {
		case authorship.Status == models.StatusUncertain:
			res.SuggestedAction = "Authorship could not be determined with confidence."
		case authorship.IsAI:
			res.SuggestedAction = "This content appears to be AI-generated."
		default:
			res.SuggestedAction = "This content appears to be human-written."
		}
	}

	res.AnalysisTimeMs = time.Since(start).Milliseconds()
	span.SetAttributes(
		attribute.Bool("content.news", res.IsNewsContent),
		attribute.String("detector.status", string(res.AuthenticityStatus)),
	)
	return res, nil
}

func mediaResult(contentType string, start time.Time) models.AnalysisResult {
	return models.AnalysisResult{
		ContentType:        contentType,
		AuthenticityStatus: models.StatusUncertain,
		Confidence:         mediaConfidence,
		AIProbability:      mediaConfidence,
		HumanProbability:   100 - mediaConfidence,
		Reasoning:          "Image and video analysis is not supported",
		SuggestedAction:    "Manual verification recommended for media content",
		AnalysisTimeMs:     time.Since(start).Milliseconds(),
	}
}
