package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/zombar/authenticity/internal/analyzer"
	"github.com/zombar/authenticity/internal/models"
)

var (
	// ErrNoJSONObject is returned when a model reply contains no JSON object
	ErrNoJSONObject = errors.New("no JSON object in model response")
	// ErrInvalidResponse is returned when a model reply fails validation
	ErrInvalidResponse = errors.New("invalid model response")
)

const (
	newsMinConfidence = 70.0
	newsMaxConfidence = 95.0
)

// ModelDetector asks a language model for verdicts and validates its replies
type ModelDetector struct {
	completer Completer
}

// NewModelDetector creates a detector backed by completer
func NewModelDetector(completer Completer) *ModelDetector {
	return &ModelDetector{completer: completer}
}

func (m *ModelDetector) Name() string {
	return m.completer.Name()
}

func (m *ModelDetector) DetectAuthorship(ctx context.Context, text string) (models.Verdict, error) {
	raw, err := m.completer.Complete(ctx, authorshipPrompt(text))
	if err != nil {
		return models.Verdict{}, err
	}
	return ParseAuthorship(raw)
}

func (m *ModelDetector) VerifyNews(ctx context.Context, text, sourceURL string) (models.NewsVerdict, error) {
	raw, err := m.completer.Complete(ctx, newsPrompt(text, sourceURL))
	if err != nil {
		return models.NewsVerdict{}, err
	}
	return ParseNews(raw)
}

// extractJSON strips markdown code fences and returns the outermost JSON object
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return raw[start : end+1], nil
}

type breakdownResponse struct {
	AIGenerated  float64 `json:"ai_generated"`
	AIRefined    float64 `json:"ai_refined"`
	HumanRefined float64 `json:"human_refined"`
	HumanWritten float64 `json:"human_written"`
}

type authorshipResponse struct {
	IsAI            *bool              `json:"isAI"`
	Confidence      *float64           `json:"confidence"`
	Reasoning       *string            `json:"reasoning"`
	AIIndicators    []string           `json:"ai_indicators"`
	HumanIndicators []string           `json:"human_indicators"`
	Breakdown       *breakdownResponse `json:"breakdown"`
}

// ParseAuthorship validates a model reply and converts it into a verdict
func ParseAuthorship(raw string) (models.Verdict, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return models.Verdict{}, err
	}

	var resp authorshipResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch {
	case resp.IsAI == nil:
		return models.Verdict{}, fmt.Errorf("%w: missing isAI", ErrInvalidResponse)
	case resp.Confidence == nil:
		return models.Verdict{}, fmt.Errorf("%w: missing confidence", ErrInvalidResponse)
	case resp.Reasoning == nil:
		return models.Verdict{}, fmt.Errorf("%w: missing reasoning", ErrInvalidResponse)
	}

	isAI := *resp.IsAI
	confidence := clamp(*resp.Confidence, analyzer.MinConfidence, analyzer.PrimaryConfidenceCap)

	var breakdown models.Breakdown
	if resp.Breakdown == nil {
		breakdown = defaultBreakdown(isAI)
	} else {
		breakdown = models.Breakdown{
			AIGenerated:  breakdownField(resp.Breakdown.AIGenerated),
			AIRefined:    breakdownField(resp.Breakdown.AIRefined),
			HumanRefined: breakdownField(resp.Breakdown.HumanRefined),
			HumanWritten: breakdownField(resp.Breakdown.HumanWritten),
		}
	}

	reasoning := strings.TrimSpace(*resp.Reasoning)
	if len(resp.AIIndicators) > 0 {
		reasoning += fmt.Sprintf(" AI patterns detected: %s.", strings.Join(resp.AIIndicators, ", "))
	}
	if len(resp.HumanIndicators) > 0 {
		reasoning += fmt.Sprintf(" Human patterns detected: %s.", strings.Join(resp.HumanIndicators, ", "))
	}

	aiProbability := confidence
	if !isAI {
		aiProbability = 100 - confidence
	}

	return models.Verdict{
		Status:           analyzer.AuthorshipStatus(confidence, isAI),
		Confidence:       confidence,
		AIProbability:    aiProbability,
		HumanProbability: 100 - aiProbability,
		Reasoning:        strings.TrimSpace(reasoning),
		Breakdown:        analyzer.NormalizeBreakdown(breakdown),
		IsAI:             isAI,
		Indicators:       append(append([]string(nil), resp.AIIndicators...), resp.HumanIndicators...),
	}, nil
}

func defaultBreakdown(isAI bool) models.Breakdown {
	if isAI {
		return models.Breakdown{AIGenerated: 70, AIRefined: 20, HumanRefined: 10}
	}
	return models.Breakdown{AIGenerated: 20, AIRefined: 25, HumanRefined: 25, HumanWritten: 30}
}

type newsResponse struct {
	IsReal           *bool    `json:"isReal"`
	CredibilityScore *float64 `json:"credibilityScore"`
	Confidence       *float64 `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	FactCheckResults struct {
		ClaimsVerified []string `json:"claimsVerified"`
		ClaimsDisputed []string `json:"claimsDisputed"`
		SourcesFound   []string `json:"sourcesFound"`
		RedFlags       []string `json:"redFlags"`
	} `json:"factCheckResults"`
	ResearchSummary string `json:"researchSummary"`
}

// ParseNews validates a model reply and converts it into a news verdict
func ParseNews(raw string) (models.NewsVerdict, error) {
	obj, err := extractJSON(raw)
	if err != nil {
		return models.NewsVerdict{}, err
	}

	var resp newsResponse
	if err := json.Unmarshal([]byte(obj), &resp); err != nil {
		return models.NewsVerdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch {
	case resp.IsReal == nil:
		return models.NewsVerdict{}, fmt.Errorf("%w: missing isReal", ErrInvalidResponse)
	case resp.CredibilityScore == nil:
		return models.NewsVerdict{}, fmt.Errorf("%w: missing credibilityScore", ErrInvalidResponse)
	case resp.Confidence == nil:
		return models.NewsVerdict{}, fmt.Errorf("%w: missing confidence", ErrInvalidResponse)
	}

	score := analyzer.ClampCredibility(*resp.CredibilityScore)
	confidence := clamp(*resp.Confidence, newsMinConfidence, newsMaxConfidence)
	fc := resp.FactCheckResults

	return models.NewsVerdict{
		Authenticity:     analyzer.NewsAuthenticity(confidence, score),
		IsReal:           *resp.IsReal,
		CredibilityScore: score,
		Confidence:       confidence,
		Reasoning:        resp.Reasoning,
		FactCheck: models.FactCheck{
			ClaimsVerified: nonNil(fc.ClaimsVerified),
			ClaimsDisputed: nonNil(fc.ClaimsDisputed),
			SourcesFound:   nonNil(fc.SourcesFound),
			RedFlags:       nonNil(fc.RedFlags),
		},
		ResearchSummary: resp.ResearchSummary,
	}, nil
}

// breakdownField bounds a model-reported share to 0..100
func breakdownField(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(clamp(v, 0, 100)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
