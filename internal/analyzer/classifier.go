package analyzer

import (
	"fmt"
	"math"
	"strings"

	"github.com/zombar/authenticity/internal/models"
)

// Authorship thresholds
const (
	aiThreshold = 55.0

	MinConfidence         = 65.0
	FallbackConfidenceCap = 90.0
	PrimaryConfidenceCap  = 95.0

	strongConfidence   = 85.0
	moderateConfidence = 75.0

	breakdownTolerance = 2
)

// News thresholds
const (
	realThreshold = 60

	newsMinConfidence = 70.0
	newsMaxConfidence = 85.0

	realScore = 80
	fakeScore = 30

	degenerateCredibility = 50
)

// Technical pass thresholds
const (
	signalThreshold      = 30.0
	signalConfidenceRate = 0.25
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AuthorshipConfidence maps an AI probability to a confidence in [65, ceiling]
func AuthorshipConfidence(p, ceiling float64) float64 {
	return clamp(math.Abs(p-50)*1.5+MinConfidence, MinConfidence, ceiling)
}

// AuthorshipStatus returns the status band for a confidence. Strong (>85) and
// moderate (>75) confidence both commit to a label.
func AuthorshipStatus(confidence float64, isAI bool) models.AuthenticityStatus {
	if confidence > moderateConfidence {
		if isAI {
			return models.StatusAIGenerated
		}
		return models.StatusAuthentic
	}
	return models.StatusUncertain
}

// BreakdownFromProbability splits an AI probability into the four-way breakdown
func BreakdownFromProbability(p float64) models.Breakdown {
	return NormalizeBreakdown(models.Breakdown{
		AIGenerated:  int(math.Round(p * 0.8)),
		AIRefined:    int(math.Round(p * 0.2)),
		HumanRefined: int(math.Round((100 - p) * 0.3)),
		HumanWritten: int(math.Round((100 - p) * 0.7)),
	})
}

// NormalizeBreakdown clamps negative fields, rescales when the sum drifts by more
// than two points and gives any rounding residual to the largest field.
func NormalizeBreakdown(b models.Breakdown) models.Breakdown {
	fields := []*int{&b.AIGenerated, &b.AIRefined, &b.HumanRefined, &b.HumanWritten}
	for _, f := range fields {
		if *f < 0 {
			*f = 0
		}
	}

	var sum float64
	for _, f := range fields {
		sum += float64(*f)
	}
	if sum == 0 {
		return BreakdownFromProbability(50)
	}
	if math.Abs(sum-100) > breakdownTolerance {
		scale := 100 / sum
		for _, f := range fields {
			*f = int(math.Round(float64(*f) * scale))
		}
	}

	if residual := 100 - b.Sum(); residual != 0 {
		largest := fields[0]
		for _, f := range fields[1:] {
			if *f > *largest {
				largest = f
			}
		}
		*largest += residual
	}
	return b
}

// DecideAuthorship turns accumulated scores into a verdict
func DecideAuthorship(acc ScoreAccumulator, ceiling float64) models.Verdict {
	total := acc.AIScore + acc.HumanScore
	if total <= 0 {
		return degenerateAuthorship(acc.Indicators)
	}

	p := 100 * acc.AIScore / math.Max(total, 1)
	isAI := p > aiThreshold
	confidence := AuthorshipConfidence(p, ceiling)

	var reasoning string
	if isAI {
		reasoning = fmt.Sprintf("Fallback analysis based on: %s. AI probability: %.0f%%",
			strings.Join(acc.Indicators, ", "), p)
	} else {
		reasoning = fmt.Sprintf("Fallback analysis based on: %s. Human probability: %.0f%%",
			strings.Join(acc.Indicators, ", "), 100-p)
	}

	return models.Verdict{
		Status:           AuthorshipStatus(confidence, isAI),
		Confidence:       round2(confidence),
		AIProbability:    round2(p),
		HumanProbability: round2(100 - p),
		Reasoning:        reasoning,
		Breakdown:        BreakdownFromProbability(p),
		IsAI:             isAI,
		Indicators:       acc.Indicators,
	}
}

func degenerateAuthorship(indicators []string) models.Verdict {
	return models.Verdict{
		Status:           models.StatusUncertain,
		Confidence:       MinConfidence,
		AIProbability:    50,
		HumanProbability: 50,
		Reasoning:        "Insufficient text for analysis",
		Breakdown:        BreakdownFromProbability(50),
		Indicators:       indicators,
	}
}

// DecideManipulation applies the technical pass on top of the authorship decision
func DecideManipulation(acc ScoreAccumulator, ceiling float64) models.Verdict {
	v := DecideAuthorship(acc, ceiling)

	switch {
	case acc.HyperrealScore >= signalThreshold && acc.HyperrealScore >= acc.ManipulationScore:
		v.Status = models.StatusHyperreal
		v.Confidence = round2(signalConfidence(acc.HyperrealScore, ceiling))
		v.Reasoning = fmt.Sprintf("Technical analysis based on: %s. Hyperreal score: %.0f",
			strings.Join(acc.Indicators, ", "), acc.HyperrealScore)
	case acc.ManipulationScore >= signalThreshold:
		v.Status = models.StatusManipulated
		v.Confidence = round2(signalConfidence(acc.ManipulationScore, ceiling))
		v.Reasoning = fmt.Sprintf("Technical analysis based on: %s. Manipulation score: %.0f",
			strings.Join(acc.Indicators, ", "), acc.ManipulationScore)
	}
	return v
}

func signalConfidence(score, ceiling float64) float64 {
	return clamp(MinConfidence+signalConfidenceRate*score, MinConfidence, math.Min(ceiling, FallbackConfidenceCap))
}

// ClampCredibility rounds a credibility score into [0, 100]
func ClampCredibility(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}

// NewsConfidence maps a credibility score to a confidence in [70, 85]
func NewsConfidence(score int) float64 {
	return clamp(math.Abs(float64(score)-50)+newsMinConfidence, newsMinConfidence, newsMaxConfidence)
}

// NewsAuthenticity returns the authenticity band for a news verdict
func NewsAuthenticity(confidence float64, score int) models.NewsAuthenticity {
	switch {
	case confidence > strongConfidence && score > realScore:
		return models.NewsReal
	case confidence > strongConfidence && score < fakeScore:
		return models.NewsFake
	case confidence > strongConfidence:
		return models.NewsMisleading
	default:
		return models.NewsUncertain
	}
}

func decideNews(ns newsScore) models.NewsVerdict {
	score := ClampCredibility(float64(ns.score))
	confidence := NewsConfidence(score)
	isReal := score > realThreshold

	verdict := "questionable"
	if isReal {
		verdict = "credible"
	}
	signals := append(append([]string(nil), ns.positives...), ns.redFlags...)

	return models.NewsVerdict{
		Authenticity:     NewsAuthenticity(confidence, score),
		IsReal:           isReal,
		CredibilityScore: score,
		Confidence:       confidence,
		Reasoning: fmt.Sprintf("Fallback credibility analysis rates this content %s (score %d) based on: %s",
			verdict, score, strings.Join(signals, ", ")),
		FactCheck: models.FactCheck{
			ClaimsVerified: nonNil(ns.positives),
			ClaimsDisputed: []string{},
			SourcesFound:   nonNil(ns.sources),
			RedFlags:       nonNil(ns.redFlags),
		},
		ResearchSummary: fmt.Sprintf("Heuristic review found %d supporting signal(s) and %d red flag(s).",
			len(ns.positives), len(ns.redFlags)),
	}
}

func degenerateNews() models.NewsVerdict {
	return models.NewsVerdict{
		Authenticity:     models.NewsUncertain,
		CredibilityScore: degenerateCredibility,
		Confidence:       newsMinConfidence,
		Reasoning:        "Insufficient text for credibility analysis",
		FactCheck: models.FactCheck{
			ClaimsVerified: []string{},
			ClaimsDisputed: []string{},
			SourcesFound:   []string{},
			RedFlags:       []string{},
		},
		ResearchSummary: "No content to review.",
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
