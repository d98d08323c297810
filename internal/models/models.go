package models

// AuthenticityStatus is the verdict label for authorship analysis
type AuthenticityStatus string

const (
	StatusAuthentic   AuthenticityStatus = "authentic"
	StatusAIGenerated AuthenticityStatus = "ai_generated"
	StatusManipulated AuthenticityStatus = "manipulated"
	StatusHyperreal   AuthenticityStatus = "hyperreal"
	StatusUncertain   AuthenticityStatus = "uncertain"
)

// NewsAuthenticity is the verdict label for news credibility analysis
type NewsAuthenticity string

const (
	NewsReal       NewsAuthenticity = "real"
	NewsFake       NewsAuthenticity = "fake"
	NewsMisleading NewsAuthenticity = "misleading"
	NewsSatire     NewsAuthenticity = "satire"
	NewsUncertain  NewsAuthenticity = "uncertain"
)

// Analysis paths
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
)

// Breakdown is the four-way provenance split. Fields sum to 100.
type Breakdown struct {
	AIGenerated  int `json:"ai_generated"`
	AIRefined    int `json:"ai_refined"`
	HumanRefined int `json:"human_refined"`
	HumanWritten int `json:"human_written"`
}

// Sum returns the total of all four fields
func (b Breakdown) Sum() int {
	return b.AIGenerated + b.AIRefined + b.HumanRefined + b.HumanWritten
}

// Verdict is the result of authorship analysis
type Verdict struct {
	Status           AuthenticityStatus `json:"authenticity_status"`
	Confidence       float64            `json:"confidence"`
	AIProbability    float64            `json:"ai_probability"`
	HumanProbability float64            `json:"human_probability"`
	Reasoning        string             `json:"reasoning"`
	Breakdown        Breakdown          `json:"breakdown"`
	IsAI             bool               `json:"is_ai"`
	Indicators       []string           `json:"indicators,omitempty"`
}

// FactCheck holds the evidence lists behind a news verdict
type FactCheck struct {
	ClaimsVerified []string `json:"claims_verified"`
	ClaimsDisputed []string `json:"claims_disputed"`
	SourcesFound   []string `json:"sources_found"`
	RedFlags       []string `json:"red_flags"`
}

// NewsVerdict is the result of news credibility analysis
type NewsVerdict struct {
	Authenticity     NewsAuthenticity `json:"news_authenticity"`
	IsReal           bool             `json:"is_real"`
	CredibilityScore int              `json:"credibility_score"`
	Confidence       float64          `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
	FactCheck        FactCheck        `json:"fact_check_results"`
	ResearchSummary  string           `json:"research_summary"`
}

// AuthorshipResult is a verdict tagged with the path that produced it
type AuthorshipResult struct {
	Verdict
	AnalysisTimeMs int64  `json:"analysis_time"`
	ModelUsed      string `json:"model_used"`
	Path           string `json:"path"`
}

// NewsResult is a news verdict tagged with the path that produced it
type NewsResult struct {
	NewsVerdict
	VerificationTimeMs int64  `json:"verification_time"`
	ModelUsed          string `json:"model_used"`
	Path               string `json:"path"`
}

// CredibilityFactors are the inputs to the overall credibility score
type CredibilityFactors struct {
	AIDetection         float64 `json:"ai_detection"`
	ContentAuthenticity float64 `json:"content_authenticity"`
	FactCheckStatus     float64 `json:"fact_check_status"`
	SourceReliability   float64 `json:"source_reliability"`
}

// CredibilityScore is the combined credibility of a piece of content
type CredibilityScore struct {
	Overall int                `json:"overall"`
	Factors CredibilityFactors `json:"factors"`
}

// RealTimeFlags are the boolean warnings surfaced to the browser extension
type RealTimeFlags struct {
	AIGenerated       bool `json:"ai_generated"`
	FakeNews          bool `json:"fake_news"`
	MisleadingContent bool `json:"misleading_content"`
	UnverifiedClaims  bool `json:"unverified_claims"`
	LowCredibility    bool `json:"low_credibility"`
}

// AnalysisResult is the combined response of the analyze operation
type AnalysisResult struct {
	ContentType        string             `json:"content_type"`
	IsNewsContent      bool               `json:"is_news_content"`
	AuthenticityStatus AuthenticityStatus `json:"authenticity_status"`
	Confidence         float64            `json:"confidence"`
	AIProbability      float64            `json:"ai_probability"`
	HumanProbability   float64            `json:"human_probability"`
	Reasoning          string             `json:"reasoning"`
	Breakdown          *Breakdown         `json:"breakdown,omitempty"`
	Indicators         []string           `json:"indicators,omitempty"`
	ModelUsed          string             `json:"model_used,omitempty"`
	Path               string             `json:"path,omitempty"`

	News *NewsResult `json:"news,omitempty"`

	CredibilityScore *CredibilityScore `json:"credibility_score,omitempty"`
	RealTimeFlags    *RealTimeFlags    `json:"real_time_flags,omitempty"`
	SuggestedAction  string            `json:"suggested_action"`
	AnalysisTimeMs   int64             `json:"analysis_time"`
}

// Prompt is a single request to a language model
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}
