package analyzer

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/authenticity/internal/models"
)

const transitionText = "Furthermore, the committee reviewed the proposal in considerable detail before the meeting. " +
	"Moreover, the members agreed that the budget required careful adjustment this year. " +
	"It's important to note that the final decision will depend on several external factors."

func TestClassifyAuthorshipTransitions(t *testing.T) {
	v := NewEngine(nil).ClassifyAuthorship(transitionText)

	assert.True(t, v.IsAI)
	assert.Equal(t, models.StatusAIGenerated, v.Status)
	assert.Equal(t, 100.0, v.AIProbability)
	assert.Equal(t, FallbackConfidenceCap, v.Confidence)
	assert.Equal(t, models.Breakdown{AIGenerated: 80, AIRefined: 20}, v.Breakdown)
	assert.Contains(t, v.Reasoning, "AI-style transitions (3)")
}

func TestClassifyAuthorshipCasual(t *testing.T) {
	v := NewEngine(nil).ClassifyAuthorship("lol i think this is so dumb tbh, omg")

	assert.False(t, v.IsAI)
	assert.Equal(t, models.StatusAuthentic, v.Status)
	assert.Zero(t, v.AIProbability)
	assert.Equal(t, 100.0, v.HumanProbability)
	assert.Equal(t, 100, v.Breakdown.HumanRefined+v.Breakdown.HumanWritten)
}

func TestClassifyAuthorshipCurlyApostrophe(t *testing.T) {
	text := strings.ReplaceAll(transitionText, "It's", "It’s")
	v := NewEngine(nil).ClassifyAuthorship(text)
	assert.Contains(t, v.Reasoning, "AI-style transitions (3)")
}

func TestClassifyAuthorshipSelfReference(t *testing.T) {
	v := NewEngine(nil).ClassifyAuthorship("As an AI language model, I cannot browse the internet or check the latest results for you.")
	assert.True(t, v.IsAI)
	assert.Contains(t, v.Indicators[0], "AI self-reference (1)")
}

func TestClassifyAuthorshipDegenerate(t *testing.T) {
	e := NewEngine(nil)
	for _, text := range []string{"", "   \n", "...!!!", "the quick brown fox jumps over the lazy dog again today"} {
		t.Run(text, func(t *testing.T) {
			v := e.ClassifyAuthorship(text)
			assert.Equal(t, models.StatusUncertain, v.Status)
			assert.Equal(t, MinConfidence, v.Confidence)
			assert.Equal(t, 50.0, v.AIProbability)
			assert.Equal(t, 100, v.Breakdown.Sum())
		})
	}
}

func TestClassifyAuthorshipIdempotent(t *testing.T) {
	e := NewEngine(nil)
	first := e.ClassifyAuthorship(transitionText)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, first, e.ClassifyAuthorship(transitionText))
		}()
	}
	wg.Wait()
}

func TestClassifyAuthorshipProperties(t *testing.T) {
	e := NewEngine(nil)
	texts := []string{
		transitionText,
		"lol i think this is so dumb tbh, omg",
		"I remember growing up near the river. My family went fishing every weekend, honestly it was great!!",
		"In conclusion, the results demonstrate a clear trend. Overall, the system performs well... I think.",
		strings.Repeat("The platform integrates analytics, reporting, dashboards and alerts into one workflow ", 4) + ".",
	}

	for _, text := range texts {
		v := e.ClassifyAuthorship(text)
		assert.Equal(t, 100, v.Breakdown.Sum(), text)
		assert.GreaterOrEqual(t, v.Confidence, MinConfidence, text)
		assert.LessOrEqual(t, v.Confidence, FallbackConfidenceCap, text)
		assert.InDelta(t, 100, v.AIProbability+v.HumanProbability, 0.02, text)
	}
}

func TestClassifyNewsCredibilityAttribution(t *testing.T) {
	text := "According to sources at the city council, the new library will open next spring after construction finishes. " +
		"Officials said the project stayed within its approved budget."

	v := NewEngine(nil).ClassifyNewsCredibility(text, "")

	assert.GreaterOrEqual(t, v.CredibilityScore, 70)
	assert.Equal(t, 95, v.CredibilityScore)
	assert.True(t, v.IsReal)
	assert.Equal(t, 85.0, v.Confidence)
	assert.Empty(t, v.FactCheck.RedFlags)
}

func TestClassifyNewsCredibilityConspiracy(t *testing.T) {
	text := "The mainstream story is a cover-up and people need to wake up before it is too late. " +
		"Nobody will explain what really happened at the plant."

	v := NewEngine(nil).ClassifyNewsCredibility(text, "")

	assert.LessOrEqual(t, v.CredibilityScore, 70-30)
	assert.Equal(t, 35, v.CredibilityScore)
	assert.False(t, v.IsReal)
	assert.Contains(t, v.FactCheck.RedFlags, "Lack of source attribution")
	assert.Contains(t, v.FactCheck.RedFlags, "Conspiracy language (2): cover-up")
}

func TestClassifyNewsCredibilitySources(t *testing.T) {
	text := "According to Reuters, the minister said the new rules take effect in January 2025."

	v := NewEngine(nil).ClassifyNewsCredibility(text, "https://www.reuters.com/world/rules")

	assert.Contains(t, v.FactCheck.SourcesFound, "According to Reuters")
	assert.Contains(t, v.FactCheck.SourcesFound, "www.reuters.com")
}

func TestClassifyNewsCredibilityDegenerate(t *testing.T) {
	v := NewEngine(nil).ClassifyNewsCredibility("  ", "not a url")
	assert.Equal(t, models.NewsUncertain, v.Authenticity)
	assert.Equal(t, 50, v.CredibilityScore)
	assert.Equal(t, 70.0, v.Confidence)
	assert.False(t, v.IsReal)
}

func TestClassifyManipulation(t *testing.T) {
	e := NewEngine(nil)

	t.Run("hyperreal", func(t *testing.T) {
		v := e.ClassifyManipulation("Shocking new footage shows an unbelievable bombshell about the mayor. " +
			"You won't believe what happened next at the council meeting.")
		assert.Equal(t, models.StatusHyperreal, v.Status)
		assert.Equal(t, 86.25, v.Confidence)
	})

	t.Run("manipulated", func(t *testing.T) {
		v := e.ClassifyManipulation("Sources close to the minister say leaked documents reveal the plan. " +
			"Anonymous sources confirmed the details to reporters on Monday evening.")
		assert.Equal(t, models.StatusManipulated, v.Status)
		assert.Equal(t, 80.0, v.Confidence)
	})

	t.Run("plain authorship", func(t *testing.T) {
		v := e.ClassifyManipulation(transitionText)
		assert.Equal(t, models.StatusAIGenerated, v.Status)
	})
}

func TestLooksLikeNews(t *testing.T) {
	e := NewEngine(nil)
	assert.True(t, e.LooksLikeNews("According to Reuters, the minister announced the new policy on Tuesday."))
	assert.True(t, e.LooksLikeNews("Officials confirmed on March 3, 2024 that the investigation is ongoing."))
	assert.False(t, e.LooksLikeNews("i love my cat so much"))
}

func TestEngineWithCustomLibrary(t *testing.T) {
	lib, err := DefaultLibrary().With(rule(CategoryAITransition, 12, "needless to say", `(?i)\bneedless to say\b`))
	require.NoError(t, err)

	text := "Needless to say, the quarterly figures exceeded what the analysts had expected for the region."
	assert.Equal(t, models.StatusUncertain, NewEngine(nil).ClassifyAuthorship(text).Status)
	assert.True(t, NewEngine(lib).ClassifyAuthorship(text).IsAI)
}
