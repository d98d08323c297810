package detector

import (
	"fmt"

	"github.com/zombar/authenticity/internal/models"
)

const authorshipSystemPrompt = `You are an expert in telling AI-generated text apart from human writing. You know the habits of GPT, Claude, Gemini and other large language models.

Weigh these signals:
1. Linguistic patterns: repeated sentence structures, heavy use of transitions (furthermore, moreover, however), balanced and diplomatic wording, no strong opinions.
2. Content: generic or templated answers, hedging ("it's worth noting", "it's important to consider"), flawless grammar without colloquialisms, list-like organisation.
3. Human signals: personal anecdotes, typos and informal language, strong opinions or emotion, slang and abbreviations (lol, tbh), inconsistent style.
4. AI signals: exhaustive coverage, neutral takes on controversial topics, formal tone in casual contexts, repeated phrasing, missing first-person voice.

Respond with ONLY this JSON object:
{
  "isAI": boolean,
  "confidence": number (65-95),
  "reasoning": "explanation citing specific examples from the text",
  "ai_indicators": ["specific AI patterns found"],
  "human_indicators": ["specific human patterns found"],
  "breakdown": {
    "ai_generated": number,
    "ai_refined": number,
    "human_refined": number,
    "human_written": number
  }
}
The four breakdown values are percentages that sum to 100.`

const newsSystemPrompt = `You are a fact-checking journalist and misinformation expert with broad knowledge of current events, history and common misinformation narratives.

Assess the news content on:
1. Factual accuracy: specific claims, dates, statistics and quotes; verifiable versus unverifiable claims.
2. Source credibility: cited sources, primary versus secondary sourcing, missing or questionable sources.
3. Misinformation patterns: sensational headlines, emotional manipulation, cherry-picked data, conspiracy framing.
4. Structure: journalistic standards, balance, attribution, timeline consistency.

Respond with ONLY this JSON object:
{
  "isReal": boolean,
  "credibilityScore": number (0-100),
  "confidence": number (70-95),
  "reasoning": "explanation of the fact-checking analysis",
  "factCheckResults": {
    "claimsVerified": ["verified claims"],
    "claimsDisputed": ["disputed or false claims"],
    "sourcesFound": ["credible sources mentioned"],
    "redFlags": ["misinformation indicators found"]
  },
  "researchSummary": "summary of the findings"
}`

func authorshipPrompt(text string) models.Prompt {
	return models.Prompt{
		System: authorshipSystemPrompt,
		User: fmt.Sprintf("Analyze this text for AI versus human authorship. Look for subtle patterns.\n\nTEXT TO ANALYZE:\n%q\n\nBase your analysis on specific patterns you observe in this text.",
			text),
		Temperature: 0.05,
		MaxTokens:   1000,
	}
}

func newsPrompt(text, sourceURL string) models.Prompt {
	source := ""
	if sourceURL != "" {
		source = fmt.Sprintf("SOURCE URL: %s\n\n", sourceURL)
	}
	return models.Prompt{
		System: newsSystemPrompt,
		User: fmt.Sprintf("Fact-check this news content. Check the claims, verify the facts and decide whether it is authentic.\n\n%sNEWS CONTENT TO VERIFY:\n%q",
			source, text),
		Temperature: 0.1,
		MaxTokens:   1500,
	}
}
