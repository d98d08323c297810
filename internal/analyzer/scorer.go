package analyzer

import (
	"fmt"
	"strings"
)

// ScoreAccumulator collects weighted evidence for one analysis pass.
// Contributions are only ever added.
type ScoreAccumulator struct {
	AIScore           float64
	HumanScore        float64
	ManipulationScore float64
	HyperrealScore    float64
	Indicators        []string
}

// ScoreOptions selects the scoring variant
type ScoreOptions struct {
	// Technical enables the character-based sentence length bonus
	Technical bool
}

// Structural bonuses
const (
	longSentenceWords       = 25
	longSentenceBonus       = 20
	shortSentenceWords      = 10
	shortSentenceBonus      = 15
	longSentenceChars       = 120
	longSentenceCharsBonus  = 15
	repeatedWordsThreshold  = 3
	repeatedWordsBonus      = 10
	repeatedWordsNoteLength = 3
)

// authorshipCategories are the categories that feed the accumulator
var authorshipCategories = []Category{
	CategoryAITransition,
	CategoryAISelfReference,
	CategoryHumanColloquial,
	CategoryPersonalExperience,
	CategorySensational,
	CategoryManipulation,
}

func (a *ScoreAccumulator) add(c Category, v float64) {
	switch c {
	case CategoryAITransition, CategoryAISelfReference:
		a.AIScore += v
	case CategoryHumanColloquial, CategoryPersonalExperience:
		a.HumanScore += v
	case CategorySensational:
		a.HyperrealScore += v
	case CategoryManipulation:
		a.ManipulationScore += v
	}
}

func (a *ScoreAccumulator) note(s string) {
	a.Indicators = append(a.Indicators, s)
}

// Score runs the lexical and structural scoring pass over text
func Score(lib *Library, text string, f TextFeatures, opts ScoreOptions) ScoreAccumulator {
	var acc ScoreAccumulator

	matches := lib.match(text, authorshipCategories...)
	for _, c := range authorshipCategories {
		m, ok := matches[c]
		if !ok {
			continue
		}
		acc.add(c, m.weighted)
		acc.note(indicator(c, m))
	}

	if f.AvgSentenceLength > longSentenceWords {
		acc.AIScore += longSentenceBonus
		acc.note(fmt.Sprintf("Very long sentences (avg %.1f words)", f.AvgSentenceLength))
	}
	if f.SentenceCount > 0 && f.AvgSentenceLength > 0 && f.AvgSentenceLength < shortSentenceWords {
		acc.HumanScore += shortSentenceBonus
		acc.note(fmt.Sprintf("Short, casual sentences (avg %.1f words)", f.AvgSentenceLength))
	}
	if opts.Technical && f.AvgSentenceChars > longSentenceChars {
		acc.AIScore += longSentenceCharsBonus
		acc.note(fmt.Sprintf("Very long sentences (avg %.0f characters)", f.AvgSentenceChars))
	}
	if n := len(f.RepeatedContentWords); n > repeatedWordsThreshold {
		acc.AIScore += repeatedWordsBonus
		acc.note(fmt.Sprintf("Repetitive vocabulary (%d): %s", n,
			strings.Join(f.RepeatedContentWords[:repeatedWordsNoteLength], ", ")))
	}

	return acc
}

// News credibility adjustments
const (
	newsBaseline          = 70
	sensationalLimit      = 2
	sensationalPenalty    = -20
	professionalToneBonus = 10
	attributionBonus      = 15
	noAttributionPenalty  = -15
	specificityBonus      = 10
	conspiracyPenalty     = -30
	emotionalLimit        = 2
	emotionalPenalty      = -15
	maxSourcesListed      = 5
)

var newsCategories = []Category{
	CategorySensational,
	CategoryAttribution,
	CategorySpecificity,
	CategoryConspiracy,
	CategoryEmotional,
}

// newsScore is the raw outcome of the news scoring pass
type newsScore struct {
	score     int
	positives []string
	redFlags  []string
	sources   []string
}

func (n *newsScore) adjust(delta int) {
	n.score += delta
}

func scoreNews(lib *Library, text string) newsScore {
	ns := newsScore{score: newsBaseline}
	matches := lib.match(text, newsCategories...)

	if m, ok := matches[CategorySensational]; ok && m.count > sensationalLimit {
		ns.adjust(sensationalPenalty)
		ns.redFlags = append(ns.redFlags, indicator(CategorySensational, m))
	} else if !ok {
		ns.adjust(professionalToneBonus)
		ns.positives = append(ns.positives, "Professional tone without sensational language")
	}

	if m, ok := matches[CategoryAttribution]; ok {
		ns.adjust(attributionBonus)
		ns.positives = append(ns.positives, indicator(CategoryAttribution, m))
		ns.sources = distinct(m.snippets, maxSourcesListed)
	} else {
		ns.adjust(noAttributionPenalty)
		ns.redFlags = append(ns.redFlags, "Lack of source attribution")
	}

	if m, ok := matches[CategorySpecificity]; ok {
		ns.adjust(specificityBonus)
		ns.positives = append(ns.positives, indicator(CategorySpecificity, m))
	}

	if m, ok := matches[CategoryConspiracy]; ok {
		ns.adjust(conspiracyPenalty)
		ns.redFlags = append(ns.redFlags, indicator(CategoryConspiracy, m))
	}

	if m, ok := matches[CategoryEmotional]; ok && m.count > emotionalLimit {
		ns.adjust(emotionalPenalty)
		ns.redFlags = append(ns.redFlags, indicator(CategoryEmotional, m))
	}

	return ns
}

// newsCueScore sums the weights of news cue rules that fire at least once
func newsCueScore(lib *Library, text string) float64 {
	m := lib.match(text, CategoryNewsCue)[CategoryNewsCue]
	return m.fired
}

func distinct(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
