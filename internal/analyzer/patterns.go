package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Category groups pattern rules that feed the same signal
type Category string

const (
	CategoryAITransition       Category = "ai_transition"
	CategoryAISelfReference    Category = "ai_self_reference"
	CategoryHumanColloquial    Category = "human_colloquial"
	CategoryPersonalExperience Category = "personal_experience"
	CategorySensational        Category = "sensational"
	CategoryManipulation       Category = "manipulation"
	CategoryAttribution        Category = "attribution"
	CategorySpecificity        Category = "specificity"
	CategoryConspiracy         Category = "conspiracy"
	CategoryEmotional          Category = "emotional"
	CategoryNewsCue            Category = "news_cue"
)

// categoryOrder is the evaluation order. Indicators appear in this order.
var categoryOrder = []Category{
	CategoryAITransition,
	CategoryAISelfReference,
	CategoryHumanColloquial,
	CategoryPersonalExperience,
	CategorySensational,
	CategoryManipulation,
	CategoryAttribution,
	CategorySpecificity,
	CategoryConspiracy,
	CategoryEmotional,
	CategoryNewsCue,
}

var categoryDescriptions = map[Category]string{
	CategoryAITransition:       "AI-style transitions",
	CategoryAISelfReference:    "AI self-reference",
	CategoryHumanColloquial:    "Casual human language",
	CategoryPersonalExperience: "Personal experience",
	CategorySensational:        "Sensational language",
	CategoryManipulation:       "Unverifiable sourcing",
	CategoryAttribution:        "Source attribution",
	CategorySpecificity:        "Specific facts and figures",
	CategoryConspiracy:         "Conspiracy language",
	CategoryEmotional:          "Emotional manipulation",
	CategoryNewsCue:            "News cues",
}

// Description returns the human readable label used in indicators
func (c Category) Description() string {
	if d, ok := categoryDescriptions[c]; ok {
		return d
	}
	return string(c)
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	_, ok := categoryDescriptions[c]
	return ok
}

// PatternRule is a weighted matcher tagged with a category
type PatternRule struct {
	Matcher  *regexp.Regexp
	Weight   float64
	Category Category
	Label    string
}

// Library is an immutable, category-indexed set of pattern rules.
// A Library is safe for concurrent use.
type Library struct {
	rules map[Category][]PatternRule
	size  int
}

// NewLibrary validates rules and builds a library from them
func NewLibrary(rules []PatternRule) (*Library, error) {
	lib := &Library{rules: make(map[Category][]PatternRule)}
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Label, err)
		}
		lib.rules[r.Category] = append(lib.rules[r.Category], r)
		lib.size++
	}
	return lib, nil
}

func validateRule(r PatternRule) error {
	if r.Matcher == nil {
		return fmt.Errorf("missing matcher")
	}
	if r.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %v", r.Weight)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	return nil
}

var defaultLibrary = sync.OnceValue(func() *Library {
	lib, err := NewLibrary(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("analyzer: invalid default rules: %v", err))
	}
	return lib
})

// DefaultLibrary returns the shared library built from the built-in rules
func DefaultLibrary() *Library {
	return defaultLibrary()
}

// With returns a new library containing l's rules followed by extra.
// l is left unchanged.
func (l *Library) With(extra ...PatternRule) (*Library, error) {
	all := make([]PatternRule, 0, l.size+len(extra))
	for _, c := range categoryOrder {
		all = append(all, l.rules[c]...)
	}
	all = append(all, extra...)
	return NewLibrary(all)
}

// Rules returns a copy of the rules registered for c
func (l *Library) Rules(c Category) []PatternRule {
	return append([]PatternRule(nil), l.rules[c]...)
}

// Len returns the total number of rules
func (l *Library) Len() int {
	return l.size
}

// categoryMatch aggregates the matches of one category over a text
type categoryMatch struct {
	count    int
	weighted float64
	// fired is the summed weight of rules with at least one match
	fired    float64
	snippets []string
}

const maxSnippetLen = 60

// match evaluates the rules of the given categories against text
func (l *Library) match(text string, cats ...Category) map[Category]categoryMatch {
	out := make(map[Category]categoryMatch, len(cats))
	for _, c := range cats {
		var m categoryMatch
		for _, r := range l.rules[c] {
			found := r.Matcher.FindAllString(text, -1)
			if len(found) == 0 {
				continue
			}
			m.count += len(found)
			m.weighted += float64(len(found)) * r.Weight
			m.fired += r.Weight
			for _, s := range found {
				m.snippets = append(m.snippets, snippet(s))
			}
		}
		if m.count > 0 {
			out[c] = m
		}
	}
	return out
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxSnippetLen {
		return string(r[:maxSnippetLen]) + "..."
	}
	return s
}

// indicator formats the "<label> (<n>): <snippet>" string shown to clients
func indicator(c Category, m categoryMatch) string {
	return fmt.Sprintf("%s (%d): %s", c.Description(), m.count, m.snippets[0])
}
