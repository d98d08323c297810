package analyzer

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/zombar/authenticity/internal/models"
)

// newsCueThreshold is the news cue score at which text is treated as news
const newsCueThreshold = 3.0

// Engine is the deterministic heuristic classifier. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	lib *Library
}

// NewEngine creates an engine backed by lib, or by the default library when lib is nil
func NewEngine(lib *Library) *Engine {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &Engine{lib: lib}
}

// Library returns the pattern library used by the engine
func (e *Engine) Library() *Library {
	return e.lib
}

func normalize(text string) string {
	return norm.NFKC.String(text)
}

func degenerate(text string, f TextFeatures) bool {
	return strings.TrimSpace(text) == "" || f.WordCount == 0 || f.SentenceCount == 0
}

// ClassifyAuthorship estimates whether text was written by a person or a model
func (e *Engine) ClassifyAuthorship(text string) models.Verdict {
	text = normalize(text)
	f := ExtractFeatures(text)
	if degenerate(text, f) {
		return degenerateAuthorship(nil)
	}
	acc := Score(e.lib, text, f, ScoreOptions{})
	return DecideAuthorship(acc, FallbackConfidenceCap)
}

// ClassifyManipulation runs the technical variant of authorship scoring and
// reports hyperreal or manipulated content when those signals dominate.
func (e *Engine) ClassifyManipulation(text string) models.Verdict {
	text = normalize(text)
	f := ExtractFeatures(text)
	if degenerate(text, f) {
		return degenerateAuthorship(nil)
	}
	acc := Score(e.lib, text, f, ScoreOptions{Technical: true})
	return DecideManipulation(acc, FallbackConfidenceCap)
}

// ClassifyNewsCredibility scores text as a news item. The source URL host is
// listed as a source but does not change the score.
func (e *Engine) ClassifyNewsCredibility(text, sourceURL string) models.NewsVerdict {
	text = normalize(text)
	f := ExtractFeatures(text)
	if degenerate(text, f) {
		return degenerateNews()
	}

	ns := scoreNews(e.lib, text)
	if host := sourceHost(sourceURL); host != "" {
		ns.sources = append(ns.sources, host)
	}
	return decideNews(ns)
}

// LooksLikeNews reports whether text carries enough news cues to be verified as news
func (e *Engine) LooksLikeNews(text string) bool {
	return newsCueScore(e.lib, normalize(text)) >= newsCueThreshold
}

func sourceHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Hostname()
}
