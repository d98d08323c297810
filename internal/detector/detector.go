// Package detector runs authorship and news checks against a primary language
// model and falls back to the heuristic engine whenever the model fails.
package detector

import (
	"context"

	"github.com/zombar/authenticity/internal/analyzer"
	"github.com/zombar/authenticity/internal/models"
)

// Detector produces authorship and news verdicts
type Detector interface {
	DetectAuthorship(ctx context.Context, text string) (models.Verdict, error)
	VerifyNews(ctx context.Context, text, sourceURL string) (models.NewsVerdict, error)
	Name() string
}

// Completer sends a prompt to a language model and returns its raw reply
type Completer interface {
	Complete(ctx context.Context, p models.Prompt) (string, error)
	Name() string
}

// HeuristicName is reported as the model of fallback verdicts
const HeuristicName = "heuristic"

// Heuristic adapts the analyzer engine to the Detector interface. It never fails.
type Heuristic struct {
	engine *analyzer.Engine
}

// NewHeuristic wraps engine
func NewHeuristic(engine *analyzer.Engine) *Heuristic {
	return &Heuristic{engine: engine}
}

func (h *Heuristic) DetectAuthorship(_ context.Context, text string) (models.Verdict, error) {
	return h.engine.ClassifyAuthorship(text), nil
}

func (h *Heuristic) VerifyNews(_ context.Context, text, sourceURL string) (models.NewsVerdict, error) {
	return h.engine.ClassifyNewsCredibility(text, sourceURL), nil
}

func (h *Heuristic) Name() string {
	return HeuristicName
}
