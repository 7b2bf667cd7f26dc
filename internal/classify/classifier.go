// Package classify provides the narrow text→label-confidence capability the
// scoring pipelines depend on. The hosted-model implementation lives behind
// the Classifier interface so it can be swapped for a local or stub
// classifier without touching any scoring logic.
package classify

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/finvista/advisor-cli/internal/model"
)

// Classifier assigns a confidence distribution over a fixed candidate label
// set to a piece of free text, without task-specific training.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) (model.Distribution, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, text string, labels []string) (model.Distribution, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, text string, labels []string) (model.Distribution, error) {
	return f(ctx, text, labels)
}

// Uniform returns a stub classifier that spreads confidence evenly over the
// candidate labels. Used for offline runs and tests.
func Uniform() Classifier {
	return Func(func(_ context.Context, _ string, labels []string) (model.Distribution, error) {
		dist := make(model.Distribution, len(labels))
		for _, l := range labels {
			dist[l] = 1 / float64(len(labels))
		}
		return dist, nil
	})
}

// NormalizeText prepares free-text input for classification: NFKC unicode
// normalization plus whitespace collapsing. Keeps prompts stable across
// copy-pasted answers with odd spacing or compatibility characters.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
