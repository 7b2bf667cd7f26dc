package classify

import (
	"context"

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/resilience"
)

// WithBreaker wraps a classifier with a circuit breaker. The hosted model is
// a single point of failure; once it starts failing consistently the breaker
// rejects calls immediately instead of burning the per-call timeout on every
// remaining question.
func WithBreaker(c Classifier, cb *resilience.CircuitBreaker) Classifier {
	return Func(func(ctx context.Context, text string, labels []string) (model.Distribution, error) {
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (model.Distribution, error) {
			return c.Classify(ctx, text, labels)
		})
	})
}
