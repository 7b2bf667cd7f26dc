package risk

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/model"
)

// ErrNoScore is returned when no question produced a usable classification.
// Callers substitute their own configured default risk value; the calculator
// never fabricates a numeric score.
var ErrNoScore = eris.New("risk: no questions answered")

const defaultConcurrency = 4

// Calculator scores questionnaire answers against the question registry.
type Calculator struct {
	classifier  classify.Classifier
	questions   []model.Question
	concurrency int
}

// NewCalculator creates a Calculator. Concurrency bounds the classification
// fan-out; values below 1 fall back to the default.
func NewCalculator(classifier classify.Classifier, questions []model.Question, concurrency int) *Calculator {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	return &Calculator{
		classifier:  classifier,
		questions:   questions,
		concurrency: concurrency,
	}
}

// Score classifies each answered question and combines the per-question
// weighted scores into a normalized risk-tolerance value in [0,1].
//
// Per question: score = Σ confidence(class) · weight(class), a convex
// combination of the class weights. Total = Σ score / Σ max weight over
// answered questions only; unanswered and failed questions are excluded
// from both numerator and denominator. Classification calls run
// concurrently; each question's result feeds only its own contribution, so
// no ordering guarantee is needed across calls.
func (c *Calculator) Score(ctx context.Context, answers map[string]string) (*model.RiskResult, error) {
	result := &model.RiskResult{}

	type outcome struct {
		idx   int
		score *model.QuestionScore
		skip  *model.SkippedQuestion
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	var mu sync.Mutex
	outcomes := make([]outcome, 0, len(c.questions))

	record := func(o outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	for i, q := range c.questions {
		answer, ok := answers[q.ID]
		if !ok || classify.NormalizeText(answer) == "" {
			record(outcome{idx: i, skip: &model.SkippedQuestion{QuestionID: q.ID, Reason: "unanswered"}})
			continue
		}

		g.Go(func() error {
			dist, err := c.classifier.Classify(gCtx, answer, q.Labels())
			if err != nil {
				// Classifier failure excludes the question rather than
				// failing the questionnaire.
				zap.L().Warn("risk: classification failed, excluding question",
					zap.String("question_id", q.ID),
					zap.Error(err),
				)
				record(outcome{idx: i, skip: &model.SkippedQuestion{QuestionID: q.ID, Reason: "classifier failure"}})
				return nil
			}

			record(outcome{idx: i, score: &model.QuestionScore{
				QuestionID:   q.ID,
				Distribution: dist,
				Score:        weightedScore(c.questions[i], dist),
				MaxScore:     c.questions[i].MaxWeight(),
			}})
			return nil
		})
	}

	_ = g.Wait()

	// Registry order, independent of classification completion order.
	ordered := make([]outcome, len(c.questions))
	for _, o := range outcomes {
		ordered[o.idx] = o
	}

	var total, maxTotal float64
	for _, o := range ordered {
		switch {
		case o.score != nil:
			result.Questions = append(result.Questions, *o.score)
			total += o.score.Score
			maxTotal += o.score.MaxScore
		case o.skip != nil:
			result.Skipped = append(result.Skipped, *o.skip)
		}
	}

	result.Answered = len(result.Questions)
	if result.Answered == 0 {
		return nil, ErrNoScore
	}

	result.Score = total / maxTotal
	zap.L().Info("risk: questionnaire scored",
		zap.Float64("score", result.Score),
		zap.Int("answered", result.Answered),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// weightedScore computes the confidence-weighted sum over the class weight
// table. Labels absent from the distribution contribute nothing.
func weightedScore(q model.Question, dist model.Distribution) float64 {
	var score float64
	for _, c := range q.Classes {
		score += dist[c.Label] * c.Weight
	}
	return score
}
