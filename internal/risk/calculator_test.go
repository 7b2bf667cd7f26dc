package risk

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/model"
)

func twoQuestions() []model.Question {
	return []model.Question{
		{
			ID:   "age",
			Text: "What is your age?",
			Classes: []model.AnswerClass{
				{Label: "young", Weight: 4},
				{Label: "old", Weight: 1},
			},
		},
		{
			ID:   "income",
			Text: "What is your monthly income?",
			Classes: []model.AnswerClass{
				{Label: "low", Weight: 1},
				{Label: "high", Weight: 3},
			},
		},
	}
}

// fixed returns a classifier that always answers with the given distribution.
func fixed(dist model.Distribution) classify.Classifier {
	return classify.Func(func(_ context.Context, _ string, _ []string) (model.Distribution, error) {
		return dist, nil
	})
}

func TestScore_FullyAnswered(t *testing.T) {
	byQuestion := map[string]model.Distribution{
		"What is your age?":            {"young": 0.8, "old": 0.2},
		"What is your monthly income?": {"low": 0.5, "high": 0.5},
	}
	classifier := classify.Func(func(_ context.Context, text string, _ []string) (model.Distribution, error) {
		// The calculator sends the raw answer; route on it.
		switch text {
		case "25":
			return byQuestion["What is your age?"], nil
		default:
			return byQuestion["What is your monthly income?"], nil
		}
	})

	calc := NewCalculator(classifier, twoQuestions(), 2)
	result, err := calc.Score(context.Background(), map[string]string{
		"age":    "25",
		"income": "$5000/mo",
	})
	require.NoError(t, err)

	// age: 0.8*4 + 0.2*1 = 3.4 of max 4; income: 0.5*1 + 0.5*3 = 2.0 of max 3.
	// total = 5.4 / 7 ≈ 0.7714
	assert.InDelta(t, 5.4/7.0, result.Score, 1e-9)
	assert.Equal(t, 2, result.Answered)
	assert.Empty(t, result.Skipped)
}

func TestScore_PartialAnswers(t *testing.T) {
	// Only "age" answered: 16 other questions unanswered must not distort
	// the normalization.
	calc := NewCalculator(fixed(model.Distribution{"young": 1.0, "old": 0.0}), twoQuestions(), 2)
	result, err := calc.Score(context.Background(), map[string]string{"age": "25"})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Equal(t, 1, result.Answered)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "income", result.Skipped[0].QuestionID)
	assert.Equal(t, "unanswered", result.Skipped[0].Reason)
}

func TestScore_NoAnswers(t *testing.T) {
	calc := NewCalculator(fixed(nil), twoQuestions(), 2)
	_, err := calc.Score(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoScore)
}

func TestScore_BlankAnswerTreatedAsUnanswered(t *testing.T) {
	calc := NewCalculator(fixed(model.Distribution{"young": 1.0}), twoQuestions(), 2)
	_, err := calc.Score(context.Background(), map[string]string{
		"age":    "   ",
		"income": "\t",
	})
	assert.ErrorIs(t, err, ErrNoScore)
}

func TestScore_ClassifierFailureExcludesQuestion(t *testing.T) {
	classifier := classify.Func(func(_ context.Context, text string, _ []string) (model.Distribution, error) {
		if text == "25" {
			return model.Distribution{"young": 0.5, "old": 0.5}, nil
		}
		return nil, eris.New("model unavailable")
	})

	calc := NewCalculator(classifier, twoQuestions(), 2)
	result, err := calc.Score(context.Background(), map[string]string{
		"age":    "25",
		"income": "$5000/mo",
	})
	require.NoError(t, err)

	// Only age counts: (0.5*4 + 0.5*1) / 4 = 0.625
	assert.InDelta(t, 0.625, result.Score, 1e-9)
	assert.Equal(t, 1, result.Answered)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "classifier failure", result.Skipped[0].Reason)
}

func TestScore_AllClassificationsFail(t *testing.T) {
	classifier := classify.Func(func(_ context.Context, _ string, _ []string) (model.Distribution, error) {
		return nil, eris.New("down")
	})
	calc := NewCalculator(classifier, twoQuestions(), 2)
	_, err := calc.Score(context.Background(), map[string]string{"age": "25", "income": "x"})
	assert.ErrorIs(t, err, ErrNoScore)
}

func TestScore_ResultsInRegistryOrder(t *testing.T) {
	calc := NewCalculator(fixed(model.Distribution{"young": 1.0, "old": 0.0, "low": 0.5, "high": 0.5}), twoQuestions(), 2)
	result, err := calc.Score(context.Background(), map[string]string{"age": "a", "income": "b"})
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, "age", result.Questions[0].QuestionID)
	assert.Equal(t, "income", result.Questions[1].QuestionID)
}

func TestWeightedScore_ConvexCombination(t *testing.T) {
	q := twoQuestions()[0] // weights 4 and 1
	dists := []model.Distribution{
		{"young": 1.0, "old": 0.0},
		{"young": 0.0, "old": 1.0},
		{"young": 0.5, "old": 0.5},
		{"young": 0.31, "old": 0.69},
	}
	for _, d := range dists {
		s := weightedScore(q, d)
		assert.GreaterOrEqual(t, s, q.MinWeight())
		assert.LessOrEqual(t, s, q.MaxWeight())
	}
}

func TestScore_NormalizedRange(t *testing.T) {
	// Extreme distributions still land in [0,1].
	for _, d := range []model.Distribution{
		{"young": 1.0, "old": 0.0, "low": 1.0, "high": 0.0},
		{"young": 0.0, "old": 1.0, "low": 0.0, "high": 1.0},
	} {
		calc := NewCalculator(fixed(d), twoQuestions(), 2)
		result, err := calc.Score(context.Background(), map[string]string{"age": "a", "income": "b"})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
	}
}
