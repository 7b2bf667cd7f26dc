package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Distribution maps class labels to confidence scores. A valid distribution
// has non-negative entries summing to 1 (within tolerance).
type Distribution map[string]float64

// distributionSumTolerance bounds how far a classifier-reported sum may drift
// from 1.0 before the distribution is rejected instead of renormalized.
const distributionSumTolerance = 0.03

// Sum returns the total confidence mass.
func (d Distribution) Sum() float64 {
	var sum float64
	for _, v := range d {
		sum += v
	}
	return sum
}

// Validate checks that the distribution is non-empty, has no negative or
// non-finite entries, and sums to 1 within tolerance. Sums slightly off 1.0
// are renormalized in place; anything further out is an error.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return eris.New("distribution: empty")
	}
	for label, v := range d {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return eris.Errorf("distribution: non-finite confidence for %q", label)
		}
		if v < 0 {
			return eris.Errorf("distribution: negative confidence %f for %q", v, label)
		}
	}
	sum := d.Sum()
	if sum == 0 {
		return eris.New("distribution: zero confidence mass")
	}
	if math.Abs(sum-1) > distributionSumTolerance {
		return eris.Errorf("distribution: confidence sum %f outside tolerance", sum)
	}
	if sum != 1 {
		for label, v := range d {
			d[label] = v / sum
		}
	}
	return nil
}

// QuestionScore is the scored outcome of one answered question.
type QuestionScore struct {
	QuestionID   string       `json:"question_id"`
	Distribution Distribution `json:"distribution"`
	Score        float64      `json:"score"`
	MaxScore     float64      `json:"max_score"`
}

// SkippedQuestion records a question excluded from the risk score, either
// because no answer was given or because classification failed.
type SkippedQuestion struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

// RiskResult is the outcome of a questionnaire scoring run. Score is a
// normalized risk-tolerance value in [0,1], computed only over answered
// questions.
type RiskResult struct {
	Score     float64           `json:"score"`
	Answered  int               `json:"answered"`
	Skipped   []SkippedQuestion `json:"skipped,omitempty"`
	Questions []QuestionScore   `json:"questions"`
}
