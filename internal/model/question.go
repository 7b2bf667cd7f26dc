package model

// Question is a single prompt in the risk-tolerance questionnaire. Each
// question carries a fixed ordered list of candidate classes and a weight per
// class. The per-question score is a confidence-weighted sum over the class
// weights, never just the arg-max class, so classification uncertainty is
// reflected in the score.
type Question struct {
	ID      string        `yaml:"id" json:"id"`
	Text    string        `yaml:"text" json:"text"`
	Classes []AnswerClass `yaml:"classes" json:"classes"`
}

// AnswerClass pairs a candidate label with its risk weight.
type AnswerClass struct {
	Label  string  `yaml:"label" json:"label"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Labels returns the candidate labels in registry order, as submitted to the
// zero-shot classifier.
func (q Question) Labels() []string {
	labels := make([]string, len(q.Classes))
	for i, c := range q.Classes {
		labels[i] = c.Label
	}
	return labels
}

// MaxWeight returns the largest class weight. It is the question's
// contribution to the normalization denominator.
func (q Question) MaxWeight() float64 {
	var max float64
	for i, c := range q.Classes {
		if i == 0 || c.Weight > max {
			max = c.Weight
		}
	}
	return max
}

// MinWeight returns the smallest class weight.
func (q Question) MinWeight() float64 {
	var min float64
	for i, c := range q.Classes {
		if i == 0 || c.Weight < min {
			min = c.Weight
		}
	}
	return min
}

// WeightFor returns the weight for a class label, or (0, false) when the
// label is not part of the question's candidate set.
func (q Question) WeightFor(label string) (float64, bool) {
	for _, c := range q.Classes {
		if c.Label == label {
			return c.Weight, true
		}
	}
	return 0, false
}
