// Package risk computes a normalized risk-tolerance score from free-text
// questionnaire answers classified by a zero-shot text classifier.
package risk

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/finvista/advisor-cli/internal/model"
)

//go:embed questions.yaml
var embeddedQuestions []byte

type questionFile struct {
	Questions []model.Question `yaml:"questions"`
}

// LoadQuestions returns the built-in questionnaire registry.
func LoadQuestions() ([]model.Question, error) {
	return parseQuestions(embeddedQuestions)
}

// LoadQuestionsFromFile loads a custom questionnaire registry from a YAML
// file with the same schema as the built-in one.
func LoadQuestionsFromFile(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "risk: read questions %s", path)
	}
	return parseQuestions(data)
}

func parseQuestions(data []byte) ([]model.Question, error) {
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "risk: parse questions")
	}
	if len(f.Questions) == 0 {
		return nil, eris.New("risk: empty question registry")
	}

	seen := make(map[string]bool, len(f.Questions))
	for _, q := range f.Questions {
		if q.ID == "" {
			return nil, eris.New("risk: question with empty id")
		}
		if seen[q.ID] {
			return nil, eris.Errorf("risk: duplicate question id %q", q.ID)
		}
		seen[q.ID] = true
		if q.Text == "" {
			return nil, eris.Errorf("risk: question %q has no text", q.ID)
		}
		if len(q.Classes) < 2 {
			return nil, eris.Errorf("risk: question %q needs at least two classes", q.ID)
		}
		labels := make(map[string]bool, len(q.Classes))
		for _, c := range q.Classes {
			if c.Label == "" {
				return nil, eris.Errorf("risk: question %q has a class with empty label", q.ID)
			}
			if labels[c.Label] {
				return nil, eris.Errorf("risk: question %q has duplicate class %q", q.ID, c.Label)
			}
			labels[c.Label] = true
			if c.Weight < 0 {
				return nil, eris.Errorf("risk: question %q class %q has negative weight", q.ID, c.Label)
			}
		}
		if q.MaxWeight() == 0 {
			return nil, eris.Errorf("risk: question %q has all-zero weights", q.ID)
		}
	}

	return f.Questions, nil
}
