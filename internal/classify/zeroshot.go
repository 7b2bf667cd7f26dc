package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/pkg/anthropic"
)

const zeroShotSystemPrompt = `You are a zero-shot text classifier. Given a text and a fixed list of candidate labels, assign each label a confidence score. Scores must be non-negative and sum to 1. Respond with a single JSON object mapping every candidate label to its score, and nothing else.`

const zeroShotUserPrompt = `Candidate labels: %s

Text:
%s`

// ZeroShotOptions configures the hosted zero-shot classifier.
type ZeroShotOptions struct {
	Model       string
	Timeout     time.Duration // per-call deadline; elapsed timeouts surface as classifier failures
	Temperature float64
}

// ZeroShot classifies text against candidate labels by prompting a hosted
// Anthropic model for a JSON confidence distribution.
type ZeroShot struct {
	client anthropic.Client
	opts   ZeroShotOptions
}

// NewZeroShot creates a hosted zero-shot classifier.
func NewZeroShot(client anthropic.Client, opts ZeroShotOptions) *ZeroShot {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	return &ZeroShot{client: client, opts: opts}
}

// Classify submits one classification request and parses the returned
// distribution. Labels the model omits get zero confidence; labels outside
// the candidate set are dropped before validation.
func (z *ZeroShot) Classify(ctx context.Context, text string, labels []string) (model.Distribution, error) {
	if len(labels) == 0 {
		return nil, eris.New("classify: no candidate labels")
	}

	ctx, cancel := context.WithTimeout(ctx, z.opts.Timeout)
	defer cancel()

	temp := z.opts.Temperature
	prompt := fmt.Sprintf(zeroShotUserPrompt, strings.Join(labels, ", "), NormalizeText(text))
	resp, err := z.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       z.opts.Model,
		MaxTokens:   256,
		System:      zeroShotSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classify: create message")
	}

	dist, err := parseDistribution(resp.Text(), labels)
	if err != nil {
		zap.L().Warn("classify: unparseable model output",
			zap.String("model", z.opts.Model),
			zap.Error(err),
		)
		return nil, err
	}

	resp.Usage.LogCost(z.opts.Model, "classify")
	return dist, nil
}

// parseDistribution extracts a label→confidence mapping from model output and
// validates it against the candidate set.
func parseDistribution(text string, labels []string) (model.Distribution, error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, eris.Wrap(err, "classify: parse distribution")
	}

	candidates := make(map[string]bool, len(labels))
	for _, l := range labels {
		candidates[l] = true
	}

	dist := make(model.Distribution, len(labels))
	for _, l := range labels {
		dist[l] = 0
	}
	for label, conf := range raw {
		if !candidates[label] {
			continue
		}
		dist[label] = conf
	}

	if err := dist.Validate(); err != nil {
		return nil, err
	}
	return dist, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
