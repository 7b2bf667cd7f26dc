package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/risk"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score investor risk tolerance from questionnaire answers",
	Long: `Classifies free-text questionnaire answers against each question's answer
classes using a hosted zero-shot model, then aggregates the confidence-weighted
class weights into a single risk tolerance score in [0, 1].

Unanswered questions and questions whose classification fails are excluded from
the score. If nothing could be scored, the command fails unless --default is set.

Examples:
  # Score answers from a JSON file
  score --answers answers.json

  # Score inline answers
  score --answer age="I'm 28" --answer horizon="20+ years until retirement"

  # Offline smoke run without API credentials
  score --answers answers.json --offline`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("answers", "", "path to JSON file mapping question id to answer text")
	f.StringArray("answer", nil, "inline answer as id=text (repeatable)")
	f.Float64("default", -1, "score to report when no question could be scored")
	f.Bool("offline", false, "use a uniform stub classifier instead of the hosted model")
	f.Bool("save", true, "persist the run to the store")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	answers, err := collectAnswers(cmd)
	if err != nil {
		return err
	}

	questions, err := loadQuestions()
	if err != nil {
		return err
	}

	offline, _ := cmd.Flags().GetBool("offline")
	classifier, err := initClassifier(offline)
	if err != nil {
		return err
	}

	calc := risk.NewCalculator(classifier, questions, cfg.Risk.Concurrency)
	result, err := calc.Score(ctx, answers)

	save, _ := cmd.Flags().GetBool("save")
	if save {
		persistScoreRun(ctx, result, err)
	}

	if err != nil {
		if eris.Is(err, risk.ErrNoScore) {
			if fallback, _ := cmd.Flags().GetFloat64("default"); fallback >= 0 {
				zap.L().Warn("score: no questions scored, reporting default",
					zap.Float64("default", fallback),
				)
				result = &model.RiskResult{Score: fallback}
				return printJSON(result)
			}
		}
		return eris.Wrap(err, "score")
	}

	return printJSON(result)
}

func collectAnswers(cmd *cobra.Command) (map[string]string, error) {
	answers := make(map[string]string)

	if path, _ := cmd.Flags().GetString("answers"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "score: read answers %s", path)
		}
		if err := json.Unmarshal(data, &answers); err != nil {
			return nil, eris.Wrapf(err, "score: parse answers %s", path)
		}
	}

	inline, _ := cmd.Flags().GetStringArray("answer")
	for _, pair := range inline {
		id, text, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, eris.Errorf("score: malformed --answer %q, want id=text", pair)
		}
		answers[id] = text
	}

	if len(answers) == 0 {
		return nil, eris.New("score: no answers given, use --answers or --answer")
	}
	return answers, nil
}

func loadQuestions() ([]model.Question, error) {
	if cfg.Risk.QuestionsPath != "" {
		return risk.LoadQuestionsFromFile(cfg.Risk.QuestionsPath)
	}
	return risk.LoadQuestions()
}

func persistScoreRun(ctx context.Context, result *model.RiskResult, scoreErr error) {
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("score: store unavailable, skipping persistence", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("score: migrate failed, skipping persistence", zap.Error(err))
		return
	}

	run, err := st.CreateRun(ctx, model.RunKindRiskScore)
	if err != nil {
		zap.L().Warn("score: create run failed", zap.Error(err))
		return
	}

	if scoreErr != nil {
		if err := st.FailRun(ctx, run.ID, scoreErr); err != nil {
			zap.L().Warn("score: fail run failed", zap.Error(err))
		}
		return
	}
	if err := st.CompleteRun(ctx, run.ID, &model.RunResult{RiskScore: result}); err != nil {
		zap.L().Warn("score: complete run failed", zap.Error(err))
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
