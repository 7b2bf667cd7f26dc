package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/sentiment"
	"github.com/finvista/advisor-cli/pkg/reddit"
	"github.com/finvista/advisor-cli/pkg/youtube"
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment <ticker>...",
	Short: "Score per-stock risk from market chatter and beta",
	Long: `Fetches recent Reddit posts and YouTube videos about each ticker,
classifies their tone through the hosted zero-shot model, and blends the mean
sentiment polarity with the stock's index-relative beta into a risk score in
[0, 1]. A source that fails is skipped; with no usable chatter the score
falls back to beta alone.

Examples:
  sentiment RELIANCE TCS
  sentiment INFY --offline`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSentiment,
}

func init() {
	f := sentimentCmd.Flags()
	f.Bool("offline", false, "use a uniform stub classifier instead of the hosted model")
	f.Bool("save", true, "persist each score to the store")

	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	offline, _ := cmd.Flags().GetBool("offline")
	classifier, err := initClassifier(offline)
	if err != nil {
		return err
	}

	rc := reddit.NewClient(reddit.WithUserAgent(cfg.Reddit.UserAgent))
	var yc youtube.Client
	if cfg.YouTube.Key != "" {
		yc = youtube.NewClient(cfg.YouTube.Key)
	} else {
		zap.L().Warn("sentiment: no youtube API key, source disabled")
	}

	scorer := sentiment.New(classifier, rc, yc, sentiment.Options{
		ItemsPerSource:  cfg.Sentiment.ItemsPerSource,
		Subreddit:       cfg.Reddit.Subreddit,
		BetaWeight:      cfg.Sentiment.BetaWeight,
		SentimentWeight: cfg.Sentiment.SentimentWeight,
	})
	fetcher := initMarketData()
	save, _ := cmd.Flags().GetBool("save")

	var failed []string
	for _, ticker := range args {
		beta, err := fetcher.BetaFor(ctx, ticker)
		if err != nil {
			zap.L().Error("sentiment: beta unavailable",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			failed = append(failed, ticker)
			continue
		}

		score, err := scorer.Score(ctx, ticker, beta)
		if err != nil {
			zap.L().Error("sentiment: scoring failed",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			failed = append(failed, ticker)
			continue
		}

		if save {
			persistSentimentRun(ctx, score)
		}
		fmt.Fprintln(os.Stdout, sentiment.Describe(score))
	}

	if len(failed) == len(args) {
		return eris.New("sentiment: every ticker failed")
	}
	return nil
}

func persistSentimentRun(ctx context.Context, score *model.SentimentScore) {
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("sentiment: store unavailable, skipping persistence", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("sentiment: migrate failed, skipping persistence", zap.Error(err))
		return
	}

	run, err := st.CreateRun(ctx, model.RunKindSentiment)
	if err != nil {
		zap.L().Warn("sentiment: create run failed", zap.Error(err))
		return
	}
	if err := st.CompleteRun(ctx, run.ID, &model.RunResult{Sentiment: score}); err != nil {
		zap.L().Warn("sentiment: complete run failed", zap.Error(err))
	}
}
