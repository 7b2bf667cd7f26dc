// Package sentiment scores a stock's risk from market chatter: recent posts
// and videos about the ticker are classified for tone, and the mean polarity
// is blended with the stock's market beta.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/pkg/reddit"
	"github.com/finvista/advisor-cli/pkg/youtube"
)

var sentimentLabels = []string{"positive", "neutral", "negative"}

const (
	defaultItemsPerSource = 15
	defaultSubreddit      = "IndianStockMarket"
	// Betas above 2 are treated as maximally volatile.
	betaCap = 2
)

// Options configures a sentiment scoring run.
type Options struct {
	ItemsPerSource int
	Subreddit      string
	// BetaWeight and SentimentWeight blend the two risk components.
	// They default to 0.5 each and are renormalized to sum to 1.
	BetaWeight      float64
	SentimentWeight float64
}

func (o *Options) applyDefaults() {
	if o.ItemsPerSource <= 0 {
		o.ItemsPerSource = defaultItemsPerSource
	}
	if o.Subreddit == "" {
		o.Subreddit = defaultSubreddit
	}
	if o.BetaWeight <= 0 && o.SentimentWeight <= 0 {
		o.BetaWeight, o.SentimentWeight = 0.5, 0.5
	}
	total := o.BetaWeight + o.SentimentWeight
	o.BetaWeight /= total
	o.SentimentWeight /= total
}

// Scorer combines classified chatter with market beta.
type Scorer struct {
	classifier classify.Classifier
	reddit     reddit.Client
	youtube    youtube.Client
	opts       Options
}

// New builds a Scorer. Either source client may be nil; a missing source is
// simply not consulted.
func New(classifier classify.Classifier, rc reddit.Client, yc youtube.Client, opts Options) *Scorer {
	opts.applyDefaults()
	return &Scorer{classifier: classifier, reddit: rc, youtube: yc, opts: opts}
}

// Score fetches chatter for the ticker, classifies each item, and blends the
// mean polarity with beta. A source that fails is skipped and logged; when no
// items survive from any source the result is beta-only and flagged as such.
func (s *Scorer) Score(ctx context.Context, ticker string, beta float64) (*model.SentimentScore, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, eris.New("sentiment: empty ticker")
	}

	items := s.collect(ctx, ticker)

	var (
		polarities []float64
		classified int
	)
	for _, text := range items {
		dist, err := s.classifier.Classify(ctx, text, sentimentLabels)
		if err != nil {
			zap.L().Warn("sentiment: classification failed, dropping item",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			continue
		}
		polarities = append(polarities, dist["positive"]-dist["negative"])
		classified++
	}

	score := &model.SentimentScore{
		Ticker: ticker,
		Beta:   beta,
		Items:  classified,
	}

	betaRisk := min(beta, betaCap) / betaCap
	if betaRisk < 0 {
		betaRisk = 0
	}

	if classified == 0 {
		score.BetaOnly = true
		score.Score = clamp01(betaRisk)
		zap.L().Warn("sentiment: no classified items, falling back to beta only",
			zap.String("ticker", ticker),
			zap.Float64("score", score.Score),
		)
		return score, nil
	}

	var mean float64
	for _, p := range polarities {
		mean += p
	}
	mean /= float64(len(polarities))
	score.MeanPolarity = mean

	// Polarity lives in [-1, 1]; (1-p)/2 maps bearish chatter to high risk.
	score.Score = clamp01(s.opts.BetaWeight*betaRisk + s.opts.SentimentWeight*(1-mean)/2)

	zap.L().Info("sentiment: scored ticker",
		zap.String("ticker", ticker),
		zap.Int("items", classified),
		zap.Float64("mean_polarity", mean),
		zap.Float64("beta", beta),
		zap.Float64("score", score.Score),
	)
	return score, nil
}

// collect gathers item texts from each configured source, degrading on
// per-source failure.
func (s *Scorer) collect(ctx context.Context, ticker string) []string {
	var items []string

	if s.reddit != nil {
		posts, err := s.reddit.Search(ctx, s.opts.Subreddit, ticker, s.opts.ItemsPerSource)
		if err != nil {
			zap.L().Warn("sentiment: reddit source unavailable",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
		} else {
			for _, p := range posts {
				if text := postText(p); text != "" {
					items = append(items, text)
				}
			}
		}
	}

	if s.youtube != nil {
		videos, err := s.youtube.Search(ctx, ticker+" stock", s.opts.ItemsPerSource)
		if err != nil {
			zap.L().Warn("sentiment: youtube source unavailable",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
		} else {
			for _, v := range videos {
				if text := videoText(v); text != "" {
					items = append(items, text)
				}
			}
		}
	}

	return items
}

func postText(p reddit.Post) string {
	return strings.TrimSpace(strings.TrimSpace(p.Title) + "\n" + strings.TrimSpace(p.SelfText))
}

func videoText(v youtube.Video) string {
	return strings.TrimSpace(strings.TrimSpace(v.Title) + "\n" + strings.TrimSpace(v.Description))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Describe renders a one-line summary for CLI output.
func Describe(s *model.SentimentScore) string {
	if s.BetaOnly {
		return fmt.Sprintf("%s: risk %.3f (beta %.2f, no chatter found)", s.Ticker, s.Score, s.Beta)
	}
	return fmt.Sprintf("%s: risk %.3f (beta %.2f, polarity %+.2f over %d items)", s.Ticker, s.Score, s.Beta, s.MeanPolarity, s.Items)
}
