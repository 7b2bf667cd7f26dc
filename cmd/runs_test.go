package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finvista/advisor-cli/internal/model"
)

func TestSummarizeRun(t *testing.T) {
	assert.Equal(t, "-", summarizeRun(model.Run{}))

	r := model.Run{Result: &model.RunResult{RiskScore: &model.RiskResult{Score: 0.714, Answered: 12}}}
	assert.Equal(t, "score 0.714 over 12 questions", summarizeRun(r))

	r = model.Run{Result: &model.RunResult{Clustering: &model.ClusteringResult{Stocks: 50, Clusters: 4, Silhouette: 0.612}}}
	assert.Equal(t, "50 stocks, 4 clusters, silhouette 0.612", summarizeRun(r))

	r = model.Run{Result: &model.RunResult{Sentiment: &model.SentimentScore{Ticker: "TCS", Score: 0.4}}}
	assert.Equal(t, "TCS risk 0.400", summarizeRun(r))

	r = model.Run{Result: &model.RunResult{Error: "classifier unavailable"}}
	assert.Equal(t, "error: classifier unavailable", summarizeRun(r))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123456789...", truncate("0123456789abcdef", 10))
}

func TestFormatRunsList(t *testing.T) {
	var sb strings.Builder
	runs := []model.Run{
		{
			ID:        "run-1",
			Kind:      model.RunKindCluster,
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{Clustering: &model.ClusteringResult{Stocks: 10, Clusters: 2, Silhouette: 0.5}},
			CreatedAt: time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
		},
	}
	formatRunsList(&sb, runs)

	out := sb.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "cluster")
	assert.Contains(t, out, "2026-08-20 09:30")
}
