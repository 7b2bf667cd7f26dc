package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvista/advisor-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "advisor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.RunKindCluster)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	result := &model.RunResult{
		Clustering: &model.ClusteringResult{Stocks: 50, Clusters: 4, Silhouette: 0.61},
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, result))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	require.NotNil(t, got.Result.Clustering)
	assert.Equal(t, 4, got.Result.Clustering.Clusters)
	assert.InDelta(t, 0.61, got.Result.Clustering.Silhouette, 1e-9)
}

func TestSQLiteStore_FailRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.RunKindRiskScore)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, eris.New("classifier unavailable")))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, got.Status)
	require.NotNil(t, got.Result)
	assert.Contains(t, got.Result.Error, "classifier unavailable")
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetRun(context.Background(), "nonexistent")
	assert.Error(t, err)
}

func TestSQLiteStore_CompleteRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)
	err := s.CompleteRun(context.Background(), "nonexistent", &model.RunResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_ListRuns_Filters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	cluster, err := s.CreateRun(ctx, model.RunKindCluster)
	require.NoError(t, err)
	require.NoError(t, s.CompleteRun(ctx, cluster.ID, &model.RunResult{}))

	_, err = s.CreateRun(ctx, model.RunKindRiskScore)
	require.NoError(t, err)

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	clusters, err := s.ListRuns(ctx, RunFilter{Kind: model.RunKindCluster})
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, cluster.ID, clusters[0].ID)

	running, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusRunning})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, model.RunKindRiskScore, running[0].Kind)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteStore_Assignments(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.RunKindCluster)
	require.NoError(t, err)

	stocks := []model.ClusteredStock{
		{StockRecord: model.StockRecord{Ticker: "INFY", Sector: "Technology", MarketCap: 7.4e10, PERatio: 24.1, AverageReturn: 0.0004, Volatility: 0.015}, Cluster: 1},
		{StockRecord: model.StockRecord{Ticker: "HDFCBANK", Sector: "Financials", MarketCap: 9.1e10, PERatio: 18.2, AverageReturn: 0.0006, Volatility: 0.012}, Cluster: 0},
	}
	require.NoError(t, s.SaveAssignments(ctx, run.ID, stocks))

	got, err := s.Assignments(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by cluster, then ticker.
	assert.Equal(t, "HDFCBANK", got[0].Ticker)
	assert.Equal(t, "INFY", got[1].Ticker)
	assert.Equal(t, stocks[0].StockRecord, got[1].StockRecord)
}

func TestSQLiteStore_Assignments_EmptyRun(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.Assignments(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}
