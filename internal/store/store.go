// Package store persists run records and cluster assignments behind a
// backend-neutral interface, with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/finvista/advisor-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind   `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for scoring and clustering runs.
type Store interface {
	CreateRun(ctx context.Context, kind model.RunKind) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Cluster assignments are stored per run so past labelings stay
	// reproducible after the universe changes.
	SaveAssignments(ctx context.Context, runID string, stocks []model.ClusteredStock) error
	Assignments(ctx context.Context, runID string) ([]model.ClusteredStock, error)

	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

var assignmentColumns = []string{
	"run_id", "ticker", "sector", "market_cap", "pe_ratio",
	"average_return", "volatility", "cluster",
}
