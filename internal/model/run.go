package model

import "time"

// RunKind identifies which pipeline produced a run record.
type RunKind string

const (
	RunKindRiskScore RunKind = "risk_score"
	RunKindCluster   RunKind = "cluster"
	RunKindSentiment RunKind = "sentiment"
)

// RunStatus tracks run lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunResult holds the kind-specific payload of a finished run. Exactly one
// of the pointers is set on success; Error carries the failure message
// otherwise.
type RunResult struct {
	RiskScore  *RiskResult       `json:"risk_score,omitempty"`
	Clustering *ClusteringResult `json:"clustering,omitempty"`
	Sentiment  *SentimentScore   `json:"sentiment,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Run is a persisted record of a single batch invocation.
type Run struct {
	ID        string     `json:"id"`
	Kind      RunKind    `json:"kind"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
