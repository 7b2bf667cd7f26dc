package cluster

import (
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
)

// Options configures a clustering run.
type Options struct {
	// K fixes the number of clusters. Zero selects k by silhouette sweep.
	K int
	// MaxK bounds the silhouette sweep when K is zero. Default: 10.
	MaxK int
	// Seed fixes the random source for deterministic assignments.
	Seed uint64
	// MaxIter bounds Lloyd iterations per fit.
	MaxIter int
}

// Run validates the records, builds the feature matrix, clusters it, and
// returns each stock tagged with its cluster label. Output rows correspond
// one-to-one with input rows, in input order.
func Run(records []model.StockRecord, opts Options) ([]model.ClusteredStock, *model.ClusteringResult, error) {
	if err := ValidateRecords(records); err != nil {
		return nil, nil, err
	}

	X, sectors := BuildMatrix(records)

	var (
		k      int
		labels []int
		score  float64
		err    error
	)
	if opts.K > 0 {
		k = opts.K
		km := KMeans{K: k, MaxIter: opts.MaxIter, Seed: opts.Seed}
		labels, _, err = km.Fit(X)
		if err == nil {
			score = Silhouette(X, labels)
		}
	} else {
		maxK := opts.MaxK
		if maxK <= 0 {
			maxK = 10
		}
		k, labels, score, err = ChooseK(X, maxK, opts.Seed)
	}
	if err != nil {
		return nil, nil, err
	}

	out := make([]model.ClusteredStock, len(records))
	for i, r := range records {
		out[i] = model.ClusteredStock{StockRecord: r, Cluster: labels[i]}
	}

	zap.L().Info("cluster: assignment complete",
		zap.Int("stocks", len(records)),
		zap.Int("clusters", k),
		zap.Int("sectors", len(sectors)),
		zap.Float64("silhouette", score),
	)

	return out, &model.ClusteringResult{
		Stocks:     len(records),
		Clusters:   k,
		Silhouette: score,
	}, nil
}
