package cluster

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette computes the mean silhouette coefficient of a labeling: for
// each point, (b-a)/max(a,b) where a is the mean distance to its own cluster
// and b the smallest mean distance to any other cluster. Singleton-cluster
// points score 0.
func Silhouette(X *mat.Dense, labels []int) float64 {
	rows, cols := X.Dims()
	if rows < 2 {
		return 0
	}

	k := 0
	for _, l := range labels {
		if l+1 > k {
			k = l + 1
		}
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	pi := make([]float64, cols)
	pj := make([]float64, cols)
	sums := make([]float64, k)

	var total float64
	for i := 0; i < rows; i++ {
		if counts[labels[i]] <= 1 {
			continue // singleton scores 0
		}

		for c := range sums {
			sums[c] = 0
		}
		mat.Row(pi, i, X)
		for j := 0; j < rows; j++ {
			if i == j {
				continue
			}
			mat.Row(pj, j, X)
			sums[labels[j]] += floats.Distance(pi, pj, 2)
		}

		a := sums[labels[i]] / float64(counts[labels[i]]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == labels[i] || counts[c] == 0 {
				continue
			}
			if m := sums[c] / float64(counts[c]); m < b {
				b = m
			}
		}

		// b stays +Inf when every other cluster is empty; the point has no
		// neighbor cluster to compare against and scores 0.
		if math.IsInf(b, 1) {
			continue
		}
		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}

	return total / float64(rows)
}

// ChooseK sweeps k over [2, maxK] and returns the labeling with the highest
// silhouette score.
func ChooseK(X *mat.Dense, maxK int, seed uint64) (k int, labels []int, score float64, err error) {
	rows, _ := X.Dims()
	if maxK > rows {
		maxK = rows
	}
	if maxK < 2 {
		return 0, nil, 0, eris.Errorf("cluster: need at least 2 rows to sweep k, got %d", rows)
	}

	bestScore := math.Inf(-1)
	for candidate := 2; candidate <= maxK; candidate++ {
		km := KMeans{K: candidate, Seed: seed}
		candidateLabels, inertia, fitErr := km.Fit(X)
		if fitErr != nil {
			return 0, nil, 0, fitErr
		}

		s := Silhouette(X, candidateLabels)
		zap.L().Debug("cluster: k sweep",
			zap.Int("k", candidate),
			zap.Float64("silhouette", s),
			zap.Float64("inertia", inertia),
		)

		if math.IsNaN(s) {
			continue
		}
		if s > bestScore {
			bestScore = s
			k = candidate
			labels = candidateLabels
		}
	}

	if labels == nil {
		return 0, nil, 0, eris.New("cluster: silhouette sweep selected no labeling")
	}
	return k, labels, bestScore, nil
}
