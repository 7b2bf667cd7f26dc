// Package recommend suggests diversification candidates: stocks from
// clusters the user does not already hold, ranked by average return.
package recommend

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
)

const defaultTopN = 5

// Result is the outcome of a recommendation run.
type Result struct {
	// Holdings maps each recognized held ticker to its cluster.
	Holdings map[string]int
	// Unknown lists held tickers absent from the clustered universe.
	Unknown []string
	// Candidates are the ranked suggestions.
	Candidates []model.Recommendation
}

// Rank matches the user's holdings against the clustered universe and
// returns the top candidates from clusters the user has no exposure to.
func Rank(clustered []model.ClusteredStock, holdings []string, topN int) (*Result, error) {
	if len(clustered) == 0 {
		return nil, eris.New("recommend: clustered universe is empty")
	}
	if len(holdings) == 0 {
		return nil, eris.New("recommend: no holdings provided")
	}
	if topN <= 0 {
		topN = defaultTopN
	}

	byTicker := make(map[string]model.ClusteredStock, len(clustered))
	for _, c := range clustered {
		byTicker[strings.ToUpper(c.Ticker)] = c
	}

	res := &Result{Holdings: make(map[string]int, len(holdings))}
	heldClusters := make(map[int]bool)
	heldTickers := make(map[string]bool, len(holdings))
	for _, h := range holdings {
		key := strings.ToUpper(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		heldTickers[key] = true
		c, ok := byTicker[key]
		if !ok {
			res.Unknown = append(res.Unknown, h)
			continue
		}
		res.Holdings[c.Ticker] = c.Cluster
		heldClusters[c.Cluster] = true
	}

	// No holding matched the universe: an explicit no-matches result, not an
	// error. Without a matched cluster there is nothing to diversify away from.
	if len(res.Holdings) == 0 {
		zap.L().Warn("recommend: no holdings matched the clustered universe",
			zap.Strings("tickers", res.Unknown),
		)
		return res, nil
	}
	if len(res.Unknown) > 0 {
		zap.L().Warn("recommend: holdings missing from universe",
			zap.Strings("tickers", res.Unknown),
		)
	}

	for _, c := range clustered {
		if heldClusters[c.Cluster] || heldTickers[strings.ToUpper(c.Ticker)] {
			continue
		}
		res.Candidates = append(res.Candidates, model.Recommendation{
			Ticker:        c.Ticker,
			Cluster:       c.Cluster,
			AverageReturn: c.AverageReturn,
		})
	}

	sort.SliceStable(res.Candidates, func(i, j int) bool {
		return res.Candidates[i].AverageReturn > res.Candidates[j].AverageReturn
	})
	if len(res.Candidates) > topN {
		res.Candidates = res.Candidates[:topN]
	}

	zap.L().Info("recommend: ranked candidates",
		zap.Int("holdings", len(res.Holdings)),
		zap.Int("held_clusters", len(heldClusters)),
		zap.Int("candidates", len(res.Candidates)),
	)
	return res, nil
}
