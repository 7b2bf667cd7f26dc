package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/finvista/advisor-cli/internal/dataset"
	"github.com/finvista/advisor-cli/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend diversification candidates for a portfolio",
	Long: `Matches the holdings in an XLSX portfolio (column "Stock Ticker")
against a clustered stock universe and suggests the top stocks by average
return from clusters the portfolio has no exposure to.

Examples:
  recommend --clusters indian_stocks_clusters.csv --portfolio user_data.xlsx --top 5`,
	RunE: runRecommend,
}

func init() {
	f := recommendCmd.Flags()
	f.String("clusters", "", "clustered universe CSV from the cluster command (required)")
	f.String("portfolio", "", "XLSX portfolio with a Stock Ticker column (required)")
	f.Int("top", 5, "number of candidates to suggest")
	f.String("output", "", "write candidates to this CSV instead of stdout")
	f.String("portfolio-output", "", "optionally write holdings with their cluster labels to this CSV")
	_ = recommendCmd.MarkFlagRequired("clusters")
	_ = recommendCmd.MarkFlagRequired("portfolio")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	clustersPath, _ := cmd.Flags().GetString("clusters")
	clustered, err := dataset.ReadClusters(clustersPath)
	if err != nil {
		return err
	}

	portfolioPath, _ := cmd.Flags().GetString("portfolio")
	holdings, err := dataset.ReadPortfolio(portfolioPath)
	if err != nil {
		return err
	}

	topN, _ := cmd.Flags().GetInt("top")
	res, err := recommend.Rank(clustered, holdings, topN)
	if err != nil {
		return eris.Wrap(err, "recommend")
	}

	if len(res.Holdings) == 0 {
		fmt.Fprintln(os.Stderr, "No matches: none of the holdings appear in the clustered universe.")
		return nil
	}

	if path, _ := cmd.Flags().GetString("portfolio-output"); path != "" {
		rows := make([]dataset.PortfolioCluster, 0, len(res.Holdings))
		for ticker, c := range res.Holdings {
			rows = append(rows, dataset.PortfolioCluster{Ticker: ticker, Cluster: c})
		}
		if err := dataset.WritePortfolioClusters(path, rows); err != nil {
			return err
		}
	}

	if len(res.Candidates) == 0 {
		fmt.Fprintln(os.Stderr, "No candidates: the portfolio already spans every cluster.")
		return nil
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return dataset.WriteRecommendations(output, res.Candidates)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tCLUSTER\tAVG RETURN")
	for _, c := range res.Candidates {
		fmt.Fprintf(w, "%s\t%d\t%.5f\n", c.Ticker, c.Cluster, c.AverageReturn)
	}
	return w.Flush()
}
