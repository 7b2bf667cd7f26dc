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

	"github.com/finvista/advisor-cli/internal/cluster"
	"github.com/finvista/advisor-cli/internal/dataset"
	"github.com/finvista/advisor-cli/internal/model"
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster a stock universe by sector, size, and volatility profile",
	Long: `Reads a stock metrics CSV (Ticker, Sector, Market Cap, P/E Ratio,
Average Return, Volatility), standardizes the numeric features, one-hot
encodes sectors, and groups the stocks with seeded k-means. Without --k the
cluster count is chosen by silhouette sweep.

Examples:
  # Auto-select k and write the default output file
  cluster --input stock_metrics.csv

  # Fixed cluster count, custom output
  cluster --input stock_metrics.csv --k 6 --output clusters.csv`,
	RunE: runCluster,
}

func init() {
	f := clusterCmd.Flags()
	f.String("input", "", "stock metrics CSV to cluster (required)")
	f.String("output", "", "output CSV path (default from config)")
	f.Int("k", 0, "fixed cluster count; 0 selects k by silhouette sweep")
	f.Int("max-k", 0, "upper bound for the silhouette sweep")
	f.Uint64("seed", 0, "random seed for reproducible assignments")
	f.Bool("save", true, "persist the run and assignments to the store")
	_ = clusterCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input, _ := cmd.Flags().GetString("input")
	records, err := dataset.ReadStocks(input)
	if err != nil {
		return err
	}

	opts := cluster.Options{
		K:    cfg.Cluster.K,
		MaxK: cfg.Cluster.MaxK,
		Seed: cfg.Cluster.Seed,
	}
	if k, _ := cmd.Flags().GetInt("k"); k > 0 {
		opts.K = k
	}
	if maxK, _ := cmd.Flags().GetInt("max-k"); maxK > 0 {
		opts.MaxK = maxK
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed, _ = cmd.Flags().GetUint64("seed")
	}

	clustered, result, err := cluster.Run(records, opts)
	if err != nil {
		return eris.Wrap(err, "cluster")
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = cfg.Cluster.Output
	}
	if err := dataset.WriteClusters(output, clustered); err != nil {
		return err
	}
	result.OutputPath = output

	if save, _ := cmd.Flags().GetBool("save"); save {
		persistClusterRun(ctx, result, clustered)
	}

	fmt.Fprintf(os.Stderr, "Clustered %d stocks into %d groups (silhouette %.3f) -> %s\n",
		result.Stocks, result.Clusters, result.Silhouette, output)
	return nil
}

func persistClusterRun(ctx context.Context, result *model.ClusteringResult, clustered []model.ClusteredStock) {
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("cluster: store unavailable, skipping persistence", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("cluster: migrate failed, skipping persistence", zap.Error(err))
		return
	}

	run, err := st.CreateRun(ctx, model.RunKindCluster)
	if err != nil {
		zap.L().Warn("cluster: create run failed", zap.Error(err))
		return
	}
	if err := st.SaveAssignments(ctx, run.ID, clustered); err != nil {
		zap.L().Warn("cluster: save assignments failed", zap.Error(err))
	}
	if err := st.CompleteRun(ctx, run.ID, &model.RunResult{Clustering: result}); err != nil {
		zap.L().Warn("cluster: complete run failed", zap.Error(err))
	}
}
