package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/dataset"
	"github.com/finvista/advisor-cli/internal/model"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch stock metrics for a ticker universe",
	Long: `Pulls quotes, a year of price history, and company profiles for each
ticker in the input list and writes the derived feature metrics (sector,
market cap, P/E, average daily return, volatility) to a CSV ready for the
cluster command. Tickers with incomplete upstream data are skipped and
logged.

Examples:
  # Fetch metrics for an NSE equity list
  fetch --tickers nse_equity.csv --output stock_metrics.csv`,
	RunE: runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.String("tickers", "", "CSV with a SYMBOL column listing the universe (required)")
	f.String("output", "stock_metrics.csv", "output CSV path")
	_ = fetchCmd.MarkFlagRequired("tickers")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tickersPath, _ := cmd.Flags().GetString("tickers")
	tickers, err := dataset.ReadTickers(tickersPath)
	if err != nil {
		return err
	}

	fetcher := initMarketData()
	metrics, skipped, err := fetcher.FetchAll(ctx, tickers)
	if err != nil {
		return eris.Wrap(err, "fetch")
	}
	if len(metrics) == 0 {
		return eris.New("fetch: no ticker returned complete market data")
	}

	records := make([]model.StockRecord, len(metrics))
	for i, m := range metrics {
		records[i] = m.StockRecord
	}

	output, _ := cmd.Flags().GetString("output")
	if err := dataset.WriteStocks(output, records); err != nil {
		return err
	}

	if len(skipped) > 0 {
		zap.L().Warn("fetch: tickers skipped for incomplete data",
			zap.Strings("tickers", skipped),
		)
	}
	fmt.Fprintf(os.Stderr, "Fetched %d of %d tickers -> %s\n", len(records), len(tickers), output)
	return nil
}
