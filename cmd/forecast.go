package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/forecast"
	"github.com/finvista/advisor-cli/internal/marketdata"
)

// Two years of history, matching the window the models were tuned on.
const forecastLookbackDays = 730

var forecastCmd = &cobra.Command{
	Use:   "forecast <ticker>...",
	Short: "Project near-term closing prices for a stock",
	Long: `Fetches daily closing prices, evaluates a linear-trend model and a
first-order autoregressive model on a short holdout, and projects the next
days with whichever fits better. Reports the expected percent change over
the forecast window.

Examples:
  forecast RELIANCE
  forecast TCS INFY --days 7`,
	Args: cobra.MinimumNArgs(1),
	RunE: runForecast,
}

func init() {
	f := forecastCmd.Flags()
	f.Int("days", 7, "number of days to project")
	f.Int("lookback", forecastLookbackDays, "days of price history to fit on")

	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	days, _ := cmd.Flags().GetInt("days")
	lookback, _ := cmd.Flags().GetInt("lookback")

	end := time.Now()
	start := end.AddDate(0, 0, -lookback)

	var failed []string
	for _, ticker := range args {
		closes, err := marketdata.ChartHistory(ctx, ticker+cfg.MarketData.QuerySuffix, start, end)
		if err != nil {
			zap.L().Error("forecast: price history unavailable",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			failed = append(failed, ticker)
			continue
		}

		out, err := forecast.Project(closes, forecast.Options{Horizon: days})
		if err != nil {
			zap.L().Error("forecast: projection failed",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
			failed = append(failed, ticker)
			continue
		}

		fmt.Fprintln(os.Stdout, describeOutlook(ticker, days, out))
	}

	if len(failed) == len(args) {
		return eris.New("forecast: every ticker failed")
	}
	return nil
}

func describeOutlook(ticker string, days int, out *forecast.Outlook) string {
	direction := "increase"
	change := out.PercentChange
	if change < 0 {
		direction = "decrease"
		change = -change
	}
	return fmt.Sprintf("%s: predicted to %s by %.2f%% over %d days (%s model, last projected close %.2f)",
		ticker, direction, change, days, out.Model, out.Prices[len(out.Prices)-1])
}
