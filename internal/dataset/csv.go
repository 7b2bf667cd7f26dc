// Package dataset reads and writes the stock metric tables and portfolio
// files the pipelines exchange.
package dataset

import (
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/finvista/advisor-cli/internal/model"
)

// stockRow mirrors model.StockRecord with pointer numerics so missing cells
// surface as nil instead of silently becoming zero.
type stockRow struct {
	Ticker        string   `csv:"Ticker"`
	Sector        string   `csv:"Sector"`
	MarketCap     *float64 `csv:"Market Cap"`
	PERatio       *float64 `csv:"P/E Ratio"`
	AverageReturn *float64 `csv:"Average Return"`
	Volatility    *float64 `csv:"Volatility"`
}

// ReadStocks loads the stock metrics CSV. Rows with missing or malformed
// feature values fail the read with a data-validation error listing every
// offending row; nothing is imputed.
func ReadStocks(path string) ([]model.StockRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}

	var rows []stockRow
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("dataset: %s has no data rows", path)
	}

	var problems []string
	records := make([]model.StockRecord, 0, len(rows))
	for i, row := range rows {
		missing := missingFields(row)
		if len(missing) > 0 {
			problems = append(problems, eris.Errorf("row %d (%s): missing %s", i+2, row.Ticker, strings.Join(missing, ", ")).Error())
			continue
		}
		records = append(records, model.StockRecord{
			Ticker:        row.Ticker,
			Sector:        row.Sector,
			MarketCap:     *row.MarketCap,
			PERatio:       *row.PERatio,
			AverageReturn: *row.AverageReturn,
			Volatility:    *row.Volatility,
		})
	}

	if len(problems) > 0 {
		return nil, eris.Errorf("dataset: %s failed validation:\n  %s", path, strings.Join(problems, "\n  "))
	}

	zap.L().Info("dataset: loaded stock metrics",
		zap.String("path", path),
		zap.Int("stocks", len(records)),
	)
	return records, nil
}

func missingFields(row stockRow) []string {
	var missing []string
	if row.Ticker == "" {
		missing = append(missing, "Ticker")
	}
	if row.Sector == "" {
		missing = append(missing, "Sector")
	}
	if row.MarketCap == nil {
		missing = append(missing, "Market Cap")
	}
	if row.PERatio == nil {
		missing = append(missing, "P/E Ratio")
	}
	if row.AverageReturn == nil {
		missing = append(missing, "Average Return")
	}
	if row.Volatility == nil {
		missing = append(missing, "Volatility")
	}
	return missing
}

// ReadClusters loads a previously written cluster table.
func ReadClusters(path string) ([]model.ClusteredStock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}

	var rows []struct {
		stockRow
		Cluster *int `csv:"Cluster"`
	}
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}
	if len(rows) == 0 {
		return nil, eris.Errorf("dataset: %s has no data rows", path)
	}

	clustered := make([]model.ClusteredStock, 0, len(rows))
	for i, row := range rows {
		missing := missingFields(row.stockRow)
		if row.Cluster == nil {
			missing = append(missing, "Cluster")
		}
		if len(missing) > 0 {
			return nil, eris.Errorf("dataset: %s row %d (%s): missing %s", path, i+2, row.Ticker, strings.Join(missing, ", "))
		}
		clustered = append(clustered, model.ClusteredStock{
			StockRecord: model.StockRecord{
				Ticker:        row.Ticker,
				Sector:        row.Sector,
				MarketCap:     *row.MarketCap,
				PERatio:       *row.PERatio,
				AverageReturn: *row.AverageReturn,
				Volatility:    *row.Volatility,
			},
			Cluster: *row.Cluster,
		})
	}
	return clustered, nil
}

// WriteStocks writes a stock metrics CSV.
func WriteStocks(path string, records []model.StockRecord) error {
	return writeCSV(path, records)
}

// WriteClusters writes the clustered stock table, one row per input stock
// with the added cluster column.
func WriteClusters(path string, clustered []model.ClusteredStock) error {
	return writeCSV(path, clustered)
}

// WriteRecommendations writes the diversification candidates.
func WriteRecommendations(path string, recs []model.Recommendation) error {
	return writeCSV(path, recs)
}

// PortfolioCluster pairs a held ticker with its cluster label.
type PortfolioCluster struct {
	Ticker  string `csv:"Ticker"`
	Cluster int    `csv:"Cluster"`
}

// WritePortfolioClusters writes the user's holdings with their cluster labels.
func WritePortfolioClusters(path string, rows []PortfolioCluster) error {
	return writeCSV(path, rows)
}

func writeCSV[T any](path string, rows []T) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrapf(err, "dataset: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	zap.L().Info("dataset: wrote csv",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return nil
}

// ReadTickers loads a ticker list from a CSV with a SYMBOL column,
// preserving order and dropping blanks and duplicates.
func ReadTickers(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}

	var rows []struct {
		Symbol string `csv:"SYMBOL"`
	}
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}

	seen := make(map[string]bool, len(rows))
	var tickers []string
	for _, r := range rows {
		s := strings.TrimSpace(r.Symbol)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tickers = append(tickers, s)
	}

	if len(tickers) == 0 {
		return nil, eris.Errorf("dataset: %s contains no tickers", path)
	}
	return tickers, nil
}
