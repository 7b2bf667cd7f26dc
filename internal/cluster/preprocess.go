// Package cluster groups stocks with similar feature profiles using k-means
// over standardized numeric features and one-hot encoded sectors. A full
// batch recomputation each run; there is no incremental update path.
package cluster

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/finvista/advisor-cli/internal/model"
)

// numericFeatures is the number of numeric columns fed to clustering:
// market cap, P/E ratio, average return, volatility.
const numericFeatures = 4

// ValidateRecords rejects input that would poison the feature matrix.
// Missing or malformed values fail the run; nothing is imputed.
func ValidateRecords(records []model.StockRecord) error {
	if len(records) == 0 {
		return eris.New("cluster: no stock records")
	}

	var problems []string
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		switch {
		case r.Ticker == "":
			problems = append(problems, eris.Errorf("row %d: empty ticker", i+1).Error())
		case seen[r.Ticker]:
			problems = append(problems, eris.Errorf("row %d: duplicate ticker %s", i+1, r.Ticker).Error())
		default:
			seen[r.Ticker] = true
		}
		if r.Sector == "" {
			problems = append(problems, eris.Errorf("row %d (%s): empty sector", i+1, r.Ticker).Error())
		}
		for name, v := range map[string]float64{
			"market cap":     r.MarketCap,
			"p/e ratio":      r.PERatio,
			"average return": r.AverageReturn,
			"volatility":     r.Volatility,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				problems = append(problems, eris.Errorf("row %d (%s): non-finite %s", i+1, r.Ticker, name).Error())
			}
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("cluster: invalid input data:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// BuildMatrix converts validated records into the clustering feature matrix:
// standardized numeric columns (zero mean, unit variance) followed by one
// binary column per sector. Sector columns are left unscaled, matching the
// usual one-hot treatment.
func BuildMatrix(records []model.StockRecord) (*mat.Dense, []string) {
	sectors := sectorIndex(records)

	rows := len(records)
	cols := numericFeatures + len(sectors)
	X := mat.NewDense(rows, cols, nil)

	for i, r := range records {
		X.Set(i, 0, r.MarketCap)
		X.Set(i, 1, r.PERatio)
		X.Set(i, 2, r.AverageReturn)
		X.Set(i, 3, r.Volatility)
		X.Set(i, numericFeatures+sectors[r.Sector], 1)
	}

	standardizeColumns(X, numericFeatures)

	names := make([]string, 0, len(sectors))
	for s := range sectors {
		names = append(names, s)
	}
	sort.Strings(names)
	return X, names
}

// sectorIndex maps each sector to its one-hot column offset, in sorted order
// so the layout is stable across runs.
func sectorIndex(records []model.StockRecord) map[string]int {
	var names []string
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Sector] {
			seen[r.Sector] = true
			names = append(names, r.Sector)
		}
	}
	sort.Strings(names)

	index := make(map[string]int, len(names))
	for i, s := range names {
		index[s] = i
	}
	return index
}

// standardizeColumns scales the first n columns to zero mean and unit
// variance. Constant columns are centered only.
func standardizeColumns(X *mat.Dense, n int) {
	rows, _ := X.Dims()
	col := make([]float64, rows)
	for j := 0; j < n; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < rows; i++ {
			v := col[i] - mean
			if std > 0 {
				v /= std
			}
			X.Set(i, j, v)
		}
	}
}
