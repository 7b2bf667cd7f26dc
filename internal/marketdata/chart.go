package marketdata

import (
	"context"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rotisserie/eris"
)

// ChartHistory fetches daily closing prices for a symbol over [start, end]
// from the hosted chart API.
func ChartHistory(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	params := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Interval: datetime.OneDay,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
	}

	iter := chart.Get(params)
	var closes []float64
	for iter.Next() {
		bar := iter.Bar()
		c, _ := bar.Close.Float64()
		if c > 0 {
			closes = append(closes, c)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, eris.Wrapf(err, "marketdata: chart %s", symbol)
	}
	return closes, nil
}
