// Package marketdata pulls quotes, price history, and company profiles for a
// ticker universe and derives the per-stock feature metrics from them.
package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	"github.com/finvista/advisor-cli/internal/model"
	"github.com/finvista/advisor-cli/internal/resilience"
)

const (
	defaultConcurrency  = 4
	defaultLookbackDays = 365
	defaultIndexSymbol  = "^NSEI"
	defaultRatePerSec   = 4
)

// Metrics is a stock's feature row plus its index-relative beta.
type Metrics struct {
	model.StockRecord
	Beta float64
}

// Quoter returns the current equity snapshot for a symbol.
type Quoter func(symbol string) (*finance.Equity, error)

// Historian returns daily closing prices for a symbol over [start, end].
type Historian func(ctx context.Context, symbol string, start, end time.Time) ([]float64, error)

// SectorLookup resolves a symbol's sector name.
type SectorLookup func(ctx context.Context, symbol string) (string, error)

// Options configures a Fetcher.
type Options struct {
	Concurrency   int
	LookbackDays  int
	IndexSymbol   string
	RatePerSecond float64
	// QuerySuffix is appended to tickers for the upstream APIs, e.g. ".NS"
	// for NSE listings. Records keep the bare ticker.
	QuerySuffix string
}

func (o *Options) applyDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = defaultLookbackDays
	}
	if o.IndexSymbol == "" {
		o.IndexSymbol = defaultIndexSymbol
	}
	if o.RatePerSecond <= 0 {
		o.RatePerSecond = defaultRatePerSec
	}
}

// Fetcher assembles stock metrics from quote, history, and profile sources.
type Fetcher struct {
	quote   Quoter
	history Historian
	sector  SectorLookup
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	opts    Options
}

// New builds a Fetcher backed by the hosted quote and profile APIs.
func New(opts Options) *Fetcher {
	opts.applyDefaults()
	profile := NewProfileClient(ProfileOptions{})
	return &Fetcher{
		quote:   equity.Get,
		history: ChartHistory,
		sector:  profile.Sector,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		retry:   resilience.DefaultRetryConfig(),
		opts:    opts,
	}
}

// NewWithSources builds a Fetcher over injected sources.
func NewWithSources(q Quoter, h Historian, s SectorLookup, opts Options) *Fetcher {
	opts.applyDefaults()
	return &Fetcher{
		quote:   q,
		history: h,
		sector:  s,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1),
		retry:   resilience.DefaultRetryConfig(),
		opts:    opts,
	}
}

// FetchAll gathers metrics for every ticker, skipping those with incomplete
// market data. Results keep input order; skipped tickers are returned
// separately. The benchmark index history is fetched once and shared by the
// per-ticker beta computation.
func (f *Fetcher) FetchAll(ctx context.Context, tickers []string) ([]Metrics, []string, error) {
	if len(tickers) == 0 {
		return nil, nil, eris.New("marketdata: no tickers to fetch")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -f.opts.LookbackDays)

	indexReturns, err := f.returns(ctx, f.opts.IndexSymbol, start, end)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "marketdata: fetch index %s", f.opts.IndexSymbol)
	}

	var (
		mu      sync.Mutex
		byIndex = make(map[int]Metrics, len(tickers))
		skipped []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for i, ticker := range tickers {
		g.Go(func() error {
			m, err := f.fetchOne(gctx, ticker, start, end, indexReturns)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zap.L().Warn("marketdata: skipping ticker",
					zap.String("ticker", ticker),
					zap.Error(err),
				)
				skipped = append(skipped, ticker)
				return nil
			}
			byIndex[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, eris.Wrap(err, "marketdata: fetch tickers")
	}

	out := make([]Metrics, 0, len(byIndex))
	for i := range tickers {
		if m, ok := byIndex[i]; ok {
			out = append(out, m)
		}
	}

	zap.L().Info("marketdata: fetch complete",
		zap.Int("requested", len(tickers)),
		zap.Int("fetched", len(out)),
		zap.Int("skipped", len(skipped)),
	)
	return out, skipped, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, ticker string, start, end time.Time, indexReturns []float64) (Metrics, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Metrics{}, eris.Wrap(err, "marketdata: rate limit wait")
	}

	symbol := ticker + f.opts.QuerySuffix
	q, err := resilience.DoVal(ctx, f.retry, func(context.Context) (*finance.Equity, error) {
		return f.quote(symbol)
	})
	if err != nil {
		return Metrics{}, eris.Wrap(err, "marketdata: quote")
	}
	if q == nil || q.MarketCap == 0 {
		return Metrics{}, eris.New("marketdata: quote has no market cap")
	}

	returns, err := f.returns(ctx, symbol, start, end)
	if err != nil {
		return Metrics{}, eris.Wrap(err, "marketdata: price history")
	}

	sector, err := resilience.DoVal(ctx, f.retry, func(pctx context.Context) (string, error) {
		return f.sector(pctx, symbol)
	})
	if err != nil {
		return Metrics{}, eris.Wrap(err, "marketdata: sector")
	}
	if sector == "" {
		return Metrics{}, eris.New("marketdata: profile has no sector")
	}

	avg, vol := stat.MeanStdDev(returns, nil)

	var pe float64
	if q.EpsTrailingTwelveMonths > 0 {
		pe = q.RegularMarketPrice / q.EpsTrailingTwelveMonths
	}

	return Metrics{
		StockRecord: model.StockRecord{
			Ticker:        ticker,
			Sector:        sector,
			MarketCap:     float64(q.MarketCap),
			PERatio:       pe,
			AverageReturn: avg,
			Volatility:    vol,
		},
		Beta: Beta(returns, indexReturns),
	}, nil
}

// BetaFor computes a single ticker's index-relative beta from price history.
func (f *Fetcher) BetaFor(ctx context.Context, ticker string) (float64, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -f.opts.LookbackDays)

	indexReturns, err := f.returns(ctx, f.opts.IndexSymbol, start, end)
	if err != nil {
		return 0, eris.Wrapf(err, "marketdata: fetch index %s", f.opts.IndexSymbol)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return 0, eris.Wrap(err, "marketdata: rate limit wait")
	}
	stockReturns, err := f.returns(ctx, ticker+f.opts.QuerySuffix, start, end)
	if err != nil {
		return 0, eris.Wrapf(err, "marketdata: fetch %s", ticker)
	}

	return Beta(stockReturns, indexReturns), nil
}

// returns fetches closing prices and converts them to daily simple returns.
func (f *Fetcher) returns(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	closes, err := resilience.DoVal(ctx, f.retry, func(hctx context.Context) ([]float64, error) {
		return f.history(hctx, symbol, start, end)
	})
	if err != nil {
		return nil, err
	}
	if len(closes) < 2 {
		return nil, eris.Errorf("marketdata: %s has %d price points, need at least 2", symbol, len(closes))
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return nil, eris.Errorf("marketdata: %s has too few usable returns", symbol)
	}
	return returns, nil
}

// Beta regresses a stock's daily returns against the index: cov(r, m)/var(m).
// The series are aligned on their most recent observations.
func Beta(stockReturns, indexReturns []float64) float64 {
	n := len(stockReturns)
	if len(indexReturns) < n {
		n = len(indexReturns)
	}
	if n < 2 {
		return 0
	}

	s := stockReturns[len(stockReturns)-n:]
	m := indexReturns[len(indexReturns)-n:]

	variance := stat.Variance(m, nil)
	if variance == 0 {
		return 0
	}
	return stat.Covariance(s, m, nil) / variance
}
