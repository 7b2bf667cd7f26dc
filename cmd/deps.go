package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/finvista/advisor-cli/internal/classify"
	"github.com/finvista/advisor-cli/internal/marketdata"
	"github.com/finvista/advisor-cli/internal/resilience"
	"github.com/finvista/advisor-cli/internal/store"
	"github.com/finvista/advisor-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "advisor.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		poolCfg := &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClassifier builds the hosted zero-shot classifier behind a circuit
// breaker. With offline set it returns a uniform stub that needs no API key.
func initClassifier(offline bool) (classify.Classifier, error) {
	if offline {
		return classify.Uniform(), nil
	}
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (ADVISOR_ANTHROPIC_KEY)")
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)
	zeroShot := classify.NewZeroShot(client, classify.ZeroShotOptions{
		Model:       cfg.Anthropic.Model,
		Timeout:     time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
		Temperature: cfg.Anthropic.Temperature,
	})

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig())
	return classify.WithBreaker(zeroShot, breaker), nil
}

func initMarketData() *marketdata.Fetcher {
	return marketdata.New(marketdata.Options{
		Concurrency:   cfg.MarketData.Concurrency,
		LookbackDays:  cfg.MarketData.LookbackDays,
		IndexSymbol:   cfg.MarketData.IndexSymbol,
		RatePerSecond: cfg.MarketData.RatePerSecond,
		QuerySuffix:   cfg.MarketData.QuerySuffix,
	})
}
