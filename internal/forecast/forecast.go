// Package forecast projects a stock's closing price a few days ahead. Two
// candidate models are evaluated on a short holdout and the one with the
// lower test error produces the published forecast.
package forecast

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultHorizon = 7
	// The last holdoutDays observations are withheld for model selection.
	holdoutDays     = 2
	minObservations = 10
)

// Options configures a projection.
type Options struct {
	// Horizon is the number of days to forecast. Default: 7.
	Horizon int
}

// Outlook is the published projection for one price series.
type Outlook struct {
	// Model names the candidate that won selection.
	Model string `json:"model"`
	// TestMSE is the winner's mean squared error on the holdout.
	TestMSE float64 `json:"test_mse"`
	// Prices are the projected closes, one per forecast day.
	Prices []float64 `json:"prices"`
	// PercentChange is the move from the first to the last projected close.
	PercentChange float64 `json:"percent_change"`
}

// model is a candidate price forecaster.
type model interface {
	Name() string
	Fit(closes []float64) error
	Predict(steps int) []float64
}

// Project fits the candidate models on all but the last holdoutDays closes,
// scores each on the holdout, refits the winner on the full series, and
// projects Horizon days ahead.
func Project(closes []float64, opts Options) (*Outlook, error) {
	if opts.Horizon <= 0 {
		opts.Horizon = defaultHorizon
	}
	if len(closes) < minObservations {
		return nil, eris.Errorf("forecast: %d observations, need at least %d", len(closes), minObservations)
	}

	train := closes[:len(closes)-holdoutDays]
	test := closes[len(closes)-holdoutDays:]

	var (
		winner  model
		bestMSE = math.Inf(1)
	)
	for _, m := range []model{&trendModel{}, &arModel{}} {
		if err := m.Fit(train); err != nil {
			zap.L().Warn("forecast: candidate failed to fit",
				zap.String("model", m.Name()),
				zap.Error(err),
			)
			continue
		}
		mse := meanSquaredError(test, m.Predict(len(test)))
		zap.L().Debug("forecast: candidate scored",
			zap.String("model", m.Name()),
			zap.Float64("test_mse", mse),
		)
		if mse < bestMSE {
			bestMSE = mse
			winner = m
		}
	}
	if winner == nil {
		return nil, eris.New("forecast: no candidate model could be fit")
	}

	if err := winner.Fit(closes); err != nil {
		return nil, eris.Wrapf(err, "forecast: refit %s", winner.Name())
	}
	prices := winner.Predict(opts.Horizon)

	out := &Outlook{
		Model:   winner.Name(),
		TestMSE: bestMSE,
		Prices:  prices,
	}
	if first := prices[0]; first != 0 {
		out.PercentChange = (prices[len(prices)-1] - first) / first * 100
	}
	return out, nil
}

func meanSquaredError(actual, predicted []float64) float64 {
	var sum float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// trendModel fits a least-squares line over the time index.
type trendModel struct {
	alpha, beta float64
	n           int
}

func (m *trendModel) Name() string { return "trend" }

func (m *trendModel) Fit(closes []float64) error {
	ts := make([]float64, len(closes))
	for i := range ts {
		ts[i] = float64(i)
	}
	m.alpha, m.beta = stat.LinearRegression(ts, closes, nil, false)
	m.n = len(closes)
	if math.IsNaN(m.alpha) || math.IsNaN(m.beta) {
		return eris.New("forecast: degenerate trend fit")
	}
	return nil
}

func (m *trendModel) Predict(steps int) []float64 {
	out := make([]float64, steps)
	for i := range out {
		out[i] = m.alpha + m.beta*float64(m.n+i)
	}
	return out
}

// arModel fits a first-order autoregression: each close regressed on the
// previous day's close, iterated forward from the last observation.
type arModel struct {
	c, phi float64
	last   float64
}

func (m *arModel) Name() string { return "autoregressive" }

func (m *arModel) Fit(closes []float64) error {
	m.c, m.phi = stat.LinearRegression(closes[:len(closes)-1], closes[1:], nil, false)
	m.last = closes[len(closes)-1]
	if math.IsNaN(m.c) || math.IsNaN(m.phi) {
		return eris.New("forecast: degenerate autoregressive fit")
	}
	return nil
}

func (m *arModel) Predict(steps int) []float64 {
	out := make([]float64, steps)
	x := m.last
	for i := range out {
		x = m.c + m.phi*x
		out[i] = x
	}
	return out
}
