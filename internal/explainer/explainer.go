// Package explainer measures one symbol's market and sector exposure plus
// crowding and jump diagnostics, and renders them as a short narrative.
package explainer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FlowRadar/internal/calculator"
	"FlowRadar/internal/collector"
	"FlowRadar/internal/metrics"
	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
)

const (
	zWindow        = 60
	rsiPeriod      = 14
	atrPeriod      = 14
	accelSmoothing = 10
	rateWindow     = 60
	tableRows      = 60
)

// Options configures an Explainer.
type Options struct {
	Benchmark string
	Smoothing calculator.Smoothing
	Rules     Rules
}

// DefaultOptions benchmarks against SPY with Wilder-smoothed RSI/ATR.
func DefaultOptions() Options {
	return Options{
		Benchmark: "SPY",
		Smoothing: calculator.SmoothWilder,
		Rules:     DefaultRules(),
	}
}

// Explainer computes explanations from a price provider.
type Explainer struct {
	provider collector.Provider
	opts     Options
	metrics  *metrics.Recorder
}

// New creates an Explainer. rec may be nil.
func New(p collector.Provider, opts Options, rec *metrics.Recorder) *Explainer {
	if opts.Benchmark == "" {
		opts.Benchmark = "SPY"
	}
	return &Explainer{provider: p, opts: opts, metrics: rec}
}

// Benchmark returns the market proxy symbol.
func (e *Explainer) Benchmark() string { return e.opts.Benchmark }

// Explain builds the metric snapshot, narrative and trailing table for symbol
// over [start, end). sectorProxy may be empty. Any fetch failure is returned
// and no partial result is produced.
func (e *Explainer) Explain(ctx context.Context, symbol, sectorProxy string, start, end time.Time) (*model.Explanation, error) {
	began := time.Now()
	defer func() { e.metrics.ObserveExplain(time.Since(began)) }()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	sectorProxy = strings.ToUpper(strings.TrimSpace(sectorProxy))

	px, err := e.fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	mkt, err := e.fetch(ctx, e.opts.Benchmark, start, end)
	if err != nil {
		return nil, err
	}
	var sec []model.OHLCV
	if sectorProxy != "" {
		if sec, err = e.fetch(ctx, sectorProxy, start, end); err != nil {
			return nil, err
		}
	}

	m, table := e.compute(symbol, sectorProxy, px, mkt, sec)
	narrative := Narrate(m, sectorProxy, e.opts.Benchmark, e.opts.Rules)

	log.Debug().
		Str("symbol", symbol).
		Str("sector", sectorProxy).
		Int("bars", len(px)).
		Msg("explanation built")
	return &model.Explanation{Metrics: m, Narrative: narrative, Table: table}, nil
}

func (e *Explainer) fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	bars, err := e.provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("explain: fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("explain: fetch %s: %w", symbol, model.ErrDataUnavailable)
	}
	return bars, nil
}

func (e *Explainer) compute(symbol, sectorProxy string, px, mkt, sec []model.OHLCV) (model.ExplainMetrics, []model.IndicatorRow) {
	returns := calculator.Returns(px)
	y := calculator.Dated(px, returns)

	m := model.ExplainMetrics{
		Symbol:      symbol,
		Date:        px[len(px)-1].Time,
		MarketProxy: e.opts.Benchmark,
		SectorProxy: sectorProxy,
	}
	m.BetaMarket, m.R2Market = exposure(y, mkt)
	if sec != nil {
		m.BetaSector, m.R2Sector = exposure(y, sec)
	}

	closes := calculator.Closes(px)
	volZ := calculator.RollingZScore(calculator.Log1p(calculator.Volumes(px)), zWindow)
	atrZ := calculator.RollingZScore(calculator.ATRPercent(px, atrPeriod, e.opts.Smoothing), zWindow)
	accelZ := calculator.RollingZScore(calculator.Acceleration(closes, accelSmoothing), zWindow)
	rsi := calculator.RSI(closes, rsiPeriod, e.opts.Smoothing)

	m.VolZ = calculator.Last(volZ)
	m.ATRZ = calculator.Last(atrZ)
	m.AccelZ = calculator.Last(accelZ)
	m.RSI = calculator.Last(rsi)
	m.GapJumpRate = calculator.Last(calculator.GapRate(px, rateWindow))
	m.BigMoveRate = calculator.Last(calculator.BigMoveRate(returns, rateWindow))

	from := max(len(px)-tableRows, 0)
	table := make([]model.IndicatorRow, 0, len(px)-from)
	for i := from; i < len(px); i++ {
		table = append(table, model.IndicatorRow{
			Date:   px[i].Time,
			Close:  px[i].Close,
			VolZ:   calculator.At(volZ, i),
			ATRZ:   calculator.At(atrZ, i),
			AccelZ: calculator.At(accelZ, i),
			RSI:    calculator.At(rsi, i),
		})
	}
	return m, table
}

// exposure regresses y on the returns of bars.
func exposure(y calculator.DatedSeries, bars []model.OHLCV) (beta, r2 null.Float) {
	fit := calculator.OLSBetaR2(y, calculator.Dated(bars, calculator.Returns(bars)))
	return calculator.Value(fit.Beta), calculator.Value(fit.R2)
}
