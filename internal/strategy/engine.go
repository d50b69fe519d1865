package strategy

import (
	"fmt"
	"math"

	"FlowRadar/internal/calculator"
	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
)

// MinHistory is the number of bars a symbol needs before it can be scored.
const MinHistory = 100

const (
	zWindow        = 60
	rsiPeriod      = 14
	atrPeriod      = 14
	sharpeWindow   = 20
	accelSmoothing = 10
	tradingDays    = 252
)

// Thresholds are the pivots the composite sub-signals are measured against.
type Thresholds struct {
	Sharpe float64
	Volume float64
	ATR    float64
	RSI    float64
	Accel  float64

	// Label cut-offs on the composite scores.
	Crowded float64
	Quiet   float64
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Sharpe:  0.5,
		Volume:  0.8,
		ATR:     0.8,
		RSI:     72,
		Accel:   0.6,
		Crowded: 0.7,
		Quiet:   0.65,
	}
}

// Options configures a scoring run.
type Options struct {
	Thresholds Thresholds
	Smoothing  calculator.Smoothing
}

// DefaultOptions scores with the stock thresholds and simple rolling RSI/ATR.
func DefaultOptions() Options {
	return Options{Thresholds: DefaultThresholds(), Smoothing: calculator.SmoothRolling}
}

// Score computes indicators for bars and evaluates them.
func Score(symbol string, bars []model.OHLCV, opts Options) (*model.FlowScore, error) {
	ind, err := ComputeIndicators(bars, opts.Smoothing)
	if err != nil {
		return nil, fmt.Errorf("score %s: %w", symbol, err)
	}
	s := Evaluate(ind, opts.Thresholds)
	s.Symbol = symbol
	return s, nil
}

// ComputeIndicators evaluates the scorer inputs at the latest bar.
func ComputeIndicators(bars []model.OHLCV, smoothing calculator.Smoothing) (*model.FlowIndicators, error) {
	if len(bars) < MinHistory {
		return nil, fmt.Errorf("%w: %d bars, need %d", model.ErrInsufficientHistory, len(bars), MinHistory)
	}
	closes := calculator.Closes(bars)
	returns := calculator.PctChange(closes)
	last := bars[len(bars)-1]

	return &model.FlowIndicators{
		Date:   last.Time,
		VolZ:   calculator.Last(calculator.RollingZScore(calculator.Log1p(calculator.Volumes(bars)), zWindow)),
		ATRZ:   calculator.Last(calculator.RollingZScore(calculator.ATRPercent(bars, atrPeriod, smoothing), zWindow)),
		RSI:    calculator.Last(calculator.RSI(closes, rsiPeriod, smoothing)),
		Sharpe: sharpe(returns),
		AccelZ: calculator.Last(calculator.RollingZScore(calculator.Acceleration(closes, accelSmoothing), zWindow)),
	}, nil
}

// sharpe annualizes the trailing 20-day mean/std of returns. A flat window
// scores 0 rather than undefined.
func sharpe(returns []float64) null.Float {
	mu := calculator.Last(calculator.RollingMean(returns, sharpeWindow))
	sd := calculator.Last(calculator.RollingStd(returns, sharpeWindow, 1))
	if !mu.Valid || !sd.Valid {
		return null.Float{}
	}
	if sd.Float64 == 0 {
		return null.FloatFrom(0)
	}
	return null.FloatFrom(mu.Float64 / sd.Float64 * math.Sqrt(tradingDays))
}

// Evaluate combines indicators into the two composite scores and a label.
func Evaluate(ind *model.FlowIndicators, th Thresholds) *model.FlowScore {
	quiet := meanDefined(quietTerms(ind, th))
	crowded := meanDefined(crowdedTerms(ind, th))
	return &model.FlowScore{
		Date:         ind.Date,
		QuietScore:   quiet,
		CrowdedScore: crowded,
		Label:        Classify(quiet, crowded, th),
		RSI:          ind.RSI,
		VolZ:         ind.VolZ,
		ATRZ:         ind.ATRZ,
		Sharpe:       ind.Sharpe,
		AccelZ:       ind.AccelZ,
	}
}

// Classify maps composite scores to a label. Crowding wins over quiet
// accumulation; an undefined score never triggers.
func Classify(quiet, crowded null.Float, th Thresholds) model.Label {
	switch {
	case crowded.Valid && crowded.Float64 > th.Crowded:
		return model.LabelLateCrowded
	case quiet.Valid && quiet.Float64 > th.Quiet:
		return model.LabelQuietAccumulation
	default:
		return model.LabelNeutral
	}
}
