package calculator

import (
	"math"

	"FlowRadar/internal/model"
)

// GapRate is the trailing fraction of days whose open gapped away from the
// previous close by more than twice the trailing std of daily returns.
func GapRate(bars []model.OHLCV, window int) []float64 {
	gaps := undefined(len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev <= 0 {
			continue
		}
		gaps[i] = math.Abs(bars[i].Open/prev - 1)
	}
	return exceedRate(gaps, RollingStd(Returns(bars), window, 0), window)
}

// BigMoveRate is the trailing fraction of days whose absolute return exceeds
// twice the trailing std of returns.
func BigMoveRate(returns []float64, window int) []float64 {
	abs := make([]float64, len(returns))
	for i, r := range returns {
		abs[i] = math.Abs(r)
	}
	return exceedRate(abs, RollingStd(returns, window, 0), window)
}

// exceedRate flags points above 2*sd and averages the flags over window.
// A point with an undefined value or threshold counts as not exceeding.
func exceedRate(values, sd []float64, window int) []float64 {
	flags := make([]float64, len(values))
	for i, v := range values {
		if !isNaN(v) && !isNaN(sd[i]) && v > 2*sd[i] {
			flags[i] = 1
		}
	}
	return RollingMean(flags, window)
}
