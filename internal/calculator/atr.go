package calculator

import (
	"math"

	"FlowRadar/internal/model"
)

// TrueRange returns max(H-L, |H-prevC|, |L-prevC|) per bar. The first bar has
// no previous close and uses H-L.
func TrueRange(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		tr := b.High - b.Low
		if i > 0 {
			prev := bars[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prev), math.Abs(b.Low-prev)))
		}
		out[i] = tr
	}
	return out
}

// ATRPercent is the average true range over period divided by the close.
func ATRPercent(bars []model.OHLCV, period int, s Smoothing) []float64 {
	atr := Smooth(TrueRange(bars), period, s)
	out := undefined(len(bars))
	for i, b := range bars {
		if isNaN(atr[i]) || b.Close <= 0 {
			continue
		}
		out[i] = atr[i] / b.Close
	}
	return out
}
