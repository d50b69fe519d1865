package calculator

import (
	"math"

	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
)

// Derived series are aligned with their source index and hold NaN where a
// value is undefined. NaN does not leave this package: Last and At convert it
// to an invalid null.Float.

func nan() float64 { return math.NaN() }

func isNaN(v float64) bool { return math.IsNaN(v) }

// undefined returns a series of n undefined points.
func undefined(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Closes extracts close prices from bars.
func Closes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts traded volume from bars.
func Volumes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Log1p applies log(1+x) pointwise.
func Log1p(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if isNaN(v) || v <= -1 {
			out[i] = nan()
			continue
		}
		out[i] = math.Log1p(v)
	}
	return out
}

// PctChange returns x[i]/x[i-1] - 1. The first point is undefined.
func PctChange(x []float64) []float64 {
	out := undefined(len(x))
	for i := 1; i < len(x); i++ {
		prev, cur := x[i-1], x[i]
		if isNaN(prev) || isNaN(cur) || prev == 0 {
			continue
		}
		out[i] = cur/prev - 1
	}
	return out
}

// Diff returns the one-step difference. The first point is undefined.
func Diff(x []float64) []float64 {
	out := undefined(len(x))
	for i := 1; i < len(x); i++ {
		if isNaN(x[i]) || isNaN(x[i-1]) {
			continue
		}
		out[i] = x[i] - x[i-1]
	}
	return out
}

// Returns computes daily simple returns of the close.
func Returns(bars []model.OHLCV) []float64 {
	return PctChange(Closes(bars))
}

// Value converts a calculator result to a nullable value.
func Value(v float64) null.Float {
	if isNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

// At returns x[i] as a nullable value.
func At(x []float64, i int) null.Float {
	if i < 0 || i >= len(x) {
		return null.Float{}
	}
	return Value(x[i])
}

// Last returns the latest point of x.
func Last(x []float64) null.Float {
	return At(x, len(x)-1)
}
