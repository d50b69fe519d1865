package calculator

import "math"

// RSI computes the relative strength index of closes. Gains and losses are
// averaged with the chosen smoothing; the index is undefined while the average
// loss is zero. The first defined point is at index period.
func RSI(closes []float64, period int, s Smoothing) []float64 {
	d := Diff(closes)
	gains := make([]float64, len(d))
	losses := make([]float64, len(d))
	for i, v := range d {
		if isNaN(v) {
			gains[i], losses[i] = nan(), nan()
			continue
		}
		gains[i] = math.Max(v, 0)
		losses[i] = math.Max(-v, 0)
	}

	avgGain := Smooth(gains, period, s)
	avgLoss := Smooth(losses, period, s)

	out := undefined(len(closes))
	for i := range out {
		if isNaN(avgGain[i]) || isNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
