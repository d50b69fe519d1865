package calculator

import (
	"fmt"
	"math"
)

// Smoothing selects how an average over a lookback period is formed.
type Smoothing string

const (
	// SmoothRolling is the simple mean of the last period points.
	SmoothRolling Smoothing = "rolling"
	// SmoothWilder is an exponential mean with alpha = 1/period, defined once
	// period observations have been seen.
	SmoothWilder Smoothing = "wilder"
)

// ParseSmoothing validates a smoothing name from configuration.
func ParseSmoothing(s string) (Smoothing, error) {
	switch Smoothing(s) {
	case SmoothRolling, SmoothWilder:
		return Smoothing(s), nil
	}
	return "", fmt.Errorf("unknown smoothing %q", s)
}

// Smooth averages x over period using the chosen strategy.
func Smooth(x []float64, period int, s Smoothing) []float64 {
	if s == SmoothWilder {
		return WilderMean(x, period)
	}
	return RollingMean(x, period)
}

// RollingMean computes the trailing simple mean. A point is undefined while
// the window is incomplete or contains an undefined value.
func RollingMean(x []float64, window int) []float64 {
	out := undefined(len(x))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		out[i] = mean(w)
	}
	return out
}

// RollingStd computes the trailing standard deviation with the given delta
// degrees of freedom (0 population, 1 sample). A window of identical values
// yields exactly 0.
func RollingStd(x []float64, window, ddof int) []float64 {
	out := undefined(len(x))
	if window <= 0 || window-ddof <= 0 {
		return out
	}
	for i := window - 1; i < len(x); i++ {
		w := x[i-window+1 : i+1]
		if hasNaN(w) {
			continue
		}
		if constant(w) {
			out[i] = 0
			continue
		}
		m := mean(w)
		ss := 0.0
		for _, v := range w {
			ss += (v - m) * (v - m)
		}
		out[i] = math.Sqrt(ss / float64(window-ddof))
	}
	return out
}

// WilderMean is the exponential mean seeded at the first defined point.
// Undefined points after the seed carry the previous mean forward.
func WilderMean(x []float64, period int) []float64 {
	out := undefined(len(x))
	if period <= 0 {
		return out
	}
	alpha := 1 / float64(period)
	var avg float64
	seen := 0
	for i, v := range x {
		if !isNaN(v) {
			if seen == 0 {
				avg = v
			} else {
				avg = (1-alpha)*avg + alpha*v
			}
			seen++
		}
		if seen >= period {
			out[i] = avg
		}
	}
	return out
}

func mean(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return sum / float64(len(w))
}

func hasNaN(w []float64) bool {
	for _, v := range w {
		if isNaN(v) {
			return true
		}
	}
	return false
}

func constant(w []float64) bool {
	for _, v := range w[1:] {
		if v != w[0] {
			return false
		}
	}
	return true
}
