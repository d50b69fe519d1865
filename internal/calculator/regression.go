package calculator

import (
	"math"
	"time"

	"FlowRadar/internal/model"
)

// MinRegressionObservations is the minimum number of aligned pairs needed to
// fit an exposure.
const MinRegressionObservations = 60

// DatedSeries pairs values with the bar times they belong to.
type DatedSeries struct {
	Times  []time.Time
	Values []float64
}

// Dated attaches bar times to a derived series.
func Dated(bars []model.OHLCV, values []float64) DatedSeries {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}
	return DatedSeries{Times: times, Values: values}
}

// Exposure is a regression fit of one return series on another.
type Exposure struct {
	Beta float64
	R2   float64
}

// OLSBetaR2 aligns y and x on common trading days, drops pairs with an
// undefined side and fits y = a + b*x. Beta and R2 are undefined (NaN) with
// fewer than MinRegressionObservations pairs or a constant regressor; R2 alone
// is undefined when y has zero total variance.
func OLSBetaR2(y, x DatedSeries) Exposure {
	undef := Exposure{Beta: nan(), R2: nan()}

	xs := make(map[string]float64, len(x.Times))
	for i, t := range x.Times {
		if i < len(x.Values) && !isNaN(x.Values[i]) {
			xs[model.DayKey(t)] = x.Values[i]
		}
	}

	var ys, xv []float64
	for i, t := range y.Times {
		if i >= len(y.Values) || isNaN(y.Values[i]) {
			continue
		}
		v, ok := xs[model.DayKey(t)]
		if !ok {
			continue
		}
		ys = append(ys, y.Values[i])
		xv = append(xv, v)
	}
	if len(ys) < MinRegressionObservations {
		return undef
	}

	mx, my := mean(xv), mean(ys)
	var sxx, sxy float64
	for i := range ys {
		dx := xv[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return undef
	}
	beta := sxy / sxx
	alpha := my - beta*mx

	var ssRes, ssTot float64
	for i := range ys {
		res := ys[i] - (alpha + beta*xv[i])
		ssRes += res * res
		ssTot += (ys[i] - my) * (ys[i] - my)
	}
	if ssTot == 0 {
		return Exposure{Beta: beta, R2: nan()}
	}
	r2 := 1 - ssRes/ssTot
	return Exposure{Beta: beta, R2: math.Min(1, math.Max(0, r2))}
}
