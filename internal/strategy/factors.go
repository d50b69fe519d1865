package strategy

import (
	"FlowRadar/internal/model"

	"github.com/guregu/null/v6"
)

// Scale of each linear map before clipping.
const (
	quietZScale   = 2.0
	crowdedZScale = 1.5
	rsiScale      = 20.0
)

// quietTerms rewards positive short-term Sharpe with volume, volatility, RSI
// and acceleration all below their pivots.
func quietTerms(ind *model.FlowIndicators, th Thresholds) []null.Float {
	return []null.Float{
		term(ind.Sharpe, func(v float64) float64 { return (v - th.Sharpe) / quietZScale }),
		term(ind.VolZ, func(v float64) float64 { return (th.Volume - v) / quietZScale }),
		term(ind.ATRZ, func(v float64) float64 { return (th.ATR - v) / quietZScale }),
		term(ind.RSI, func(v float64) float64 { return (th.RSI - v) / rsiScale }),
		term(ind.AccelZ, func(v float64) float64 { return (th.Accel - v) / quietZScale }),
	}
}

// crowdedTerms rewards volume, volatility, RSI and acceleration above their pivots.
func crowdedTerms(ind *model.FlowIndicators, th Thresholds) []null.Float {
	return []null.Float{
		term(ind.VolZ, func(v float64) float64 { return (v - th.Volume) / crowdedZScale }),
		term(ind.ATRZ, func(v float64) float64 { return (v - th.ATR) / crowdedZScale }),
		term(ind.RSI, func(v float64) float64 { return (v - th.RSI) / rsiScale }),
		term(ind.AccelZ, func(v float64) float64 { return (v - th.Accel) / crowdedZScale }),
	}
}

func term(v null.Float, f func(float64) float64) null.Float {
	if !v.Valid {
		return null.Float{}
	}
	return null.FloatFrom(clip01(f(v.Float64)))
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// meanDefined averages the valid terms; all-undefined gives an undefined mean.
func meanDefined(terms []null.Float) null.Float {
	sum, n := 0.0, 0
	for _, t := range terms {
		if !t.Valid {
			continue
		}
		sum += t.Float64
		n++
	}
	if n == 0 {
		return null.Float{}
	}
	return null.FloatFrom(sum / float64(n))
}
