package calculator

import (
	"math"
	"testing"
	"time"

	"FlowRadar/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)

func flatBars(n int, price float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{
			Time:   day0.AddDate(0, 0, i),
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1e6,
		}
	}
	return bars
}

func TestRollingMean_IncompleteWindowIsUndefined(t *testing.T) {
	out := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)
}

func TestRollingMean_NaNInWindow(t *testing.T) {
	out := RollingMean([]float64{1, math.NaN(), 3, 4, 5}, 2)
	assert.True(t, math.IsNaN(out[1]))
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 3.5, out[3], 1e-12)
}

func TestRollingStd_PopulationAndSample(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	pop := RollingStd(x, 8, 0)
	assert.InDelta(t, 2.0, pop[7], 1e-12)
	sample := RollingStd(x, 8, 1)
	assert.InDelta(t, math.Sqrt(32.0/7.0), sample[7], 1e-12)
}

func TestRollingStd_ConstantWindowIsExactlyZero(t *testing.T) {
	x := []float64{0.1, 0.1, 0.1, 0.1, 0.1}
	sd := RollingStd(x, 5, 0)
	assert.Equal(t, 0.0, sd[4])
}

func TestRollingZScore(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	z := RollingZScore(x, 5)
	for i := 0; i < 4; i++ {
		assert.True(t, math.IsNaN(z[i]), "index %d", i)
	}
	// mean 3, population std sqrt(2)
	assert.InDelta(t, 2/math.Sqrt2, z[4], 1e-12)
}

func TestRollingZScore_ConstantSeriesIsUndefined(t *testing.T) {
	x := make([]float64, 120)
	for i := range x {
		x[i] = 42.5
	}
	for i, v := range RollingZScore(x, 60) {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestRSI_ConstantCloseIsUndefined(t *testing.T) {
	closes := Closes(flatBars(50, 100))
	for _, s := range []Smoothing{SmoothRolling, SmoothWilder} {
		for i, v := range RSI(closes, 14, s) {
			assert.True(t, math.IsNaN(v), "%s index %d", s, i)
		}
	}
}

func TestRSI_FirstDefinedIndex(t *testing.T) {
	closes := []float64{10, 11, 10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17}
	for _, s := range []Smoothing{SmoothRolling, SmoothWilder} {
		rsi := RSI(closes, 14, s)
		assert.True(t, math.IsNaN(rsi[13]), s)
		assert.False(t, math.IsNaN(rsi[14]), s)
		for _, v := range rsi[14:] {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	}
}

func TestRSI_RollingKnownValue(t *testing.T) {
	// Alternating +2/-1 moves: over any 14 changes, 7 gains of 2 and 7 losses of 1.
	closes := []float64{100}
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]+2)
		} else {
			closes = append(closes, closes[len(closes)-1]-1)
		}
	}
	rsi := RSI(closes, 14, SmoothRolling)
	// RS = 2, RSI = 100 - 100/3
	assert.InDelta(t, 100-100.0/3, rsi[14], 1e-9)
	assert.InDelta(t, 100-100.0/3, rsi[20], 1e-9)
}

func TestRSI_SmoothingStrategiesDiverge(t *testing.T) {
	closes := []float64{100, 101, 103, 102, 105, 104, 103, 107, 108, 106, 109, 111, 110, 108, 112, 115, 113, 111, 116, 118, 117, 119}
	rolling := RSI(closes, 14, SmoothRolling)
	wilder := RSI(closes, 14, SmoothWilder)
	last := len(closes) - 1
	require.False(t, math.IsNaN(rolling[last]))
	require.False(t, math.IsNaN(wilder[last]))
	assert.NotEqual(t, rolling[last], wilder[last])
}

func TestWilderMean(t *testing.T) {
	x := []float64{math.NaN(), 4, 8, 2}
	out := WilderMean(x, 2)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	// seeded at 4, then 0.5*4 + 0.5*8 = 6, then 0.5*6 + 0.5*2 = 4
	assert.InDelta(t, 6.0, out[2], 1e-12)
	assert.InDelta(t, 4.0, out[3], 1e-12)
}

func TestTrueRange_UsesPreviousClose(t *testing.T) {
	bars := []model.OHLCV{
		{Open: 10, High: 11, Low: 9, Close: 10},
		{Open: 13, High: 14, Low: 12.5, Close: 13},
		{Open: 8, High: 9, Low: 7, Close: 8},
	}
	tr := TrueRange(bars)
	assert.InDelta(t, 2.0, tr[0], 1e-12)
	assert.InDelta(t, 4.0, tr[1], 1e-12) // |14 - 10|
	assert.InDelta(t, 6.0, tr[2], 1e-12) // |7 - 13|
}

func TestATRPercent_FlatBars(t *testing.T) {
	bars := flatBars(30, 50)
	for _, s := range []Smoothing{SmoothRolling, SmoothWilder} {
		atr := ATRPercent(bars, 14, s)
		assert.True(t, math.IsNaN(atr[12]), s)
		assert.InDelta(t, 0.02, atr[13], 1e-9, s)
		assert.InDelta(t, 0.02, atr[29], 1e-9, s)
	}
}

func TestAcceleration(t *testing.T) {
	// Constant growth rate: pct change is flat, so acceleration is zero.
	closes := []float64{100}
	for i := 0; i < 30; i++ {
		closes = append(closes, closes[len(closes)-1]*1.01)
	}
	acc := Acceleration(closes, 10)
	assert.True(t, math.IsNaN(acc[10]))
	assert.False(t, math.IsNaN(acc[11]))
	assert.InDelta(t, 0.0, acc[30], 1e-12)
}

func TestBigMoveRate(t *testing.T) {
	returns := []float64{math.NaN()}
	for i := 0; i < 79; i++ {
		returns = append(returns, 0.001*float64(i%3-1))
	}
	returns[79] = 0.2
	rate := BigMoveRate(returns, 60)
	assert.True(t, math.IsNaN(rate[58]))
	assert.InDelta(t, 0.0, rate[78], 1e-12)
	assert.InDelta(t, 1.0/60, rate[79], 1e-12)
}

func TestGapRate_FlatBarsNeverGap(t *testing.T) {
	rate := GapRate(flatBars(130, 20), 60)
	assert.InDelta(t, 0.0, rate[129], 1e-12)
}

func TestOLSBetaR2_TooFewObservations(t *testing.T) {
	bars := flatBars(60, 10)
	values := make([]float64, 60)
	for i := range values {
		values[i] = float64(i%7) * 0.01
	}
	values[0] = math.NaN()
	s := Dated(bars, values)
	exp := OLSBetaR2(s, s)
	assert.True(t, math.IsNaN(exp.Beta))
	assert.True(t, math.IsNaN(exp.R2))
}

func TestOLSBetaR2_IdenticalSeries(t *testing.T) {
	bars := flatBars(100, 10)
	values := make([]float64, 100)
	for i := range values {
		values[i] = math.Sin(float64(i)) * 0.02
	}
	s := Dated(bars, values)
	exp := OLSBetaR2(s, s)
	assert.InDelta(t, 1.0, exp.Beta, 1e-9)
	assert.InDelta(t, 1.0, exp.R2, 1e-9)
}

func TestOLSBetaR2_AlignsOnCommonDates(t *testing.T) {
	bars := flatBars(120, 10)
	x := make([]float64, 120)
	y := make([]float64, 120)
	for i := range x {
		x[i] = math.Cos(float64(i)*0.7) * 0.01
		y[i] = 2*x[i] + 0.001
	}
	// y only covers the last 70 days of x.
	ys := Dated(bars[50:], y[50:])
	xs := Dated(bars, x)
	exp := OLSBetaR2(ys, xs)
	assert.InDelta(t, 2.0, exp.Beta, 1e-9)
	assert.InDelta(t, 1.0, exp.R2, 1e-9)

	short := Dated(bars[70:], y[70:])
	assert.True(t, math.IsNaN(OLSBetaR2(short, xs).Beta))
}

func TestOLSBetaR2_ConstantResponse(t *testing.T) {
	bars := flatBars(80, 10)
	x := make([]float64, 80)
	y := make([]float64, 80)
	for i := range x {
		x[i] = float64(i%5) * 0.01
	}
	exp := OLSBetaR2(Dated(bars, y), Dated(bars, x))
	assert.InDelta(t, 0.0, exp.Beta, 1e-12)
	assert.True(t, math.IsNaN(exp.R2))
}

func TestLastAndAt(t *testing.T) {
	x := []float64{1, math.NaN(), math.Inf(1), 3}
	assert.True(t, At(x, 0).Valid)
	assert.False(t, At(x, 1).Valid)
	assert.False(t, At(x, 2).Valid)
	assert.False(t, At(x, 10).Valid)
	assert.Equal(t, 3.0, Last(x).Float64)
	assert.False(t, Last(nil).Valid)
}

func TestParseSmoothing(t *testing.T) {
	s, err := ParseSmoothing("wilder")
	require.NoError(t, err)
	assert.Equal(t, SmoothWilder, s)
	_, err = ParseSmoothing("ema")
	assert.Error(t, err)
}
