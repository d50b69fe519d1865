package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"FlowRadar/internal/model"
)

// MockProvider serves fixed bars per symbol for development and testing.
// Symbols listed in Errors fail with that error; unknown symbols fail with ErrNoData.
type MockProvider struct {
	Bars   map[string][]model.OHLCV
	Errors map[string]error
	Delay  map[string]time.Duration
}

func (m *MockProvider) Name() string { return "mock" }

// FetchDaily returns the configured bars clipped to [start, end).
func (m *MockProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if d := m.Delay[symbol]; d > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("mock %s: %w: %w", symbol, model.ErrDataUnavailable, ctx.Err())
		case <-time.After(d):
		}
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	src, ok := m.Bars[symbol]
	if !ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	bars := normalizeBars(append([]model.OHLCV(nil), src...), start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// BarsFromCloses builds one bar per weekday starting at start. Each bar opens
// at the previous close, spans spread above and below the larger of open and
// close, and trades the given volume.
func BarsFromCloses(start time.Time, closes []float64, spread, volume float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	day := start
	for i, c := range closes {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = model.OHLCV{
			Time:   day,
			Open:   open,
			High:   math.Max(open, c) * (1 + spread),
			Low:    math.Min(open, c) * (1 - spread),
			Close:  c,
			Volume: volume,
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

// ClosesFromReturns compounds daily returns from a base price. The first
// close is the base.
func ClosesFromReturns(base float64, returns []float64) []float64 {
	closes := make([]float64, len(returns)+1)
	closes[0] = base
	for i, r := range returns {
		closes[i+1] = closes[i] * (1 + r)
	}
	return closes
}
