package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"FlowRadar/internal/model"
)

// ErrNoData means the provider answered but had no usable bars for the
// request. It wraps model.ErrDataUnavailable and does not count against the
// provider's health.
var ErrNoData = fmt.Errorf("%w: no bars in range", model.ErrDataUnavailable)

// Provider fetches daily OHLCV history. Errors wrap model.ErrDataUnavailable.
type Provider interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

// normalizeBars orders bars by time, keeps the last bar per trading day,
// drops bars violating the price invariants and clips to [start, end).
func normalizeBars(bars []model.OHLCV, start, end time.Time) []model.OHLCV {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	from, to := model.DayKey(start), model.DayKey(end)
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !b.Valid() {
			continue
		}
		key := model.DayKey(b.Time)
		if !start.IsZero() && key < from {
			continue
		}
		if !end.IsZero() && key >= to {
			continue
		}
		if n := len(out); n > 0 && model.DayKey(out[n-1].Time) == key {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
