package scanner

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"FlowRadar/internal/collector"
	"FlowRadar/internal/metrics"
	"FlowRadar/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

func wave(n int, amp float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + amp*math.Sin(float64(i)/5) + float64(i)*0.05
	}
	return closes
}

func provider() *collector.MockProvider {
	return &collector.MockProvider{
		Bars: map[string][]model.OHLCV{
			"SHORT": collector.BarsFromCloses(t0, wave(60, 2), 0.01, 1e6),
			"LONG":  collector.BarsFromCloses(t0, wave(150, 2), 0.01, 1e6),
			"ALT":   collector.BarsFromCloses(t0, wave(200, 5), 0.02, 2e6),
		},
		Errors: map[string]error{
			"DOWN": fmt.Errorf("down: %w", model.ErrDataUnavailable),
		},
	}
}

func TestScan_SkipsShortHistory(t *testing.T) {
	s := New(provider(), DefaultOptions(), nil)
	report := s.Scan(context.Background(), []string{"SHORT", "LONG"}, t0, t0.AddDate(2, 0, 0))

	require.Len(t, report.Results, 1)
	assert.Equal(t, "LONG", report.Results[0].Symbol)

	_, ok := report.Lookup("SHORT")
	assert.False(t, ok)
	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, model.ReasonInsufficientHistory, skipped[0].Reason)
	assert.Equal(t, 60, skipped[0].Bars)
}

func TestScan_OutcomesAndOrder(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := DefaultOptions()
	opts.Workers = 3
	s := New(provider(), opts, metrics.New(reg))

	symbols := []string{"ALT", "DOWN", "MISSING", "SHORT", "LONG"}
	report := s.Scan(context.Background(), symbols, t0, t0.AddDate(2, 0, 0))

	require.Len(t, report.Outcomes, len(symbols))
	for i, o := range report.Outcomes {
		assert.Equal(t, symbols[i], o.Symbol)
	}
	assert.Equal(t, model.StatusScored, report.Outcomes[0].Status)
	assert.Equal(t, model.ReasonDataUnavailable, report.Outcomes[1].Reason)
	assert.Equal(t, model.ReasonDataUnavailable, report.Outcomes[2].Reason)
	assert.Equal(t, model.ReasonInsufficientHistory, report.Outcomes[3].Reason)
	assert.Equal(t, model.StatusScored, report.Outcomes[4].Status)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "ALT", report.Results[0].Symbol)
	assert.Equal(t, "LONG", report.Results[1].Symbol)
	assert.Len(t, report.Skipped(), 3)
}

func TestScan_ParallelMatchesSequential(t *testing.T) {
	symbols := []string{"ALT", "DOWN", "LONG", "SHORT"}
	end := t0.AddDate(2, 0, 0)

	seqOpts := DefaultOptions()
	seqOpts.Workers = 1
	seq := New(provider(), seqOpts, nil).Scan(context.Background(), symbols, t0, end)

	parOpts := DefaultOptions()
	parOpts.Workers = 8
	par := New(provider(), parOpts, nil).Scan(context.Background(), symbols, t0, end)

	assert.Equal(t, seq.Results, par.Results)
	assert.Equal(t, seq.Outcomes, par.Outcomes)
}

func TestScan_FetchTimeout(t *testing.T) {
	p := provider()
	p.Delay = map[string]time.Duration{"LONG": time.Second}
	opts := DefaultOptions()
	opts.FetchTimeout = 20 * time.Millisecond

	report := New(p, opts, nil).Scan(context.Background(), []string{"LONG"}, t0, t0.AddDate(2, 0, 0))
	assert.Empty(t, report.Results)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, model.ReasonDataUnavailable, report.Outcomes[0].Reason)
}

func TestScan_EmptyUniverse(t *testing.T) {
	report := New(provider(), DefaultOptions(), nil).Scan(context.Background(), nil, t0, t0.AddDate(1, 0, 0))
	assert.Empty(t, report.Results)
	assert.Empty(t, report.Outcomes)
}

func TestScan_FailingSymbolsDoNotSkipHealthyOnes(t *testing.T) {
	p := provider()
	universe := []string{}
	for i := 0; i < 5; i++ {
		sym := fmt.Sprintf("BAD%d", i)
		p.Errors[sym] = fmt.Errorf("%s: %w", sym, model.ErrDataUnavailable)
		universe = append(universe, sym)
	}
	universe = append(universe, "LONG", "ALT")

	opts := DefaultOptions()
	opts.Workers = 1
	g := collector.NewGuarded(p, collector.GuardOptions{BreakerFailures: 2, BreakerCooldown: time.Minute}, nil)
	report := New(g, opts, nil).Scan(context.Background(), universe, t0, t0.AddDate(2, 0, 0))

	require.Len(t, report.Results, 2)
	assert.Equal(t, "LONG", report.Results[0].Symbol)
	assert.Equal(t, "ALT", report.Results[1].Symbol)
	for _, o := range report.Skipped() {
		assert.Equal(t, model.ReasonDataUnavailable, o.Reason, o.Symbol)
	}
	assert.Len(t, report.Skipped(), 5)
}
