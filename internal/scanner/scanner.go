// Package scanner scores a universe of symbols and ranks them.
package scanner

import (
	"context"
	"errors"
	"time"

	"FlowRadar/internal/collector"
	"FlowRadar/internal/metrics"
	"FlowRadar/internal/model"
	"FlowRadar/internal/strategy"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configures a Scanner.
type Options struct {
	Workers      int
	FetchTimeout time.Duration
	Strategy     strategy.Options
}

// DefaultOptions scans with four workers and the stock scoring options.
func DefaultOptions() Options {
	return Options{
		Workers:      4,
		FetchTimeout: 30 * time.Second,
		Strategy:     strategy.DefaultOptions(),
	}
}

// Scanner fetches and scores symbols. Per-symbol failures never fail a scan;
// they are reported as skipped outcomes.
type Scanner struct {
	provider collector.Provider
	opts     Options
	metrics  *metrics.Recorder
}

// New creates a Scanner. rec may be nil.
func New(p collector.Provider, opts Options, rec *metrics.Recorder) *Scanner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{provider: p, opts: opts, metrics: rec}
}

// Scan scores every symbol over [start, end). Results keep input order.
func (s *Scanner) Scan(ctx context.Context, symbols []string, start, end time.Time) *model.ScanReport {
	began := time.Now()
	scores := make([]*model.FlowScore, len(symbols))
	outcomes := make([]model.SymbolOutcome, len(symbols))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, sym := range symbols {
		g.Go(func() error {
			scores[i], outcomes[i] = s.scanOne(ctx, sym, start, end)
			return nil
		})
	}
	_ = g.Wait()

	report := &model.ScanReport{
		Start:     start,
		End:       end,
		Results:   make([]model.FlowScore, 0, len(symbols)),
		Outcomes:  outcomes,
		StartedAt: began,
	}
	for _, sc := range scores {
		if sc != nil {
			report.Results = append(report.Results, *sc)
		}
	}
	report.Duration = time.Since(began)

	s.metrics.RecordScan()
	log.Info().
		Int("symbols", len(symbols)).
		Int("scored", len(report.Results)).
		Int("skipped", len(symbols)-len(report.Results)).
		Dur("took", report.Duration).
		Msg("scan complete")
	return report
}

func (s *Scanner) scanOne(ctx context.Context, symbol string, start, end time.Time) (*model.FlowScore, model.SymbolOutcome) {
	out := model.SymbolOutcome{Symbol: symbol}

	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}
	bars, err := s.provider.FetchDaily(fetchCtx, symbol, start, end)
	if err != nil {
		return nil, s.skip(out, model.ReasonDataUnavailable, err)
	}
	out.Bars = len(bars)
	if len(bars) < strategy.MinHistory {
		return nil, s.skip(out, model.ReasonInsufficientHistory, model.ErrInsufficientHistory)
	}

	score, err := strategy.Score(symbol, bars, s.opts.Strategy)
	if err != nil {
		reason := model.ReasonScoringFailed
		if errors.Is(err, model.ErrInsufficientHistory) {
			reason = model.ReasonInsufficientHistory
		}
		return nil, s.skip(out, reason, err)
	}

	out.Status = model.StatusScored
	s.metrics.RecordSymbol(string(out.Status), string(out.Reason))
	return score, out
}

func (s *Scanner) skip(out model.SymbolOutcome, reason model.SkipReason, err error) model.SymbolOutcome {
	out.Status = model.StatusSkipped
	out.Reason = reason
	out.Error = err.Error()
	s.metrics.RecordSymbol(string(out.Status), string(reason))

	ev := log.Debug()
	if reason == model.ReasonScoringFailed {
		ev = log.Warn()
	}
	ev.Str("symbol", out.Symbol).Str("reason", string(reason)).Int("bars", out.Bars).Err(err).Msg("symbol skipped")
	return out
}
