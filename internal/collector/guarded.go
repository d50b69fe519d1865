package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FlowRadar/internal/metrics"
	"FlowRadar/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardOptions configures throttling and failure isolation around a Provider.
type GuardOptions struct {
	RatePerSecond   float64
	Burst           int
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Guarded wraps a Provider with a token-bucket limiter, a per-call timeout and
// one circuit breaker per symbol, so a symbol that keeps failing never blocks
// fetches of another. Empty results and caller cancellation do not trip a
// breaker.
type Guarded struct {
	next     Provider
	limiter  *rate.Limiter
	settings gobreaker.Settings
	timeout  time.Duration
	metrics  *metrics.Recorder

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewGuarded wraps next. rec may be nil.
func NewGuarded(next Provider, opts GuardOptions, rec *metrics.Recorder) *Guarded {
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	provider := next.Name()
	return &Guarded{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		settings: gobreaker.Settings{
			Timeout: opts.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", provider).Str("symbol", name).
					Str("from", from.String()).Str("to", to.String()).Msg("symbol breaker state changed")
			},
		},
		timeout:  opts.Timeout,
		metrics:  rec,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Name reports the wrapped provider's name.
func (g *Guarded) Name() string { return g.next.Name() }

func (g *Guarded) breaker(symbol string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	cb, ok := g.breakers[symbol]
	if !ok {
		s := g.settings
		s.Name = symbol
		cb = gobreaker.NewCircuitBreaker(s)
		g.breakers[symbol] = cb
	}
	return cb
}

// FetchDaily waits for a rate token, then calls the wrapped provider through
// the symbol's breaker.
func (g *Guarded) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w: rate limit: %w", g.Name(), symbol, model.ErrDataUnavailable, err)
	}

	began := time.Now()
	res, err := g.breaker(symbol).Execute(func() (interface{}, error) {
		return g.next.FetchDaily(ctx, symbol, start, end)
	})
	g.metrics.ObserveFetch(g.Name(), time.Since(began), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s %s: %w: %w", g.Name(), symbol, model.ErrDataUnavailable, err)
		}
		return nil, err
	}
	return res.([]model.OHLCV), nil
}
