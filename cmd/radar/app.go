package main

import (
	"fmt"
	"time"

	"FlowRadar/internal/collector"
	"FlowRadar/internal/config"
	"FlowRadar/internal/explainer"
	"FlowRadar/internal/logging"
	"FlowRadar/internal/metrics"
	"FlowRadar/internal/recorder"
	"FlowRadar/internal/scanner"
	"FlowRadar/internal/sector"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	registry  *prometheus.Registry
	metrics   *metrics.Recorder
	provider  collector.Provider
	scanner   *scanner.Scanner
	explainer *explainer.Explainer
	resolver  *sector.Resolver
	recorder  recorder.Recorder
}

func newApp(cfgPath string, persist bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	yahoo := collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.Timeout)
	var base collector.Provider = yahoo
	if cfg.DataSource.BaseURL != "" {
		base = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	}
	provider := collector.NewGuarded(base, cfg.GuardOptions(), rec)
	log.Debug().Str("provider", provider.Name()).Msg("data source selected")

	a := &app{
		cfg:       cfg,
		registry:  reg,
		metrics:   rec,
		provider:  provider,
		scanner:   scanner.New(provider, cfg.ScannerOptions(), rec),
		explainer: explainer.New(provider, cfg.ExplainerOptions(), rec),
		resolver:  sector.NewResolver(yahoo, cfg.SectorOverrides),
		recorder:  recorder.NewNoopRecorder(),
	}

	if persist && cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}
	return a, nil
}

func (a *app) Close() error {
	return a.recorder.Close()
}

// window resolves optional YYYY-MM-DD flags against the configured lookback.
func (a *app) window(startStr, endStr string) (time.Time, time.Time, error) {
	start, end := a.cfg.Window(time.Now())
	var err error
	if startStr != "" {
		if start, err = time.Parse("2006-01-02", startStr); err != nil {
			return start, end, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if endStr != "" {
		if end, err = time.Parse("2006-01-02", endStr); err != nil {
			return start, end, fmt.Errorf("invalid --end: %w", err)
		}
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("--start must be before --end")
	}
	return start, end, nil
}
