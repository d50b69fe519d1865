package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"FlowRadar/internal/calculator"
	"FlowRadar/internal/collector"
	"FlowRadar/internal/explainer"
	"FlowRadar/internal/scanner"
	"FlowRadar/internal/strategy"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	DataSource struct {
		// Provider is yahoo unless base_url is set, then vstrader.
		BaseURL         string        `yaml:"base_url"`
		APIKey          string        `yaml:"api_key"`
		Timeout         time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		RatePerSecond   float64       `yaml:"rate_per_second" default:"5" validate:"gte=0"`
		Burst           int           `yaml:"burst" default:"5" validate:"gte=1"`
		BreakerFailures uint32        `yaml:"breaker_failures" default:"5" validate:"gte=1"`
		BreakerCooldown time.Duration `yaml:"breaker_cooldown" default:"1m"`
	} `yaml:"data_source"`
	Universe     []string `yaml:"universe" default:"[\"AAPL\",\"MSFT\",\"NVDA\",\"AMZN\",\"GOOGL\",\"META\",\"TSLA\",\"JPM\",\"XOM\",\"UNH\"]" validate:"min=1,dive,required"`
	Benchmark    string   `yaml:"benchmark" default:"SPY" validate:"required"`
	LookbackDays int      `yaml:"lookback_days" default:"730" validate:"gte=150"`
	Scan         struct {
		Workers int `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
		TopN    int `yaml:"top_n" default:"10" validate:"gte=1"`
	} `yaml:"scan"`
	Scoring struct {
		Smoothing string  `yaml:"smoothing" default:"rolling" validate:"oneof=rolling wilder"`
		Sharpe    float64 `yaml:"sharpe" default:"0.5"`
		Volume    float64 `yaml:"volume" default:"0.8"`
		ATR       float64 `yaml:"atr" default:"0.8"`
		RSI       float64 `yaml:"rsi" default:"72" validate:"gte=0,lte=100"`
		Accel     float64 `yaml:"accel" default:"0.6"`
		Crowded   float64 `yaml:"crowded" default:"0.7" validate:"gte=0,lte=1"`
		Quiet     float64 `yaml:"quiet" default:"0.65" validate:"gte=0,lte=1"`
	} `yaml:"scoring"`
	Explain struct {
		Smoothing     string  `yaml:"smoothing" default:"wilder" validate:"oneof=rolling wilder"`
		LowR2         float64 `yaml:"low_r2" default:"0.25" validate:"gte=0,lte=1"`
		HighBeta      float64 `yaml:"high_beta" default:"1.2"`
		SectorMargin  float64 `yaml:"sector_margin" default:"0.15" validate:"gte=0"`
		CrowdZ        float64 `yaml:"crowd_z" default:"1.0"`
		Overbought    float64 `yaml:"overbought" default:"70" validate:"gte=0,lte=100"`
		MinCrowdFlags int     `yaml:"min_crowd_flags" default:"2" validate:"gte=1,lte=4"`
		JumpRate      float64 `yaml:"jump_rate" default:"0.12" validate:"gte=0,lte=1"`
	} `yaml:"explain"`
	// SectorOverrides pins the proxy for a symbol, e.g. TSLA: QQQ.
	SectorOverrides map[string]string `yaml:"sector_overrides"`
	Server          struct {
		Host string `yaml:"host" default:"0.0.0.0"`
		Port int    `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	} `yaml:"server"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron" default:"0 30 16 * * 1-5"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, applies defaults, then environment
// variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RADAR_UNIVERSE"); v != "" {
		cfg.Universe = SplitSymbols(v)
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	for i, s := range cfg.Universe {
		cfg.Universe[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	cfg.Benchmark = strings.ToUpper(cfg.Benchmark)

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

// ValidateNotifier checks the fields needed to run the Telegram notifier.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// SplitSymbols parses a comma or whitespace separated symbol list.
func SplitSymbols(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToUpper(f))
	}
	return out
}

// Window returns the default [start, end) fetch range ending tomorrow.
func (c *Config) Window(now time.Time) (time.Time, time.Time) {
	end := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	return end.AddDate(0, 0, -c.LookbackDays), end
}

// Thresholds returns the scorer thresholds.
func (c *Config) Thresholds() strategy.Thresholds {
	s := c.Scoring
	return strategy.Thresholds{
		Sharpe:  s.Sharpe,
		Volume:  s.Volume,
		ATR:     s.ATR,
		RSI:     s.RSI,
		Accel:   s.Accel,
		Crowded: s.Crowded,
		Quiet:   s.Quiet,
	}
}

// ScannerOptions returns the universe scanner options.
func (c *Config) ScannerOptions() scanner.Options {
	return scanner.Options{
		Workers:      c.Scan.Workers,
		FetchTimeout: c.DataSource.Timeout,
		Strategy: strategy.Options{
			Thresholds: c.Thresholds(),
			Smoothing:  calculator.Smoothing(c.Scoring.Smoothing),
		},
	}
}

// ExplainerOptions returns the narrative explainer options.
func (c *Config) ExplainerOptions() explainer.Options {
	e := c.Explain
	return explainer.Options{
		Benchmark: c.Benchmark,
		Smoothing: calculator.Smoothing(e.Smoothing),
		Rules: explainer.Rules{
			LowR2:         e.LowR2,
			HighBeta:      e.HighBeta,
			SectorMargin:  e.SectorMargin,
			CrowdZ:        e.CrowdZ,
			Overbought:    e.Overbought,
			MinCrowdFlags: e.MinCrowdFlags,
			JumpRate:      e.JumpRate,
		},
	}
}

// GuardOptions returns the provider throttling options.
func (c *Config) GuardOptions() collector.GuardOptions {
	d := c.DataSource
	return collector.GuardOptions{
		RatePerSecond:   d.RatePerSecond,
		Burst:           d.Burst,
		Timeout:         d.Timeout,
		BreakerFailures: d.BreakerFailures,
		BreakerCooldown: d.BreakerCooldown,
	}
}
