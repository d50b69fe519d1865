package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FlowRadar/internal/explainer"
	"FlowRadar/internal/model"
	"FlowRadar/internal/notifier"
	"FlowRadar/internal/recorder"
	"FlowRadar/internal/scanner"
	"FlowRadar/internal/sector"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures the scheduled scan.
type Options struct {
	Universe []string
	TopN     int
	// Window returns the [start, end) range to fetch as of now.
	Window func(now time.Time) (time.Time, time.Time)
}

// Scheduler runs the universe scan on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   *scanner.Scanner
	Explainer *explainer.Explainer
	Resolver  *sector.Resolver
	Notifier  Sender
	Recorder  recorder.Recorder
	Ctx       context.Context
	opts      Options
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, ex *explainer.Explainer, res *sector.Resolver,
	n Sender, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Scanner:   sc,
		Explainer: ex,
		Resolver:  res,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
		opts:      opts,
	}
}

// Register adds the scan job.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunScanNow executes the scan task immediately.
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Info().Int("symbols", len(s.opts.Universe)).Msg("running scheduled scan")
	report := s.scan()
	s.trySend(notifier.FormatScanReport(report, s.opts.TopN))
}

func (s *Scheduler) scan() *model.ScanReport {
	start, end := s.opts.Window(time.Now())
	report := s.Scanner.Scan(s.Ctx, s.opts.Universe, start, end)
	if err := s.Recorder.RecordScan(report); err != nil {
		log.Error().Err(err).Msg("record scan")
	}
	return report
}

// Explain resolves the symbol's sector proxy and explains it over the
// configured window.
func (s *Scheduler) Explain(symbol string) (*model.Explanation, error) {
	symbol = strings.ToUpper(symbol)
	proxy := s.Resolver.Resolve(s.Ctx, symbol).ChosenProxy.String
	start, end := s.opts.Window(time.Now())
	e, err := s.Explainer.Explain(s.Ctx, symbol, proxy, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordExplanation(e); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("record explanation")
	}
	return e, nil
}

const helpText = "可用命令:\n• /scan 扫描股票池\n• /explain SYMBOL 个股解读"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/scan", "扫描":
		return notifier.FormatScanReport(s.scan(), s.opts.TopN)
	case "/explain", "解读":
		if len(fields) < 2 {
			return "用法: /explain SYMBOL"
		}
		e, err := s.Explain(fields[1])
		if err != nil {
			log.Warn().Err(err).Str("symbol", fields[1]).Msg("explain command failed")
			return fmt.Sprintf("❌ %s 解读失败: 数据不可用", strings.ToUpper(fields[1]))
		}
		return notifier.FormatExplanation(e)
	default:
		return helpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
