package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"FlowRadar/internal/config"
	"FlowRadar/internal/model"
	"FlowRadar/internal/notifier"
	"FlowRadar/internal/scheduler"
	"FlowRadar/internal/server"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}

	root := &cobra.Command{
		Use:          "radar",
		Short:        "Equity flow scanner and narrative explainer",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", cfgPath, "Path to the YAML config file")

	root.AddCommand(scanCmd(&cfgPath), explainCmd(&cfgPath), sectorCmd(&cfgPath), serveCmd(&cfgPath))
	return root
}

func scanCmd(cfgPath *string) *cobra.Command {
	var symbols, start, end string
	var top int
	var asJSON, notify bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Score the universe for quiet accumulation and late crowding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			from, to, err := a.window(start, end)
			if err != nil {
				return err
			}
			universe := a.cfg.Universe
			if symbols != "" {
				universe = config.SplitSymbols(symbols)
			}
			if top <= 0 {
				top = a.cfg.Scan.TopN
			}

			report := a.scanner.Scan(cmd.Context(), universe, from, to)
			if err := a.recorder.RecordScan(report); err != nil {
				log.Error().Err(err).Msg("record scan")
			}
			if notify {
				if err := a.cfg.ValidateNotifier(); err != nil {
					return err
				}
				tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
				if err := tn.SendWithRetry(cmd.Context(), notifier.FormatScanReport(report, top), 3); err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printScan(cmd.OutOrStdout(), report, top)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "Comma-separated symbols (default: configured universe)")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD, exclusive")
	cmd.Flags().IntVar(&top, "top", 0, "Rows per ranking (default: scan.top_n)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the report to Telegram")
	return cmd
}

func explainCmd(cfgPath *string) *cobra.Command {
	var sectorProxy, start, end string
	var noAuto, asJSON bool

	cmd := &cobra.Command{
		Use:   "explain SYMBOL",
		Short: "Explain what drives a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			from, to, err := a.window(start, end)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			if sectorProxy == "" && !noAuto {
				sectorProxy = a.resolver.Resolve(cmd.Context(), symbol).ChosenProxy.String
			}

			e, err := a.explainer.Explain(cmd.Context(), symbol, sectorProxy, from, to)
			if err != nil {
				if errors.Is(err, model.ErrDataUnavailable) {
					return fmt.Errorf("%s: data unavailable: %w", symbol, err)
				}
				return err
			}
			if err := a.recorder.RecordExplanation(e); err != nil {
				log.Error().Err(err).Msg("record explanation")
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), e)
			}
			printExplanation(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVar(&sectorProxy, "sector", "", "Sector/industry proxy symbol to compare against")
	cmd.Flags().BoolVar(&noAuto, "no-auto-sector", false, "Do not resolve a sector proxy from metadata")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD, exclusive")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print metrics, narrative and table as JSON")
	return cmd
}

func sectorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sector SYMBOL",
		Short: "Resolve sector and industry benchmark proxies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return writeJSON(cmd.OutOrStdout(), a.resolver.Resolve(cmd.Context(), args[0]))
		},
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the scheduled scan and Telegram commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			h := &server.Handler{
				Scanner:   a.scanner,
				Explainer: a.explainer,
				Resolver:  a.resolver,
				Recorder:  a.recorder,
				Universe:  a.cfg.Universe,
				Window:    a.cfg.Window,
			}
			srv := server.NewServer(h, a.registry,
				server.WithHost(a.cfg.Server.Host), server.WithPort(a.cfg.Server.Port))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gctx) })

			if err := a.cfg.ValidateNotifier(); err != nil {
				log.Warn().Err(err).Msg("telegram disabled")
			} else {
				tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
				sched := scheduler.NewScheduler(gctx, a.scanner, a.explainer, a.resolver, tn, a.recorder, scheduler.Options{
					Universe: a.cfg.Universe,
					TopN:     a.cfg.Scan.TopN,
					Window:   a.cfg.Window,
				})
				if err := sched.Register(a.cfg.Schedule.ScanCron); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()

				g.Go(func() error {
					tn.StartPolling(gctx, sched.HandleCommand)
					return nil
				})
				if runOnStart {
					g.Go(func() error {
						sched.RunScanNow()
						return nil
					})
				}
			}

			log.Info().Strs("universe", a.cfg.Universe).Msg("FlowRadar is running. Press Ctrl+C to stop.")
			return g.Wait()
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", os.Getenv("RUN_ON_START") == "true", "Run one scan immediately")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtNum(v null.Float, prec int) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, v.Float64)
}

func printScan(w io.Writer, r *model.ScanReport, top int) {
	printRanking(w, "Quiet Accumulation", r.ByQuietScore(), top)
	fmt.Fprintln(w)
	printRanking(w, "Late Crowded", r.ByCrowdedScore(), top)

	if skipped := r.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(w, "\nskipped %d:\n", len(skipped))
		for _, o := range skipped {
			fmt.Fprintf(w, "  %s\t%s\t%d bars\n", o.Symbol, o.Reason, o.Bars)
		}
	}
}

func printRanking(w io.Writer, title string, rows []model.FlowScore, top int) {
	fmt.Fprintf(w, "%s\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tDATE\tQUIET\tCROWDED\tLABEL\tRSI\tVOL_Z\tATR_Z\tSHARPE\tACCEL_Z")
	for i, s := range rows {
		if i >= top {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Symbol, s.Date.Format("2006-01-02"), fmtNum(s.QuietScore, 3), fmtNum(s.CrowdedScore, 3), s.Label,
			fmtNum(s.RSI, 1), fmtNum(s.VolZ, 2), fmtNum(s.ATRZ, 2), fmtNum(s.Sharpe, 2), fmtNum(s.AccelZ, 2))
	}
	tw.Flush()
}

func printExplanation(w io.Writer, e *model.Explanation) {
	m := e.Metrics
	fmt.Fprintf(w, "%s  %s  market=%s", m.Symbol, m.Date.Format("2006-01-02"), m.MarketProxy)
	if m.SectorProxy != "" {
		fmt.Fprintf(w, " sector=%s", m.SectorProxy)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range m.Fields() {
		fmt.Fprintf(tw, "  %s\t%s\n", f.Name, fmtNum(f.Value, 3))
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%s\n\n", e.Narrative)

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCLOSE\tVOL_Z\tATR_Z\tACCEL_Z\tRSI")
	for _, r := range e.Table {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\t%s\n",
			r.Date.Format("2006-01-02"), r.Close, fmtNum(r.VolZ, 2), fmtNum(r.ATRZ, 2), fmtNum(r.AccelZ, 2), fmtNum(r.RSI, 1))
	}
	tw.Flush()
}
