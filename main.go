// hwinfo-oled-monitor — live HWiNFO shared-memory telemetry on SteelSeries
// OLED screens, with a local status API and live terminal view.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/warbou/hwinfo-oled-monitor/internal/config"
	"github.com/warbou/hwinfo-oled-monitor/internal/display"
	"github.com/warbou/hwinfo-oled-monitor/internal/gamesense"
	"github.com/warbou/hwinfo-oled-monitor/internal/history"
	"github.com/warbou/hwinfo-oled-monitor/internal/hwinfo"
	"github.com/warbou/hwinfo-oled-monitor/internal/poller"
	"github.com/warbou/hwinfo-oled-monitor/internal/server"
	"github.com/warbou/hwinfo-oled-monitor/internal/shmem"
	"github.com/warbou/hwinfo-oled-monitor/internal/watch"
)

const version = "v0.1.0"

func printBanner(mode string) {
	fmt.Printf("\n  HWiNFO OLED MONITOR %s  |  Mode: %s\n", version, mode)
	fmt.Printf("  Segment: %s\n\n", hwinfo.SegmentName)
}

func main() {
	root := &cobra.Command{
		Use:   "hwinfo-oled-monitor",
		Short: "HWiNFO shared-memory telemetry on SteelSeries OLED screens",
		Long: `hwinfo-oled-monitor decodes the sensor tables HWiNFO64 publishes in
shared memory and pushes cycling two-line layouts to SteelSeries OLED
devices via the GameSense SDK. Requires HWiNFO64 running with
"Shared Memory Support" enabled.`,
		SilenceUsage: true,
	}

	// ── monitor subcommand ────────────────────────────────────────────────────
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll the segment and push display updates until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner("MONITOR")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger := buildLogger(cfg)
			return runMonitor(cfg, logger)
		},
	}

	// ── sensors subcommand ────────────────────────────────────────────────────
	sensorsCmd := &cobra.Command{
		Use:   "sensors",
		Short: "Decode the segment once and list every sensor group and reading",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return listSensors(cfg)
		},
	}

	// ── watch subcommand ──────────────────────────────────────────────────────
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of the decoded sensor snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return runWatch(cfg)
		},
	}

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hwinfo-oled-monitor %s\n", version)
		},
	}

	root.AddCommand(monitorCmd, sensorsCmd, watchCmd, versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildLogger assembles the slog logger from config.
func buildLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func newPoller(cfg *config.Config, logger *slog.Logger) *poller.Poller {
	p := poller.New(poller.Config{
		SegmentName: cfg.SegmentName,
		Interval:    cfg.PollInterval(),
		Backoff:     cfg.Backoff(),
		Logger:      logger,
	})
	p.SetFilter(cfg.AllowList)
	return p
}

// runMonitor is the long-running mode: poll loop, display push loop, history
// sampling, and the optional status API, all under one cancellation group.
func runMonitor(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := newPoller(cfg, logger)

	var hist *history.Store
	if !cfg.HistoryDisabled {
		var err error
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
		defer hist.Close()
	}

	// GameSense is best-effort: without a server the monitor still polls,
	// records history, and logs frames to the console.
	var gs *gamesense.Client
	base := cfg.GameSenseURL
	if base == "" {
		discovered, err := gamesense.Discover()
		if err != nil {
			logger.Warn("gamesense server not found, console-only mode", "error", err)
		} else {
			base = discovered
		}
	}
	if base != "" {
		gs = gamesense.New(base, cfg.GameName)
		if err := gs.BindScreen(ctx); err != nil {
			logger.Warn("gamesense handler registration failed, console-only mode", "error", err)
			gs = nil
		} else {
			logger.Info("gamesense handlers registered", "server", base)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.Run(gctx)
	})
	g.Go(func() error {
		return runDisplayLoop(gctx, cfg, logger, p, gs)
	})
	if hist != nil {
		g.Go(func() error {
			return runHistoryLoop(gctx, cfg, logger, p, hist)
		})
	}
	if cfg.APIListen != "" {
		g.Go(func() error {
			return runStatusAPI(gctx, cfg, logger, p, hist)
		})
	}

	err := g.Wait()
	if gs != nil {
		// The run context is gone; give the cleanup call its own deadline.
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rerr := gs.Remove(cleanupCtx); rerr == nil {
			logger.Info("gamesense registration cleaned up")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runDisplayLoop renders one layout per display interval and pushes it to
// the OLED (or the log, in console-only mode).
func runDisplayLoop(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *poller.Poller, gs *gamesense.Client) error {
	formatter := display.New(cfg.Sensors)
	interval := time.Duration(cfg.DisplayInterval) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	updateCount := 0
	sendFailures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		updateCount++
		frame := formatter.Frame(p.Snapshot(), updateCount)
		mode := display.ModeNames[updateCount%display.NumModes]

		if gs == nil {
			logger.Info("frame", "mode", mode, "line1", frame.Line1, "line2", frame.Line2)
			continue
		}

		if err := gs.SendFrame(ctx, frame, updateCount); err != nil {
			sendFailures++
			logger.Warn("display update failed", "mode", mode, "error", err)
			// The SDK forgets registrations when it restarts; rebinding
			// periodically recovers without operator action.
			if sendFailures%10 == 0 {
				if err := gs.BindScreen(ctx); err != nil {
					logger.Warn("gamesense re-registration failed", "error", err)
				}
			}
			continue
		}

		logger.Debug("frame sent", "mode", mode, "line1", frame.Line1, "line2", frame.Line2)

		if cfg.HeartbeatEvery > 0 && updateCount%cfg.HeartbeatEvery == 0 {
			if err := gs.Heartbeat(ctx); err != nil {
				logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// runHistoryLoop samples the current snapshot into SQLite and prunes old
// rows once an hour.
func runHistoryLoop(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *poller.Poller, hist *history.Store) error {
	sampleEvery := time.Duration(cfg.HistoryEveryS) * time.Second
	if sampleEvery <= 0 {
		sampleEvery = 10 * time.Second
	}
	retention := time.Duration(cfg.RetentionHours) * time.Hour

	sample := time.NewTicker(sampleEvery)
	defer sample.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sample.C:
			if err := hist.Record(p.Snapshot()); err != nil {
				logger.Warn("history write failed", "error", err)
			}
		case <-prune.C:
			if retention <= 0 {
				continue
			}
			if err := hist.Prune(time.Now().Add(-retention)); err != nil {
				logger.Warn("history prune failed", "error", err)
			}
		}
	}
}

// runStatusAPI serves the local read-only API until the context ends.
func runStatusAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, p *poller.Poller, hist *history.Store) error {
	srv := &http.Server{
		Addr:    cfg.APIListen,
		Handler: server.New(p, hist),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("status api listening", "addr", cfg.APIListen)

	select {
	case err := <-errCh:
		return fmt.Errorf("status api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return nil
	}
}

// listSensors decodes the segment once and prints everything, grouped, so
// the operator can pick reading IDs for the config file.
func listSensors(cfg *config.Config) error {
	name := cfg.SegmentName
	if name == "" {
		name = hwinfo.SegmentName
	}

	region, err := shmem.Open(name)
	if err != nil {
		return fmt.Errorf("opening segment: %w", err)
	}
	defer region.Close()

	data, err := region.Read()
	if err != nil {
		return fmt.Errorf("reading segment: %w", err)
	}
	snap, err := hwinfo.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding segment: %w", err)
	}

	fmt.Printf("Decoded %d readings across %d sensor groups (update %d)\n",
		len(snap.Readings), len(snap.Groups), snap.UpdateCounter)

	for _, g := range snap.Groups {
		fmt.Printf("\n%s", g.Name)
		if g.Instance > 0 {
			fmt.Printf(" #%d", g.Instance)
		}
		fmt.Printf("  (group %d)\n", g.ID)
		fmt.Println(strings.Repeat("-", 70))
		for _, r := range snap.Readings {
			if r.SensorID != g.ID {
				continue
			}
			fmt.Printf("  ID %6d  %-12s %-40s %10.2f %s\n",
				r.ID, r.Kind, r.Label, r.Value, r.Unit)
		}
	}
	return nil
}

// runWatch drives the live terminal view on top of a background poller.
func runWatch(cfg *config.Config) error {
	// The TUI owns the terminal; keep poller logging out of the way.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	p := newPoller(cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollErr := make(chan error, 1)
	go func() { pollErr <- p.Run(ctx) }()

	prog := tea.NewProgram(watch.New(p), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	cancel()

	if err := <-pollErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
