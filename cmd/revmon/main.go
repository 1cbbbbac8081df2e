package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/treska/revmon/internal/config"
	"codeberg.org/treska/revmon/internal/feed"
	"codeberg.org/treska/revmon/internal/logger"
	"codeberg.org/treska/revmon/internal/monitor"
	"codeberg.org/treska/revmon/internal/pid"
	"codeberg.org/treska/revmon/internal/source"
	"codeberg.org/treska/revmon/internal/telemetry"
)

var (
	cfg       *config.Config
	mon       *monitor.Monitor
	collector telemetry.Collector
	hub       *feed.Hub
)

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.IsDebug(), cfg.IsVerbose(), logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer pid.Remove()

	src, err := source.New(cfg.Device)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open sample source")
	}
	defer src.Close()

	logger.Info().
		Str("device", cfg.Device.Type).
		Int("counts_per_rev", cfg.CountsPerRev).
		Dur("tick_period", cfg.TickPeriod()).
		Int("window", cfg.Window).
		Msg("Sample source initialized")

	mon = monitor.New(src, monitor.Config{
		CountsPerRev: cfg.CountsPerRev,
		TickPeriod:   cfg.TickPeriod(),
		Window:       cfg.Window,
	})

	collector, err = telemetry.NewService(telemetry.Config{
		Enabled: cfg.Telemetry,
		DBPath:  cfg.Database,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	hub = feed.NewHub()
	go hub.Run(ctx)
	if cfg.Listen != "" {
		go serveFeed(ctx)
	}

	if err := loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	logger.Info().Msg("Exiting...")
}

// loop drives the fixed-cadence measurement sequence. Per-tick errors are
// absorbed so the cadence is never missed and the process never aborts.
func loop(ctx context.Context) error {
	ticker := time.NewTicker(cfg.TickPeriod())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			snap, err := mon.Tick()
			if err != nil {
				logger.Warn().Err(err).Msg("Sample read failed, skipping tick")
				continue
			}

			logStatus(snap)

			if err := collector.Record(ctx, &snap); err != nil {
				logger.Warn().Err(err).Msg("Failed to record telemetry")
			}
			hub.Publish(&snap)
		}
	}
}

func serveFeed(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, release := context.WithTimeout(context.Background(), time.Second)
		defer release()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("listen", cfg.Listen).Msg("Feed listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("feed server failed")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logStatus(snap monitor.Snapshot) {
	if cfg.IsDebug() {
		logger.Debug().
			Uint16("raw", snap.Raw).
			Int64("position", snap.Position).
			Float64("revolutions", snap.Revolutions).
			Float64("rpm", snap.RPM).
			Float64("smoothed_rpm", snap.SmoothedRPM).
			Uint64("sample_errors", snap.SampleErrors).
			Msg("")
	} else if cfg.IsVerbose() {
		logger.Info().
			Float64("revolutions", snap.Revolutions).
			Float64("smoothed_rpm", snap.SmoothedRPM).
			Msg("")
	}
}
