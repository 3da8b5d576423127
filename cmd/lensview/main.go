package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lens-viewer/pkg/backend"
	"lens-viewer/pkg/config"
	"lens-viewer/pkg/engine"
	"lens-viewer/pkg/export"
	"lens-viewer/pkg/telemetry"
	"lens-viewer/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process: it returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, actions, err := config.Load(args, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	if actions.ShowHelp {
		return 0
	}
	if actions.ShowVersion {
		fmt.Fprintln(stdout, version.Info().String())
		return 0
	}
	if actions.PrintConfig {
		if err := cfg.WriteYAML(stdout); err != nil {
			fmt.Fprintf(stderr, "Error writing configuration: %v\n", err)
			return 1
		}
		return 0
	}

	logger := log.New(stderr, "[lensview] ", log.LstdFlags)
	if cfg.ConfigFile != "" {
		logger.Printf("using config file %s", cfg.ConfigFile)
	}

	sessionID := uuid.NewString()
	client := backend.NewClient(cfg.ServerURL, cfg.RequestTimeout(), sessionID)

	if actions.ShutdownServer {
		msg, err := client.ShutdownServer(ctx)
		if err != nil {
			logger.Printf("shutdown request failed: %v", err)
			return 1
		}
		fmt.Fprintln(stdout, msg)
		return 0
	}

	opts, err := engine.OptionsFromConfig(cfg, sessionID)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	if actions.ExportPath != "" {
		if err := exportSnapshot(ctx, opts, client, logger, actions.ExportPath); err != nil {
			logger.Printf("export failed: %v", err)
			return 1
		}
		return 0
	}

	if err := serve(ctx, cfg, opts, client, logger); err != nil {
		logger.Printf("error: %v", err)
		return 1
	}
	return 0
}

// exportSnapshot loads the initial window, writes it to path and returns.
func exportSnapshot(ctx context.Context, opts engine.Options, b backend.Backend, logger *log.Logger, path string) error {
	eng := engine.New(opts, logger, b, nil)
	defer eng.Close()

	if err := eng.RefreshEnd(ctx); err != nil {
		logger.Printf("data end unknown: %v", err)
	}
	logger.Printf("loading [%g, %g] for export", opts.InitialRange.Min, opts.InitialRange.Max)
	if err := eng.Bootstrap(ctx); err != nil {
		return err
	}
	if err := export.SaveWorkbook(path, eng.Snapshot()); err != nil {
		return err
	}
	logger.Printf("wrote %s", path)
	return nil
}

// serve runs the engine with telemetry, metrics and the status printer
// until ctx ends.
func serve(ctx context.Context, cfg *config.Config, opts engine.Options, b backend.Backend, logger *log.Logger) error {
	aggregator := telemetry.NewAggregator(telemetry.RealClock{}, telemetry.DefaultConfig())
	aggregator.Start(ctx)
	defer aggregator.Stop()

	if cfg.Runtime.MetricsAddr != "" {
		srv := startMetricsServer(cfg.Runtime.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Printf("metrics server shutdown: %v", err)
			}
		}()
	}

	eng := engine.New(opts, logger, b, aggregator)
	defer eng.Close()
	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	cli := NewCLI(aggregator, eng, cfg, logger)
	return cli.Run(ctx)
}

func startMetricsServer(addr string, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Printf("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("metrics server: %v", err)
		}
	}()
	return srv
}
