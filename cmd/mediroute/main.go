// Command mediroute serves the emergency routing pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediroute/internal/llmimpl"
	"mediroute/internal/server"
	"mediroute/pkg/config"
	"mediroute/pkg/ledger"
	"mediroute/pkg/logx"
	"mediroute/pkg/oracle/middleware/metrics"
	"mediroute/pkg/pipeline"
	"mediroute/pkg/registry"
	"mediroute/pkg/session"
	"mediroute/pkg/stages"
	"mediroute/pkg/version"
)

const shutdownGrace = 15 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "mediroute.yaml", "Path to the YAML config file")
		addr        = flag.String("addr", "", "Listen address (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mediroute %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "mediroute: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addrOverride string) error {
	logger := logx.NewLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	reg, err := registry.Load()
	if err != nil {
		return fmt.Errorf("failed to load facility registry: %w", err)
	}
	logger.Info("loaded %d accredited facilities", len(reg.Facilities()))

	led, err := ledger.Open()
	if err != nil {
		return fmt.Errorf("failed to open insurance ledger: %w", err)
	}
	defer func() { _ = led.Close() }()

	recorder := metrics.NewPrometheusRecorder()

	// The coordinator is built in two steps: the oracle client labels its
	// metrics with the active stage, which the coordinator tracks.
	var coordinator *pipeline.Coordinator
	stageTracker := metrics.StageProviderFunc(func() string {
		if coordinator == nil {
			return "startup"
		}
		return coordinator.CurrentStage()
	})

	client, err := llmimpl.NewClient(cfg.Oracle, recorder, stageTracker)
	if err != nil {
		return fmt.Errorf("failed to build oracle client: %w", err)
	}
	logger.Info("oracle backend: %s", client.ModelName())

	coordinator, err = pipeline.NewCoordinator(stages.New(stages.Deps{
		Oracle:   client,
		Registry: reg,
		Ledger:   led,
		Metrics:  recorder,
	}))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	sessions := session.NewManager(cfg.Session.TTL, cfg.Session.MaxSessions)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(coordinator, sessions).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, draining connections")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown did not complete cleanly: %w", err)
		}
	}

	logger.Info("goodbye")
	return nil
}
