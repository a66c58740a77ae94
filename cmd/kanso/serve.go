package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/c360studio/kanso/config"
	"github.com/c360studio/kanso/model"
	planorchestrator "github.com/c360studio/kanso/processor/plan-orchestrator"
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the plan-orchestrator as a NATS service",
		Long: `Connect to NATS and consume plan generation triggers from
JetStream. Each trigger runs the full planning pipeline; status events
and results are published back over NATS. Runs until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	return cmd
}

func runServe(ctx context.Context) error {
	logger := slog.Default()

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	registry, err := buildModelRegistry(cfg)
	if err != nil {
		return err
	}
	model.InitGlobal(registry)

	// Hot-reload the registry when a file backs it.
	if cfg.Model.RegistryPath != "" {
		watcher, err := model.NewWatcher(cfg.Model.RegistryPath, registry, model.WithWatcherLogger(logger))
		if err != nil {
			logger.Warn("Registry watcher unavailable", "error", err)
		} else {
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Registry watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	client, err := connectToNATS(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("NATS close failed", "error", err)
		}
	}()

	if err := ensurePlannerStream(ctx, client, logger); err != nil {
		return err
	}

	orchestratorConfig, err := json.Marshal(planorchestrator.Config{
		GateIterations:  cfg.Planner.GateIterations,
		MergeThreshold:  cfg.Planner.MergeThreshold,
		ResearchEnabled: cfg.Research.Enabled,
	})
	if err != nil {
		return fmt.Errorf("marshal orchestrator config: %w", err)
	}

	discoverable, err := planorchestrator.NewComponent(orchestratorConfig, component.Dependencies{
		Logger:     logger,
		NATSClient: client,
	})
	if err != nil {
		return fmt.Errorf("create plan-orchestrator: %w", err)
	}
	orchestrator, ok := discoverable.(*planorchestrator.Component)
	if !ok {
		return fmt.Errorf("unexpected component type %T", discoverable)
	}

	if err := orchestrator.Initialize(); err != nil {
		return fmt.Errorf("initialize plan-orchestrator: %w", err)
	}
	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("start plan-orchestrator: %w", err)
	}

	logger.Info("kanso serving", "version", Version)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("Shutting down")
	if err := orchestrator.Stop(30 * time.Second); err != nil {
		logger.Warn("Orchestrator stop failed", "error", err)
	}

	return nil
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	natsURL := cfg.NATS.URL
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		natsURL = envURL
	}

	logger.Info("Connecting to NATS", "url", natsURL)

	client, err := natsclient.NewClient(natsURL,
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, natsURL)
	}

	logger.Info("Connected to NATS", "url", natsURL)
	return client, nil
}

// wrapNATSError provides guidance when the NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a local server with:
  docker run -p 4222:4222 nats:latest -js

Or set NATS_URL to point at your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// ensurePlannerStream creates the PLANNER stream if it does not exist.
func ensurePlannerStream(ctx context.Context, client *natsclient.Client, logger *slog.Logger) error {
	js, err := client.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     "PLANNER",
		Subjects: []string{"planner.>"},
		MaxAge:   24 * time.Hour,
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		return fmt.Errorf("ensure PLANNER stream: %w", err)
	}

	logger.Debug("JetStream stream ready", "stream", "PLANNER")
	return nil
}
