package app

import (
	"context"
	"fmt"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/pipeline"
	"github.com/vk/gridflow/internal/runner"
	"github.com/vk/gridflow/internal/worker"
)

// Run executes the loaded pipeline. The offload transport, when
// configured, lives for exactly one run.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if cfg.HealthcheckPort > 0 {
		a.startHealthcheck(cfg.HealthcheckPort)
		defer a.stopHealthcheck()
	}

	offload, cleanup, err := a.connectOffload(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.Info("🚀 Starting pipeline execution...", "pipeline", a.pipeline.Name, "workers", cfg.Workers)
	results, err := runner.New(a.registry, runner.Options{Workers: cfg.Workers, Offload: offload}).Run(ctx, a.pipeline)
	a.logNodeOutcomes()
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	a.logger.Info("🏁 Execution finished.", "nodes", len(results))
	return nil
}

// connectOffload builds the transform offload client for one run.
func (a *App) connectOffload(ctx context.Context, cfg *Config) (*worker.Client, func(), error) {
	switch cfg.Offload {
	case "", OffloadOff:
		return nil, func() {}, nil
	case OffloadLocal:
		a.logger.Debug("Starting local offload pool.", "workers", cfg.Workers)
		pool := worker.StartPool(ctx, cfg.Workers)
		return worker.NewClient(ctx, pool), func() { pool.Close() }, nil
	default:
		a.logger.Debug("Connecting to remote worker.", "url", cfg.Offload)
		remote, err := worker.ConnectRemote(ctx, worker.RemoteOptions{URL: cfg.Offload})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect offload worker: %w", err)
		}
		return worker.NewClient(ctx, remote), func() { remote.Close() }, nil
	}
}

// logNodeOutcomes reports the final status of every node after a run.
func (a *App) logNodeOutcomes() {
	for _, n := range a.pipeline.Nodes {
		if n.Status == pipeline.StatusError {
			a.logger.Error("Node outcome.", "node_id", n.ID, "status", n.Status, "error", n.LastError)
			continue
		}
		a.logger.Info("Node outcome.", "node_id", n.ID, "status", n.Status)
	}
}
