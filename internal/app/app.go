package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/hclspec"
	"github.com/vk/gridflow/internal/pipeline"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	registry   *executor.Registry
	pipeline   *pipeline.Pipeline
	httpServer *http.Server
}

// New is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// A failure to load the pipeline definition is a fatal startup error and
// panics; callers recover at the process boundary.
func New(outW io.Writer, cfg *Config, modules ...executor.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := executor.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules(cfg.HTTPTimeout)
	}
	for _, mod := range modules {
		mod.Register(ctx, reg)
	}
	logger.Debug("All node modules registered.", "types", reg.Types())

	p, err := hclspec.NewLoader().LoadPath(ctx, cfg.PipelinePath)
	if err != nil {
		panic(fmt.Errorf("failed to load pipeline definition: %w", err))
	}
	logger.Debug("Pipeline definition loaded.", "name", p.Name, "nodes", len(p.Nodes), "connections", len(p.Connections))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		pipeline: p,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *executor.Registry {
	return a.registry
}

// Pipeline returns the loaded pipeline model. This is primarily for testing.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}
