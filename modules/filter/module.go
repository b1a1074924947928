package filter

import (
	"context"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/transform"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// Filter is the "filter" node executor: it keeps the input rows that
// match the configured conditions.
type Filter struct{}

// Validate checks the condition configuration.
func (f *Filter) Validate(ec *executor.Context) *executor.ValidationResult {
	return transform.ValidateFilterConfig(ec.Config)
}

// Execute filters the dataset on the node's input port.
func (f *Filter) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	ds, ok := ec.DatasetInput("input")
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}

	out, err := transform.Filter(ds, transform.ParseFilterConfig(ec.Config), nil)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}

	logger.Debug("Filtered dataset.", "in", len(ds.Rows), "out", len(out.Rows))
	return executor.Succeed(out)
}

// Register binds the "filter" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "filter", &Filter{})
}
