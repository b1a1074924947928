package group_by

import (
	"context"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/transform"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// GroupBy is the "group" node executor: it buckets input rows by the
// configured columns and aggregates each bucket.
type GroupBy struct{}

// Validate checks the grouping and aggregation configuration.
func (g *GroupBy) Validate(ec *executor.Context) *executor.ValidationResult {
	return transform.ValidateGroupConfig(ec.Config)
}

// Execute groups the dataset on the node's input port.
func (g *GroupBy) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	ds, ok := ec.DatasetInput("input")
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}

	out, err := transform.Group(ds, transform.ParseGroupConfig(ec.Config), nil)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}

	logger.Debug("Grouped dataset.", "in", len(ds.Rows), "groups", len(out.Rows))
	return executor.Succeed(out)
}

// Register binds the "group" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "group", &GroupBy{})
}
