package sorter

import (
	"context"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/transform"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// Sorter is the "sort" node executor: a stable multi-key sort over the
// input dataset.
type Sorter struct{}

// Validate checks the sort key configuration.
func (s *Sorter) Validate(ec *executor.Context) *executor.ValidationResult {
	return transform.ValidateSortConfig(ec.Config)
}

// Execute sorts the dataset on the node's input port.
func (s *Sorter) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	ds, ok := ec.DatasetInput("input")
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}

	out, err := transform.Sort(ds, transform.ParseSortConfig(ec.Config), nil)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}

	logger.Debug("Sorted dataset.", "rows", len(out.Rows))
	return executor.Succeed(out)
}

// Register binds the "sort" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "sort", &Sorter{})
}
