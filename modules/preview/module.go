package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dataset"
	"github.com/vk/gridflow/internal/executor"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

const defaultLimit = 10

// Preview is the "preview" sink executor. It prints the head of the
// input dataset and passes the dataset through unchanged, so it can
// be spliced into any edge of a pipeline.
type Preview struct{}

// Validate checks the row limit when one is configured.
func (p *Preview) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()
	if raw, ok := ec.Config["limit"]; ok {
		switch n := raw.(type) {
		case int:
			if n <= 0 {
				vr.AddError("limit", "Limit must be a positive number", executor.CodeInvalidType)
			}
		case int64:
			if n <= 0 {
				vr.AddError("limit", "Limit must be a positive number", executor.CodeInvalidType)
			}
		case float64:
			if n <= 0 {
				vr.AddError("limit", "Limit must be a positive number", executor.CodeInvalidType)
			}
		default:
			vr.AddError("limit", "Limit must be a positive number", executor.CodeInvalidType)
		}
	}
	return vr
}

// Execute renders the dataset head to standard output.
func (p *Preview) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	ds, ok := ec.DatasetInput("input")
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}

	limit := ec.IntConfig("limit", defaultLimit)
	if limit <= 0 {
		return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Limit must be a positive number")
	}

	logger.Info("Previewing dataset", "rows", len(ds.Rows), "columns", len(ds.Columns), "limit", limit)
	fmt.Print(RenderHead(ds, limit))

	return executor.Succeed(ds)
}

// RenderHead renders the first limit rows as an aligned text table.
func RenderHead(ds *dataset.Dataset, limit int) string {
	show := len(ds.Rows)
	if show > limit {
		show = limit
	}

	widths := make([]int, len(ds.Columns))
	for i, col := range ds.Columns {
		widths[i] = len(col)
	}
	for _, row := range ds.Rows[:show] {
		for i := range ds.Columns {
			if w := len(cellText(ds, row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	last := len(ds.Columns) - 1
	var b strings.Builder
	for i, col := range ds.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		if i == last {
			b.WriteString(col)
		} else {
			fmt.Fprintf(&b, "%-*s", widths[i], col)
		}
	}
	b.WriteByte('\n')
	for i := range ds.Columns {
		if i > 0 {
			b.WriteString("-+-")
		}
		b.WriteString(strings.Repeat("-", widths[i]))
	}
	b.WriteByte('\n')

	for _, row := range ds.Rows[:show] {
		for i := range ds.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			if i == last {
				b.WriteString(cellText(ds, row, i))
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], cellText(ds, row, i))
			}
		}
		b.WriteByte('\n')
	}

	if hidden := len(ds.Rows) - show; hidden > 0 {
		fmt.Fprintf(&b, "... (%d more rows)\n", hidden)
	}
	return b.String()
}

func cellText(ds *dataset.Dataset, row []any, col int) string {
	v := ds.Cell(row, col)
	if v == nil {
		return "(null)"
	}
	return dataset.ToString(v)
}

// Register binds the "preview" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "preview", &Preview{})
}
