package inline_source

import (
	"context"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dataset"
	"github.com/vk/gridflow/internal/executor"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// Source is the "inline" node executor: a dataset written literally in
// node configuration, for demos and pipeline tests.
type Source struct{}

// Validate checks the literal column and row configuration.
func (s *Source) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	rawCols, ok := ec.Config["columns"]
	if !ok {
		vr.AddError("columns", "Columns are required", executor.CodeRequiredField)
	} else if cols, valid := stringList(rawCols); !valid {
		vr.AddError("columns", "Columns must be a list of strings", executor.CodeInvalidType)
	} else if len(cols) == 0 {
		vr.AddError("columns", "Columns are required", executor.CodeRequiredField)
	}

	if raw, ok := ec.Config["rows"]; ok {
		if _, valid := rowList(raw); !valid {
			vr.AddError("rows", "Rows must be a list of row lists", executor.CodeInvalidType)
		}
	}
	return vr
}

// Execute materializes the configured literal dataset.
func (s *Source) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	cols, ok := stringList(ec.Config["columns"])
	if !ok || len(cols) == 0 {
		return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Columns are required")
	}

	var rows [][]any
	if raw, present := ec.Config["rows"]; present {
		rows, ok = rowList(raw)
		if !ok {
			return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Rows must be a list of row lists")
		}
	}

	ds := dataset.New(cols, rows, &dataset.SourceInfo{Kind: "inline"})
	logger.Debug("Materialized inline dataset.", "rows", ds.Meta.RowCount, "columns", ds.Meta.ColumnCount)
	return executor.Succeed(ds)
}

// stringList coerces a decoded config value into a string slice.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// rowList coerces a decoded config value into rows of cells.
func rowList(v any) ([][]any, bool) {
	switch list := v.(type) {
	case [][]any:
		return list, true
	case []any:
		out := make([][]any, 0, len(list))
		for _, item := range list {
			row, ok := item.([]any)
			if !ok {
				return nil, false
			}
			out = append(out, row)
		}
		return out, true
	}
	return nil, false
}

// Register binds the "inline" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "inline", &Source{})
}
