package csv_source

import (
	"context"
	"os"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/ingest"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// Source is the "csv" node executor. It parses delimiter-separated
// text, supplied inline or read from a file, into a dataset.
type Source struct{}

// Validate checks that the node has a text or path to read from.
func (s *Source) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	text, _ := ec.StringConfig("text")
	path, _ := ec.StringConfig("path")
	if text == "" && path == "" {
		vr.AddError("text", "Either text or path is required", executor.CodeRequiredField)
	}
	if text != "" && path != "" {
		vr.AddWarning("path", "Both text and path are set; text takes precedence")
	}
	if d, ok := ec.StringConfig("delimiter"); ok && len([]rune(d)) > 1 {
		vr.AddWarning("delimiter", "Only the first character of delimiter is used")
	}
	return vr
}

// Execute parses the configured source into a dataset.
func (s *Source) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	data, origin, res := sourceBytes(ec)
	if res != nil {
		return res
	}

	delim := ','
	if d, ok := ec.StringConfig("delimiter"); ok && d != "" {
		delim = []rune(d)[0]
	}
	hasHeader := ec.BoolConfig("has_header", true)

	ds, err := ingest.ParseDelimited(data, delim, hasHeader)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}
	if ds.Meta.Source != nil {
		ds.Meta.Source.Descriptor = origin
	}

	logger.Debug("Parsed delimited source.", "origin", origin, "rows", ds.Meta.RowCount, "columns", ds.Meta.ColumnCount)
	return executor.Succeed(ds)
}

// sourceBytes resolves the raw bytes to parse, preferring inline text
// over a file path.
func sourceBytes(ec *executor.Context) ([]byte, string, *executor.Result) {
	if text, ok := ec.StringConfig("text"); ok && text != "" {
		return []byte(text), "inline", nil
	}
	path, ok := ec.StringConfig("path")
	if !ok || path == "" {
		return nil, "", executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Either text or path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", executor.Failf(ec.NodeID, executor.ErrTypeExecution, "failed to read %q: %v", path, err)
	}
	return data, path, nil
}

// Register binds the "csv" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "csv", &Source{})
}
