package json_source

import (
	"context"
	"os"

	"github.com/bytedance/sonic"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/ingest"
)

// Module implements the executor.Module interface for this package.
type Module struct{}

// Source is the "json" node executor. It parses a JSON array, or an
// object wrapping a single array, into a dataset.
type Source struct{}

// Validate checks the source configuration; inline text is additionally
// checked for JSON well-formedness since that needs no I/O.
func (s *Source) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	text, _ := ec.StringConfig("text")
	path, _ := ec.StringConfig("path")
	if text == "" && path == "" {
		vr.AddError("text", "Either text or path is required", executor.CodeRequiredField)
		return vr
	}
	if text != "" && path != "" {
		vr.AddWarning("path", "Both text and path are set; text takes precedence")
	}
	if text != "" && !sonic.Valid([]byte(text)) {
		vr.AddError("text", "Text is not valid JSON", executor.CodeInvalidJSON)
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

	ds, err := ingest.ParseJSON(data)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}
	if ds.Meta.Source != nil {
		ds.Meta.Source.Descriptor = origin
	}

	logger.Debug("Parsed JSON source.", "origin", origin, "rows", ds.Meta.RowCount, "columns", ds.Meta.ColumnCount)
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

// Register binds the "json" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	r.Register(ctx, "json", &Source{})
}
