package s3_upload

import (
	"bytes"
	"context"
	"net/http"
	"net/url"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/ingest"
)

// Module implements the executor.Module interface for this package.
// Client, when set, replaces the default HTTP client for uploads.
type Module struct {
	Client ingest.Doer
}

// Shared client so repeated uploads reuse TCP connections.
var httpClient = &http.Client{}

// Uploader is the "s3_upload" sink executor. It encodes the input
// dataset as CSV and PUTs it to a pre-signed URL.
type Uploader struct {
	client ingest.Doer
}

// Validate checks the upload target configuration.
func (u *Uploader) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	rawURL, _ := ec.StringConfig("upload_url")
	if rawURL == "" {
		vr.AddError("upload_url", "Upload URL is required", executor.CodeRequiredField)
	} else if u, err := url.Parse(rawURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		vr.AddError("upload_url", "Upload URL must be a valid http or https address", executor.CodeInvalidURL)
	}
	return vr
}

// Execute uploads the input dataset.
func (u *Uploader) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	ds, ok := ec.DatasetInput("input")
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}
	uploadURL, _ := ec.StringConfig("upload_url")
	if uploadURL == "" {
		return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Upload URL is required")
	}

	payload, err := ingest.WriteCSV(ds)
	if err != nil {
		return executor.Failf(ec.NodeID, executor.ErrTypeExecution, "failed to encode dataset: %v", err)
	}

	contentType, _ := ec.StringConfig("content_type")
	if contentType == "" {
		contentType = "text/csv"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(payload))
	if err != nil {
		return executor.Failf(ec.NodeID, executor.ErrTypeExecution, "failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(payload))

	logger.Info("Uploading dataset", "size", len(payload), "contentType", contentType)

	client := u.client
	if client == nil {
		client = httpClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return executor.Failf(ec.NodeID, executor.ErrTypeExecution, "failed to execute upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return executor.Failf(ec.NodeID, executor.ErrTypeExecution, "upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded dataset", "status", resp.Status)
	return executor.Succeed(map[string]any{
		"success": true,
		"status":  resp.Status,
		"bytes":   len(payload),
	})
}

// Register binds the "s3_upload" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	client := m.Client
	if client == nil {
		client = httpClient
	}
	r.Register(ctx, "s3_upload", &Uploader{client: client})
}
