package http_source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/ingest"
)

// Module implements the executor.Module interface for this package.
// Client, when set, replaces the default HTTP client for every request
// the node makes; the application injects its shared client here.
type Module struct {
	Client ingest.Doer
}

var defaultClient = &http.Client{}

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodPatch:  {},
	http.MethodHead:   {},
}

// Source is the "http" node executor. It fetches a URL and infers a
// dataset from the response shape.
type Source struct {
	client ingest.Doer
}

// Validate checks the request configuration against the validation
// matrix: URL scheme, method, header types, timeout range.
func (s *Source) Validate(ec *executor.Context) *executor.ValidationResult {
	vr := executor.NewValidationResult()

	rawURL, _ := ec.StringConfig("url")
	if rawURL == "" {
		vr.AddError("url", "URL is required", executor.CodeRequiredField)
	} else if u, err := url.Parse(rawURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		vr.AddError("url", "URL must be a valid http or https address", executor.CodeInvalidURL)
	}

	if method, ok := ec.StringConfig("method"); ok && method != "" {
		if _, allowed := allowedMethods[strings.ToUpper(method)]; !allowed {
			vr.AddError("method", "Method must be one of GET, POST, PUT, DELETE, PATCH, HEAD", executor.CodeInvalidMethod)
		}
	}

	if raw, ok := ec.Config["headers"]; ok {
		if _, valid := headerMap(raw); !valid {
			vr.AddError("headers", "Headers must be a map of string values", executor.CodeInvalidHeaders)
		}
	}

	if raw, ok := ec.Config["timeout_ms"]; ok {
		if ms, valid := asMillis(raw); !valid || ms <= 0 {
			vr.AddError("timeout_ms", "Timeout must be a positive number of milliseconds", executor.CodeInvalidTimeout)
		}
	}

	return vr
}

// Execute performs the request and converts the response body into a
// dataset.
func (s *Source) Execute(ctx context.Context, ec *executor.Context) *executor.Result {
	logger := ctxlog.FromContext(ctx).With("node", ec.NodeID)

	rawURL, _ := ec.StringConfig("url")
	if rawURL == "" {
		return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "URL is required")
	}

	spec := ingest.RequestSpec{URL: rawURL}
	if method, ok := ec.StringConfig("method"); ok && method != "" {
		spec.Method = strings.ToUpper(method)
	}
	if body, ok := ec.StringConfig("body"); ok {
		spec.Body = body
	}
	if raw, ok := ec.Config["headers"]; ok {
		if headers, valid := headerMap(raw); valid {
			spec.Headers = headers
		} else {
			return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Headers must be a map of string values")
		}
	}
	if raw, ok := ec.Config["timeout_ms"]; ok {
		ms, valid := asMillis(raw)
		if !valid || ms <= 0 {
			return executor.Fail(ec.NodeID, executor.ErrTypeConfiguration, "Timeout must be a positive number of milliseconds")
		}
		spec.Timeout = time.Duration(ms) * time.Millisecond
	}

	client := s.client
	if client == nil {
		client = defaultClient
	}

	logger.Debug("Fetching dataset over HTTP.", "url", spec.URL, "method", spec.Method)
	ds, err := ingest.FetchDataset(ctx, client, spec)
	if err != nil {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}
	return executor.Succeed(ds)
}

// headerMap coerces a decoded headers config value into string pairs.
func headerMap(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			s, ok := val.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// asMillis coerces a decoded timeout config value into milliseconds.
func asMillis(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// Register binds the "http" node type.
func (m *Module) Register(ctx context.Context, r *executor.Registry) {
	client := m.Client
	if client == nil {
		client = defaultClient
	}
	r.Register(ctx, "http", &Source{client: client})
}
