package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"

	"github.com/vk/gridflow/internal/dataset"
)

// Doer issues HTTP requests. *http.Client satisfies it; tests inject
// their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestSpec describes one HTTP fetch issued by an ingestion node.
type RequestSpec struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration
}

// FetchDataset performs the request and derives a dataset from the
// response. Timeouts and other transport failures error with
// distinguishable prefixes ("request timed out", "network error");
// a non-2xx status errors with the code and reason phrase.
func FetchDataset(ctx context.Context, client Doer, spec RequestSpec) (*dataset.Dataset, error) {
	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	var body io.Reader
	if spec.Body != "" {
		body = strings.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, spec.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("request timed out: %w", err)
		}
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("network error: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %s", statusLine(resp))
	}

	ds, err := datasetFromResponse(payload, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	ds.Meta.Source = &dataset.SourceInfo{Kind: "http", Descriptor: spec.URL}
	return ds, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusLine(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// datasetFromResponse routes a response body by content type: JSON gets
// shape inference, delimited text goes to the CSV/TSV parser (header
// row assumed), anything else becomes a single value cell.
func datasetFromResponse(payload []byte, contentType string) (*dataset.Dataset, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		return InferShape(payload)
	case strings.Contains(ct, "text/csv"):
		return ParseCSV(payload, true)
	case strings.Contains(ct, "text/tab-separated-values"):
		return ParseTSV(payload, true)
	default:
		return valueDataset(string(payload)), nil
	}
}

// InferShape derives a dataset from decoded JSON: an array of objects
// keys a column union; an array of primitives fills a single "value"
// column; an envelope object (exactly one array-valued top-level
// property) unwraps to its array; any other object renders as key/value
// rows, nested values keeping their JSON text; a bare scalar becomes a
// single value cell.
func InferShape(payload []byte) (*dataset.Dataset, error) {
	root, err := sonic.Get(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch root.Type() {
	case ast.V_ARRAY:
		return arrayToDataset(&root, "http")
	case ast.V_OBJECT:
		if arr, ok, err := envelopeArray(&root); err != nil {
			return nil, err
		} else if ok {
			return arrayToDataset(arr, "http")
		}
		return keyValueDataset(&root, "http")
	default:
		return valueDataset(nodeValue(&root)), nil
	}
}

func valueDataset(v any) *dataset.Dataset {
	return dataset.New([]string{"value"}, [][]any{{v}}, &dataset.SourceInfo{Kind: "http"})
}
