package worker

import (
	"github.com/vk/gridflow/internal/dataset"
)

// Offloadable operation names.
const (
	OpFilter    = "filter"
	OpSort      = "sort"
	OpGroup     = "group"
	OpAggregate = "aggregate"
	OpTransform = "transform"
)

// Response kinds. Zero or more progress messages precede exactly one
// terminal success or error message per request id.
const (
	KindSuccess  = "success"
	KindError    = "error"
	KindProgress = "progress"
)

// Request asks the worker to run one operation. ID correlates every
// message produced for this request.
type Request struct {
	ID      string         `json:"id"`
	Op      string         `json:"op"`
	Payload RequestPayload `json:"payload"`
}

// RequestPayload carries the operation input. Filter configuration
// travels in Conditions; sort, group and aggregate configuration in
// Config; the transform operation carries its step list in Operations.
type RequestPayload struct {
	Dataset    *dataset.Dataset `json:"dataset,omitempty"`
	Conditions map[string]any   `json:"conditions,omitempty"`
	Config     map[string]any   `json:"config,omitempty"`
	Operations []Operation      `json:"operations,omitempty"`
}

// Operation is one step of a multi-step transform request, applied in
// order to the running dataset.
type Operation struct {
	Type       string         `json:"type"`
	Conditions map[string]any `json:"conditions,omitempty"`
	Config     map[string]any `json:"config,omitempty"`
}

// config returns whichever configuration map the payload carries.
func (p RequestPayload) config() map[string]any {
	if p.Conditions != nil {
		return p.Conditions
	}
	return p.Config
}

func (o Operation) config() map[string]any {
	if o.Conditions != nil {
		return o.Conditions
	}
	return o.Config
}

// Response is one message produced by the worker for a request id.
type Response struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload ResponsePayload `json:"payload"`
}

// ResponsePayload carries the terminal dataset, the terminal error
// message, or a progress report, depending on the response kind.
type ResponsePayload struct {
	Dataset  *dataset.Dataset `json:"dataset,omitempty"`
	Error    string           `json:"error,omitempty"`
	Progress *ProgressInfo    `json:"progress,omitempty"`
}

// ProgressInfo is an advisory report of scan progress.
type ProgressInfo struct {
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Transport moves requests to a worker and responses back. Responses
// for different ids may interleave freely; within one id the transport
// must preserve emission order.
type Transport interface {
	Send(req *Request) error
	Responses() <-chan *Response
	Close() error
}
