package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Executor is the contract every node type implements. Validate is a
// pure function over configuration (no I/O, no side effects) so the
// same checks can run before execution and while editing a pipeline.
// Execute performs the node's work and must report failure through the
// returned Result, never by panicking past SafeExecute.
type Executor interface {
	Validate(ec *Context) *ValidationResult
	Execute(ctx context.Context, ec *Context) *Result
}

// Meta carries per-execution bookkeeping stamped when a Context is
// created.
type Meta struct {
	ExecutionID string
	StartTime   time.Time
}

// Context is the input to a single node execution: the node's identity,
// its configuration, and the outputs of upstream nodes keyed by input
// port name.
type Context struct {
	NodeID string
	Inputs map[string]any
	Config map[string]any
	Meta   Meta
}

// NewContext assembles an execution context for one node run, stamping
// a fresh execution ID and start time.
func NewContext(nodeID string, inputs, config map[string]any) *Context {
	if inputs == nil {
		inputs = map[string]any{}
	}
	if config == nil {
		config = map[string]any{}
	}
	return &Context{
		NodeID: nodeID,
		Inputs: inputs,
		Config: config,
		Meta: Meta{
			ExecutionID: uuid.NewString(),
			StartTime:   time.Now(),
		},
	}
}

// Input returns the value on the named input port, if connected.
func (ec *Context) Input(port string) (any, bool) {
	v, ok := ec.Inputs[port]
	return v, ok
}

// Error type tokens carried by NodeError.Type.
const (
	ErrTypeValidation    = "VALIDATION_ERROR"
	ErrTypeConfiguration = "CONFIGURATION_ERROR"
	ErrTypeExecution     = "EXECUTION_ERROR"
)

// NodeError describes a node-level failure in a form the runner can
// attach to the node instance and surface to callers.
type NodeError struct {
	Type    string
	Message string
	NodeID  string
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.NodeID, e.Type, e.Message)
}

// Result is the outcome of one node execution. Exactly one of Output
// and Err is populated, according to Success.
type Result struct {
	Success       bool
	Output        any
	Err           *NodeError
	ExecutionTime time.Duration
}

// Succeed builds a successful Result carrying the node's output.
func Succeed(output any) *Result {
	return &Result{Success: true, Output: output}
}

// Fail builds a failed Result with a typed node error.
func Fail(nodeID, errType, message string) *Result {
	return &Result{
		Success: false,
		Err:     &NodeError{Type: errType, Message: message, NodeID: nodeID},
	}
}

// Failf is Fail with a formatted message.
func Failf(nodeID, errType, format string, args ...any) *Result {
	return Fail(nodeID, errType, fmt.Sprintf(format, args...))
}
