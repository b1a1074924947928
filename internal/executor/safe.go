package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
)

// SafeExecute runs an executor with panic isolation and timing. A panic
// inside Execute becomes a failed Result with an EXECUTION_ERROR; the
// recovered value and stack are logged, never re-raised. The returned
// Result always carries the measured ExecutionTime.
func SafeExecute(ctx context.Context, exec Executor, ec *Context) (res *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Executor panicked.",
				"node_id", ec.NodeID, "panic", r, "stack", string(debug.Stack()))
			res = Fail(ec.NodeID, ErrTypeExecution, fmt.Sprintf("panic: %v", r))
			res.ExecutionTime = time.Since(start)
		}
	}()

	res = exec.Execute(ctx, ec)
	if res == nil {
		res = Fail(ec.NodeID, ErrTypeExecution, "executor returned no result")
	}
	res.ExecutionTime = time.Since(start)
	return res
}
