package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dataset"
	"github.com/vk/gridflow/internal/transform"
)

// Handle executes one offloaded request and emits zero or more progress
// responses followed by exactly one terminal response, all keyed by the
// request id. Panics inside an operation become error responses.
func Handle(ctx context.Context, req *Request, emit func(*Response)) {
	logger := ctxlog.FromContext(ctx).With("request_id", req.ID, "op", req.Op)
	logger.Debug("Worker handling request.")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker operation panicked.", "panic", r, "stack", string(debug.Stack()))
			emit(errorResponse(req.ID, fmt.Sprintf("panic: %v", r)))
		}
	}()

	progress := func(done, total int) {
		emit(progressResponse(req.ID, done, total))
	}

	out, err := runOperation(req.Op, req.Payload, progress)
	if err != nil {
		logger.Debug("Worker request failed.", "error", err)
		emit(errorResponse(req.ID, err.Error()))
		return
	}

	logger.Debug("Worker request complete.", "rows", out.Meta.RowCount)
	emit(&Response{ID: req.ID, Kind: KindSuccess, Payload: ResponsePayload{Dataset: out}})
}

// runOperation dispatches one op. The transform op threads the running
// dataset through its steps in order.
func runOperation(op string, payload RequestPayload, progress transform.Progress) (*dataset.Dataset, error) {
	ds := payload.Dataset
	if op == OpTransform {
		for i, step := range payload.Operations {
			out, err := applyStep(step.Type, ds, step.config(), progress)
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Type, err)
			}
			ds = out
		}
		if ds == nil {
			return nil, errors.New("No input dataset provided")
		}
		return ds, nil
	}
	return applyStep(op, ds, payload.config(), progress)
}

func applyStep(op string, ds *dataset.Dataset, conf map[string]any, progress transform.Progress) (*dataset.Dataset, error) {
	switch op {
	case OpFilter:
		return transform.Filter(ds, transform.ParseFilterConfig(conf), progress)
	case OpSort:
		return transform.Sort(ds, transform.ParseSortConfig(conf), progress)
	case OpGroup:
		return transform.Group(ds, transform.ParseGroupConfig(conf), progress)
	case OpAggregate:
		cfg := transform.ParseGroupConfig(conf)
		cfg.Columns = nil
		return transform.Group(ds, cfg, progress)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func errorResponse(id, msg string) *Response {
	return &Response{ID: id, Kind: KindError, Payload: ResponsePayload{Error: msg}}
}

func progressResponse(id string, done, total int) *Response {
	percent := 100.0
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}
	return &Response{
		ID:   id,
		Kind: KindProgress,
		Payload: ResponsePayload{
			Progress: &ProgressInfo{Processed: done, Total: total, Percent: percent},
		},
	}
}
