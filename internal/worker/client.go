package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dataset"
)

// Client issues offloaded operations over a Transport and correlates
// interleaved responses back to callers. Multiple operations may be in
// flight concurrently; abandoned and unknown ids are dropped silently.
type Client struct {
	transport Transport

	mutex   sync.Mutex
	pending map[string]*pendingOp
}

type pendingOp struct {
	terminal   chan *Response
	onProgress func(ProgressInfo)
}

// NewClient wraps a transport and starts the response dispatch loop,
// which runs until the transport's response channel closes.
func NewClient(ctx context.Context, t Transport) *Client {
	c := &Client{
		transport: t,
		pending:   make(map[string]*pendingOp),
	}
	go c.dispatch(ctx)
	return c
}

// dispatch routes every transport response to its pending operation.
// A response for an id nobody is waiting on (stale terminal after the
// caller abandoned, or a duplicate delivery) is logged and dropped.
func (c *Client) dispatch(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for resp := range c.transport.Responses() {
		c.mutex.Lock()
		op, ok := c.pending[resp.ID]
		if ok && resp.Kind != KindProgress {
			delete(c.pending, resp.ID)
		}
		c.mutex.Unlock()

		if !ok {
			logger.Debug("Dropping response for unknown or abandoned id.", "id", resp.ID, "kind", resp.Kind)
			continue
		}

		if resp.Kind == KindProgress {
			if op.onProgress != nil && resp.Payload.Progress != nil {
				op.onProgress(*resp.Payload.Progress)
			}
			continue
		}
		op.terminal <- resp
	}
}

// Do runs one operation to completion. onProgress, when non-nil,
// receives advisory progress reports on the dispatch goroutine.
// Cancelling ctx abandons the operation: the call returns immediately
// and any late messages for its id are dropped.
func (c *Client) Do(ctx context.Context, op string, payload RequestPayload, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	id := uuid.NewString()
	pend := &pendingOp{terminal: make(chan *Response, 1), onProgress: onProgress}

	c.mutex.Lock()
	c.pending[id] = pend
	c.mutex.Unlock()

	if err := c.transport.Send(&Request{ID: id, Op: op, Payload: payload}); err != nil {
		c.abandon(id)
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.abandon(id)
		return nil, ctx.Err()
	case resp := <-pend.terminal:
		if resp.Kind == KindError {
			return nil, errors.New(resp.Payload.Error)
		}
		return resp.Payload.Dataset, nil
	}
}

func (c *Client) abandon(id string) {
	c.mutex.Lock()
	delete(c.pending, id)
	c.mutex.Unlock()
}

// Filter offloads a filter operation.
func (c *Client) Filter(ctx context.Context, ds *dataset.Dataset, conditions map[string]any, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	return c.Do(ctx, OpFilter, RequestPayload{Dataset: ds, Conditions: conditions}, onProgress)
}

// Sort offloads a sort operation.
func (c *Client) Sort(ctx context.Context, ds *dataset.Dataset, config map[string]any, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	return c.Do(ctx, OpSort, RequestPayload{Dataset: ds, Config: config}, onProgress)
}

// Group offloads a group operation.
func (c *Client) Group(ctx context.Context, ds *dataset.Dataset, config map[string]any, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	return c.Do(ctx, OpGroup, RequestPayload{Dataset: ds, Config: config}, onProgress)
}

// Aggregate offloads a whole-table aggregation.
func (c *Client) Aggregate(ctx context.Context, ds *dataset.Dataset, config map[string]any, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	return c.Do(ctx, OpAggregate, RequestPayload{Dataset: ds, Config: config}, onProgress)
}

// Transform offloads an ordered multi-step transform.
func (c *Client) Transform(ctx context.Context, ds *dataset.Dataset, ops []Operation, onProgress func(ProgressInfo)) (*dataset.Dataset, error) {
	return c.Do(ctx, OpTransform, RequestPayload{Dataset: ds, Operations: ops}, onProgress)
}
