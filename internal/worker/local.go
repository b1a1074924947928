package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/vk/gridflow/internal/ctxlog"
)

// Pool is an in-process worker: a goroutine pool consuming requests
// from a channel and emitting responses on another. It satisfies
// Transport, so callers cannot tell it apart from a remote worker.
type Pool struct {
	requests  chan *Request
	responses chan *Response

	mutex  sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// StartPool launches a worker pool. A non-positive worker count falls
// back to the number of CPUs.
func StartPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		requests:  make(chan *Request, 16),
		responses: make(chan *Response, 64),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.responses)
	}()
	return p
}

// worker is the processing loop for a single concurrent worker.
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "worker_id", workerID)

	for req := range p.requests {
		if ctx.Err() != nil {
			p.responses <- errorResponse(req.ID, "worker shutting down")
			continue
		}
		Handle(ctx, req, func(resp *Response) {
			p.responses <- resp
		})
	}
	logger.Debug("Worker finished.", "worker_id", workerID)
}

// Send queues a request for execution.
func (p *Pool) Send(req *Request) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return errors.New("worker pool is closed")
	}
	p.requests <- req
	return nil
}

// Responses returns the channel of worker responses. It is closed once
// the pool has shut down and drained.
func (p *Pool) Responses() <-chan *Response {
	return p.responses
}

// Close stops accepting requests; queued requests still complete.
func (p *Pool) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.requests)
	return nil
}
