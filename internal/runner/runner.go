package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dataset"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/graph"
	"github.com/vk/gridflow/internal/pipeline"
	"github.com/vk/gridflow/internal/worker"
)

// DefaultWorkers bounds node concurrency when Options leaves it unset.
const DefaultWorkers = 4

// offloadable lists the node types the worker protocol can run.
var offloadable = map[string]bool{
	"filter": true,
	"sort":   true,
	"group":  true,
}

// Options configures a Runner.
type Options struct {
	// Workers is the number of nodes executing concurrently. Zero or
	// negative selects DefaultWorkers.
	Workers int

	// Offload, when set, routes filter, sort and group nodes through
	// the worker protocol instead of running them in-process.
	Offload *worker.Client
}

// Runner executes pipelines against a fixed executor registry.
type Runner struct {
	registry *executor.Registry
	workers  int
	offload  *worker.Client
}

// New creates a runner over the given executor registry.
func New(registry *executor.Registry, opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{registry: registry, workers: workers, offload: opts.Offload}
}

// job is one scheduled node execution. Inputs are resolved before
// dispatch so workers never read shared run state.
type job struct {
	node   *pipeline.NodeInstance
	inputs map[string]any
}

// nodeDone reports one finished node back to the coordinator.
type nodeDone struct {
	id  string
	res *executor.Result
}

// Run executes the pipeline and returns the per-node results. Nodes run
// as soon as all of their dependencies have succeeded; dependents of a
// failed node are never scheduled and stay idle, siblings are
// unaffected. The returned error summarizes failed nodes, or reports
// cancellation. A cyclic pipeline fails before any node executes.
func (r *Runner) Run(ctx context.Context, p *pipeline.Pipeline) (map[string]*executor.Result, error) {
	ctx = ctxlog.With(ctx, "pipeline", p.Name)
	logger := ctxlog.FromContext(ctx)

	g, err := graph.Build(ctx, p.Nodes, p.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to build execution graph: %w", err)
	}

	jobs := make(chan *job, len(p.Nodes))
	done := make(chan nodeDone, len(p.Nodes))
	defer close(jobs)

	logger.Debug("Starting worker pool.", "workers", r.workers)
	for i := 0; i < r.workers; i++ {
		go r.worker(ctx, i, jobs, done)
	}

	results := make(map[string]*executor.Result)
	outputs := make(map[string]any)
	completed := make(map[string]struct{})

	inFlight := 0
	schedule := func(id string) {
		node := p.Node(id)
		node.Status = pipeline.StatusProcessing
		node.LastError = ""
		inFlight++
		jobs <- &job{node: node, inputs: resolveInputs(p, id, outputs)}
	}

	roots := g.ParallelExecutableNodes(0)
	logger.Debug("Seeding ready queue with root nodes.", "count", len(roots))
	for _, id := range roots {
		schedule(id)
	}

	var failed []string
	cancelled := false
	ctxDone := ctx.Done()

	for inFlight > 0 {
		select {
		case <-ctxDone:
			logger.Warn("Run context cancelled, waiting for in-flight nodes.")
			ctxDone = nil
			cancelled = true
		case d := <-done:
			inFlight--
			results[d.id] = d.res
			node := p.Node(d.id)

			if !d.res.Success {
				node.Status = pipeline.StatusError
				node.LastError = d.res.Err.Message
				failed = append(failed, d.id)
				logger.Error("Node failed.", "node_id", d.id, "error_type", d.res.Err.Type, "error", d.res.Err.Message)
				continue
			}

			node.Status = pipeline.StatusSuccess
			outputs[d.id] = d.res.Output
			logger.Debug("Node succeeded.", "node_id", d.id, "duration", d.res.ExecutionTime)

			ready := g.NewlyExecutable(d.id, completed)
			completed[d.id] = struct{}{}

			if !cancelled && ctx.Err() != nil {
				cancelled = true
			}
			if cancelled {
				continue
			}
			for _, id := range ready {
				logger.Debug("Unlocking dependent node.", "node_id", id)
				schedule(id)
			}
		}
	}

	if cancelled {
		return results, fmt.Errorf("pipeline run cancelled: %w", ctx.Err())
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return results, fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), results[failed[0]].Err)
	}
	logger.Info("Pipeline run complete.", "nodes", len(results))
	return results, nil
}

// worker is the processing loop for one concurrent worker.
func (r *Runner) worker(ctx context.Context, workerID int, jobs <-chan *job, done chan<- nodeDone) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "worker_id", workerID)
	for j := range jobs {
		logger.Debug("Worker picked up node.", "worker_id", workerID, "node_id", j.node.ID)
		done <- nodeDone{id: j.node.ID, res: r.execute(ctx, j)}
	}
	logger.Debug("Worker finished.", "worker_id", workerID)
}

// execute runs one node through validation and its executor, or through
// the offload client for transform nodes when offload is configured.
func (r *Runner) execute(ctx context.Context, j *job) *executor.Result {
	node := j.node

	exec, ok := r.registry.Get(node.Type)
	if !ok {
		return executor.Failf(node.ID, executor.ErrTypeConfiguration, "unknown node type %q", node.Type)
	}

	ec := executor.NewContext(node.ID, j.inputs, node.Config)

	if vr := exec.Validate(ec); !vr.Valid {
		return executor.Fail(node.ID, executor.ErrTypeValidation, joinValidationErrors(vr))
	}

	if r.offload != nil && offloadable[node.Type] {
		return r.offloadExecute(ctx, node.Type, ec)
	}
	return executor.SafeExecute(ctx, exec, ec)
}

// offloadExecute runs a transform node through the worker protocol.
func (r *Runner) offloadExecute(ctx context.Context, nodeType string, ec *executor.Context) *executor.Result {
	start := time.Now()

	ds, ok := ec.DatasetInput(pipeline.DefaultInputPort)
	if !ok {
		return executor.Fail(ec.NodeID, executor.ErrTypeExecution, "No input dataset provided")
	}

	logger := ctxlog.FromContext(ctx)
	onProgress := func(p worker.ProgressInfo) {
		logger.Debug("Offload progress.", "node_id", ec.NodeID, "processed", p.Processed, "total", p.Total)
	}

	var out *dataset.Dataset
	var err error
	switch nodeType {
	case "filter":
		out, err = r.offload.Filter(ctx, ds, ec.Config, onProgress)
	case "sort":
		out, err = r.offload.Sort(ctx, ds, ec.Config, onProgress)
	case "group":
		out, err = r.offload.Group(ctx, ds, ec.Config, onProgress)
	default:
		err = fmt.Errorf("node type %q cannot be offloaded", nodeType)
	}

	res := executor.Succeed(out)
	if err != nil {
		res = executor.Fail(ec.NodeID, executor.ErrTypeExecution, err.Error())
	}
	res.ExecutionTime = time.Since(start)
	return res
}

// resolveInputs collects the upstream outputs feeding a node, keyed by
// input port. A non-default source handle selects a key from a
// map-valued output; anything else flows through whole.
func resolveInputs(p *pipeline.Pipeline, id string, outputs map[string]any) map[string]any {
	inputs := make(map[string]any)
	for _, conn := range p.Connections {
		if conn.Target != id {
			continue
		}
		out, ok := outputs[conn.Source]
		if !ok {
			continue
		}
		if conn.SourceHandle != pipeline.DefaultOutputPort {
			if m, isMap := out.(map[string]any); isMap {
				out = m[conn.SourceHandle]
			}
		}
		inputs[conn.TargetHandle] = out
	}
	return inputs
}

// joinValidationErrors flattens a validation result into one message.
func joinValidationErrors(vr *executor.ValidationResult) string {
	parts := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
