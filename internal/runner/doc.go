// Package runner drives one pipeline run: it builds the execution
// graph, seeds a worker pool with the root nodes, and unlocks
// dependents as their upstream outputs complete. Node statuses and the
// per-node results are written only by the coordinating goroutine.
package runner
