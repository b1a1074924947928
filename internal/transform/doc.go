// Package transform implements the row-level dataset algorithms shared
// by the transform node executors and the offload worker: filtering
// with composable conditions, stable multi-key sorting, and
// group-by/aggregation. Every function treats its input dataset as
// immutable and produces a new one.
package transform
