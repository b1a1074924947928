// Package app wires the application together: logger, node module
// registry, pipeline loading, the offload transport, and the runner.
package app
