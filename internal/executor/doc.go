// Package executor defines the contract every node executor fulfills:
// pure configuration validation plus a context-aware execute step, a
// panic-absorbing wrapper around execute, and the registry that maps
// node type names to executor implementations.
package executor
