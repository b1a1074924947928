package executor

import (
	"context"
	"sort"
	"sync"

	"github.com/vk/gridflow/internal/ctxlog"
)

// Module is the interface all node modules implement to be registered.
type Module interface {
	Register(ctx context.Context, r *Registry)
}

// Registry maps node type names to executors for a single application
// instance. All operations are concurrency-safe.
type Registry struct {
	mutex     sync.RWMutex
	executors map[string]Executor
}

// NewRegistry creates and initializes an empty Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]Executor),
	}
}

// Register binds an executor to a node type name. Re-registering a type
// replaces the previous executor; the last registration wins.
func (r *Registry) Register(ctx context.Context, nodeType string, exec Executor) {
	logger := ctxlog.FromContext(ctx)
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.executors[nodeType]; exists {
		logger.Warn("Node type already registered, replacing executor.", "type", nodeType)
	}
	logger.Debug("Registering node executor.", "type", nodeType)
	r.executors[nodeType] = exec
}

// Unregister removes the executor for a node type, if present.
func (r *Registry) Unregister(nodeType string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.executors, nodeType)
}

// Get returns the executor bound to a node type.
func (r *Registry) Get(nodeType string) (Executor, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	exec, ok := r.executors[nodeType]
	return exec, ok
}

// Has reports whether a node type is registered.
func (r *Registry) Has(nodeType string) bool {
	_, ok := r.Get(nodeType)
	return ok
}

// Types returns all registered node type names in lexical order.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	types := make([]string, 0, len(r.executors))
	for t := range r.executors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clear removes every registration.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.executors = make(map[string]Executor)
}
