// Package graph builds the derived execution graph for one pipeline:
// dependency and dependent sets per node, cycle validation, level
// assignment, and a topological execution order.
//
// A built Graph is immutable. Scheduling progress (which nodes have
// completed so far) is owned by the caller and passed into every query,
// so the same graph can back an event-driven runner and a level-driven
// runner at once.
package graph
