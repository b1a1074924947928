package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Default port names used when a connection endpoint omits the port part.
const (
	DefaultOutputPort = "output"
	DefaultInputPort  = "input"
)

// nameRegex constrains node ids and port names to the same shape node labels
// take in definition files.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidName reports whether s is usable as a node id or port name.
func ValidName(s string) bool {
	return nameRegex.MatchString(s)
}

// PortRef is an endpoint reference of the form "node" or "node.port".
type PortRef struct {
	Node string
	Port string
}

// ParsePortRef parses an endpoint reference. The port segment is optional;
// defaultPort fills it when absent. "raw.output" and "raw" (with defaultPort
// "output") parse to the same reference.
func ParsePortRef(raw, defaultPort string) (PortRef, error) {
	if raw == "" {
		return PortRef{}, fmt.Errorf("endpoint reference cannot be empty")
	}

	node, port := raw, defaultPort
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		node, port = raw[:i], raw[i+1:]
	}
	if !nameRegex.MatchString(node) {
		return PortRef{}, fmt.Errorf("invalid node reference %q: node id must match %s", raw, nameRegex.String())
	}
	if !nameRegex.MatchString(port) {
		return PortRef{}, fmt.Errorf("invalid port reference %q: port name must match %s", raw, nameRegex.String())
	}
	return PortRef{Node: node, Port: port}, nil
}

// String renders the canonical "node.port" form.
func (r PortRef) String() string {
	return r.Node + "." + r.Port
}
