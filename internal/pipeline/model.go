// Package pipeline defines the user-authored pipeline model: node instances,
// the typed-port connections between them, and the pipeline that owns both.
// This is the format-agnostic form every loader produces and the graph
// builder consumes.
package pipeline

// Status is a node's last observed execution state. Only the runner writes
// it; everything else treats it as display data.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Position is a node's placement on the editing canvas. The engine never
// reads it; it round-trips for tools that do.
type Position struct {
	X float64
	Y float64
}

// NodeInstance is one configured node of a pipeline. ID is unique and stable
// for the session; Type selects the registered executor; Config is the
// free-form key/value map that executor consumes.
type NodeInstance struct {
	ID       string
	Type     string
	Position Position
	Config   map[string]any

	// Status and LastError are runner-owned execution state.
	Status    Status
	LastError string
}

// Connection wires one node's output port to another node's input port.
// The (Source, SourceHandle, Target, TargetHandle) tuple is unique within a
// pipeline; duplicate tuples are rejected even when their IDs differ.
type Connection struct {
	ID           string
	Source       string // NodeInstance id
	SourceHandle string // output port name
	Target       string // NodeInstance id
	TargetHandle string // input port name
}

// Tuple returns the identity of the connection independent of its ID, used
// for duplicate detection.
func (c *Connection) Tuple() [4]string {
	return [4]string{c.Source, c.SourceHandle, c.Target, c.TargetHandle}
}

// Pipeline is one loaded definition set: the nodes and connections handed to
// the graph builder on each run request.
type Pipeline struct {
	Name        string
	Description string
	Nodes       []*NodeInstance
	Connections []*Connection
}

// Node returns the node with the given id, or nil.
func (p *Pipeline) Node(id string) *NodeInstance {
	for _, n := range p.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}
