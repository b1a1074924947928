package hclspec

import (
	"github.com/hashicorp/hcl/v2"
)

// ConfigBlock holds the free-form attribute body of a node's config
// block. Attributes are evaluated as literals and handed to executors
// as a plain map.
type ConfigBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// NodeBlock is a `node "<type>" "<id>"` block from a definition file.
type NodeBlock struct {
	Type   string       `hcl:"node_type,label"`
	ID     string       `hcl:"instance_id,label"`
	X      float64      `hcl:"x,optional"`
	Y      float64      `hcl:"y,optional"`
	Config *ConfigBlock `hcl:"config,block"`
}

// ConnectBlock wires two node ports. Endpoints are "node" or
// "node.port" references; omitted ports default to "output" on the
// from side and "input" on the to side.
type ConnectBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// PipelineBlock names and describes the pipeline a file contributes to.
type PipelineBlock struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}

// File is the top-level structure of one pipeline definition file.
type File struct {
	Pipelines []*PipelineBlock `hcl:"pipeline,block"`
	Nodes     []*NodeBlock     `hcl:"node,block"`
	Connects  []*ConnectBlock  `hcl:"connect,block"`
}
