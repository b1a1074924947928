// Package hclspec loads .hcl pipeline definition files into the
// format-agnostic pipeline model. A definition is a set of node blocks
// plus connect blocks wiring their ports; files found under one root
// merge into a single pipeline.
package hclspec
