package hclspec

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/pipeline"
)

// Loader reads pipeline definition files into the pipeline model.
type Loader struct{}

// NewLoader creates a new pipeline definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadPath loads a pipeline from a single .hcl file, or from every
// .hcl file found recursively under a directory. Files merge into one
// pipeline; node ids must be unique across all of them.
func (l *Loader) LoadPath(ctx context.Context, path string) (*pipeline.Pipeline, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no .hcl pipeline files found under %s", path)
		}
	}
	return l.LoadFiles(ctx, files)
}

// LoadFiles loads and merges the given definition files in order.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*pipeline.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	p := &pipeline.Pipeline{}
	seen := make(map[string]string) // node id -> defining file
	tuples := make(map[[4]string]string)
	connCount := 0

	for _, path := range paths {
		file, err := decodeFile(ctx, parser, path)
		if err != nil {
			return nil, err
		}

		for _, pb := range file.Pipelines {
			if p.Name == "" {
				p.Name = pb.Name
				p.Description = pb.Description
				continue
			}
			logger.Warn("Ignoring extra pipeline block.", "file", path, "name", pb.Name)
		}

		for _, nb := range file.Nodes {
			if !pipeline.ValidName(nb.ID) {
				return nil, fmt.Errorf("%s: invalid node id %q", path, nb.ID)
			}
			if prev, dup := seen[nb.ID]; dup {
				return nil, fmt.Errorf("%s: duplicate node id %q (first defined in %s)", path, nb.ID, prev)
			}
			seen[nb.ID] = path

			config := map[string]any{}
			if nb.Config != nil {
				config, err = bodyToMap(nb.Config.Body)
				if err != nil {
					return nil, fmt.Errorf("%s: node %q: %w", path, nb.ID, err)
				}
			}
			p.Nodes = append(p.Nodes, &pipeline.NodeInstance{
				ID:       nb.ID,
				Type:     nb.Type,
				Position: pipeline.Position{X: nb.X, Y: nb.Y},
				Config:   config,
				Status:   pipeline.StatusIdle,
			})
		}

		for _, cb := range file.Connects {
			from, err := pipeline.ParsePortRef(cb.From, pipeline.DefaultOutputPort)
			if err != nil {
				return nil, fmt.Errorf("%s: connect from: %w", path, err)
			}
			to, err := pipeline.ParsePortRef(cb.To, pipeline.DefaultInputPort)
			if err != nil {
				return nil, fmt.Errorf("%s: connect to: %w", path, err)
			}

			connCount++
			conn := &pipeline.Connection{
				ID:           fmt.Sprintf("c%d", connCount),
				Source:       from.Node,
				SourceHandle: from.Port,
				Target:       to.Node,
				TargetHandle: to.Port,
			}
			if prev, dup := tuples[conn.Tuple()]; dup {
				return nil, fmt.Errorf("%s: duplicate connection %s -> %s (first defined in %s)", path, from, to, prev)
			}
			tuples[conn.Tuple()] = path
			p.Connections = append(p.Connections, conn)
		}
	}

	// Endpoint checks run after the merge so connections may reference
	// nodes defined in a later file.
	for _, conn := range p.Connections {
		if _, ok := seen[conn.Source]; !ok {
			return nil, fmt.Errorf("connection %s references unknown source node %q", conn.ID, conn.Source)
		}
		if _, ok := seen[conn.Target]; !ok {
			return nil, fmt.Errorf("connection %s references unknown target node %q", conn.ID, conn.Target)
		}
	}

	logger.Debug("Loaded pipeline definition.", "files", len(paths), "nodes", len(p.Nodes), "connections", len(p.Connections))
	return p, nil
}

// decodeFile parses and decodes a single definition file.
func decodeFile(ctx context.Context, parser *hclparse.Parser, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding pipeline file.", "path", path)

	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	var file File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	logger.Debug("Decoded pipeline file.", "path", path, "nodes_found", len(file.Nodes), "connections_found", len(file.Connects))
	return &file, nil
}
