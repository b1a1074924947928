package ingest

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"

	"github.com/vk/gridflow/internal/dataset"
)

// ParseJSON parses JSON source bytes into a dataset. The input must be
// an array, or an envelope object holding exactly one array-valued
// top-level property; anything else is an error. Column order follows
// first appearance across elements.
func ParseJSON(data []byte) (*dataset.Dataset, error) {
	root, err := sonic.Get(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch root.Type() {
	case ast.V_ARRAY:
		return arrayToDataset(&root, "json")
	case ast.V_OBJECT:
		if arr, ok, err := envelopeArray(&root); err != nil {
			return nil, err
		} else if ok {
			return arrayToDataset(arr, "json")
		}
		return nil, errors.New("JSON data must be an array or an object containing an array")
	default:
		return nil, errors.New("JSON data must be an array or an object containing an array")
	}
}

// envelopeArray scans an object's top-level properties in document
// order and returns its single array-valued property, if exactly one
// exists.
func envelopeArray(obj *ast.Node) (*ast.Node, bool, error) {
	it, err := obj.Properties()
	if err != nil {
		return nil, false, fmt.Errorf("read JSON object: %w", err)
	}

	var found *ast.Node
	count := 0
	for it.HasNext() {
		var p ast.Pair
		it.Next(&p)
		if p.Value.Type() == ast.V_ARRAY {
			count++
			if count == 1 {
				v := p.Value
				found = &v
			}
		}
	}
	if count == 1 {
		return found, true, nil
	}
	return nil, false, nil
}

// arrayToDataset converts a JSON array node. Object elements contribute
// one row keyed by their properties; the column set is the union of
// keys in first-seen order, missing keys reading as null. Non-object
// elements land in a "value" column.
func arrayToDataset(arr *ast.Node, kind string) (*dataset.Dataset, error) {
	it, err := arr.Values()
	if err != nil {
		return nil, fmt.Errorf("read JSON array: %w", err)
	}

	var columns []string
	colIndex := make(map[string]int)
	addColumn := func(name string) int {
		if idx, ok := colIndex[name]; ok {
			return idx
		}
		colIndex[name] = len(columns)
		columns = append(columns, name)
		return len(columns) - 1
	}

	var cells []map[int]any
	for it.HasNext() {
		var elem ast.Node
		it.Next(&elem)

		rowCells := make(map[int]any)
		if elem.Type() == ast.V_OBJECT {
			props, err := elem.Properties()
			if err != nil {
				return nil, fmt.Errorf("read JSON element: %w", err)
			}
			for props.HasNext() {
				var p ast.Pair
				props.Next(&p)
				rowCells[addColumn(p.Key)] = nodeValue(&p.Value)
			}
		} else {
			rowCells[addColumn("value")] = nodeValue(&elem)
		}
		cells = append(cells, rowCells)
	}

	rows := make([][]any, len(cells))
	for i, rowCells := range cells {
		row := make([]any, len(columns))
		for idx, v := range rowCells {
			row[idx] = v
		}
		rows[i] = row
	}

	return dataset.New(columns, rows, &dataset.SourceInfo{Kind: kind}), nil
}

// keyValueDataset renders an object as two columns, one row per
// top-level property in document order.
func keyValueDataset(obj *ast.Node, kind string) (*dataset.Dataset, error) {
	it, err := obj.Properties()
	if err != nil {
		return nil, fmt.Errorf("read JSON object: %w", err)
	}

	var rows [][]any
	for it.HasNext() {
		var p ast.Pair
		it.Next(&p)
		rows = append(rows, []any{p.Key, nodeValue(&p.Value)})
	}

	return dataset.New([]string{"key", "value"}, rows, &dataset.SourceInfo{Kind: kind}), nil
}

// nodeValue converts a scalar JSON node to a cell value. Nested arrays
// and objects keep their JSON text, since cells hold scalars.
func nodeValue(n *ast.Node) any {
	switch n.Type() {
	case ast.V_NULL:
		return nil
	case ast.V_TRUE:
		return true
	case ast.V_FALSE:
		return false
	case ast.V_STRING:
		s, _ := n.String()
		return s
	case ast.V_NUMBER:
		f, _ := n.Float64()
		return f
	default:
		raw, _ := n.Raw()
		return raw
	}
}
