package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/gridflow/internal/dataset"
)

// Sort directions.
const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"
)

// SortKey is one column/direction pair of a composite sort.
type SortKey struct {
	Column    string
	Direction string
}

// descending reports whether the key inverts the comparator. Anything
// other than "desc" sorts ascending.
func (k SortKey) descending() bool {
	return strings.EqualFold(k.Direction, DirectionDesc)
}

// ParseSortConfig accepts either a single {column, direction} pair or
// {sortConfigs: [...]}. Direction defaults to ascending. Entries with
// an empty column are dropped.
func ParseSortConfig(raw map[string]any) []SortKey {
	var keys []SortKey
	if list, ok := anyKey(raw, "sortConfigs", "sort_configs").([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if k, ok := parseSortKey(m); ok {
				keys = append(keys, k)
			}
		}
		return keys
	}
	if k, ok := parseSortKey(raw); ok {
		keys = append(keys, k)
	}
	return keys
}

func parseSortKey(m map[string]any) (SortKey, bool) {
	k := SortKey{Direction: DirectionAsc}
	col, _ := asString(m["column"])
	if col == "" {
		return k, false
	}
	k.Column = col
	if dir, ok := asString(m["direction"]); ok && dir != "" {
		k.Direction = strings.ToLower(dir)
	}
	return k, true
}

// Sort returns a new dataset with rows ordered by the composite key
// list, evaluated left to right. Rows equal on every key keep their
// original relative order. Null cells sort before non-null ascending
// and after descending.
func Sort(ds *dataset.Dataset, keys []SortKey, progress Progress) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, errors.New("No input dataset provided")
	}
	if len(keys) == 0 {
		return nil, errors.New("No valid sort configurations provided")
	}

	indexes := make([]int, len(keys))
	for i, k := range keys {
		idx := ds.ColumnIndex(k.Column)
		if idx < 0 {
			return nil, fmt.Errorf("sort column %q not found in dataset", k.Column)
		}
		indexes[i] = idx
	}

	total := len(ds.Rows)
	report(progress, 0, total)

	rows := make([][]any, total)
	copy(rows, ds.Rows)

	col := newCollator()
	sort.SliceStable(rows, func(a, b int) bool {
		for i, k := range keys {
			idx := indexes[i]
			c := compareValues(cellAt(rows[a], idx), cellAt(rows[b], idx), col)
			if c == 0 {
				continue
			}
			if k.descending() {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	report(progress, total, total)
	return ds.Derived(ds.Columns, rows, "sort"), nil
}

// cellAt returns the cell at idx, or nil when the row is shorter.
func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
