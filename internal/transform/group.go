package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/dataset"
)

// Aggregation function tokens.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggFirst = "first"
	AggLast  = "last"
)

// aggFunctions is the closed set of supported aggregation tokens.
var aggFunctions = map[string]struct{}{
	AggCount: {}, AggSum: {}, AggAvg: {}, AggMin: {}, AggMax: {},
	AggFirst: {}, AggLast: {},
}

// IsAggFunctionValid reports whether fn is a supported aggregation.
func IsAggFunctionValid(fn string) bool {
	_, ok := aggFunctions[fn]
	return ok
}

// Aggregation is one output computation over a grouped column.
type Aggregation struct {
	Column   string
	Function string
	Alias    string
}

// Name returns the output column name: the alias when present,
// otherwise "function(column)".
func (a Aggregation) Name() string {
	if a.Alias != "" {
		return a.Alias
	}
	return fmt.Sprintf("%s(%s)", a.Function, a.Column)
}

// GroupConfig is the parsed form of a group node configuration. An
// empty Columns list aggregates the whole dataset into one group.
type GroupConfig struct {
	Columns      []string
	Aggregations []Aggregation
}

// ParseGroupConfig reads {columns, aggregations: [{column, function,
// alias?}]} from a raw configuration map.
func ParseGroupConfig(raw map[string]any) *GroupConfig {
	cfg := &GroupConfig{Columns: asStringSlice(raw["columns"])}
	list, ok := raw["aggregations"].([]any)
	if !ok {
		return cfg
	}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var agg Aggregation
		agg.Column, _ = asString(m["column"])
		if fn, ok := asString(m["function"]); ok {
			agg.Function = strings.ToLower(fn)
		}
		agg.Alias, _ = asString(m["alias"])
		cfg.Aggregations = append(cfg.Aggregations, agg)
	}
	return cfg
}

func asStringSlice(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// group collects the rows sharing one key tuple. firstRow keeps the
// representative values for the group-by output columns.
type group struct {
	firstRow []any
	rows     [][]any
}

// Group buckets rows by the ordered tuple of group-column values under
// value equality, then emits one output row per distinct key in
// first-seen order: the group-by values followed by one column per
// aggregation.
func Group(ds *dataset.Dataset, cfg *GroupConfig, progress Progress) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, errors.New("No input dataset provided")
	}

	groupIdx := make([]int, len(cfg.Columns))
	for i, c := range cfg.Columns {
		groupIdx[i] = ds.ColumnIndex(c)
	}

	total := len(ds.Rows)
	buckets := make(map[string]*group)
	var order []string
	for i, row := range ds.Rows {
		key := groupKey(row, groupIdx)
		b, ok := buckets[key]
		if !ok {
			b = &group{firstRow: row}
			buckets[key] = b
			order = append(order, key)
		}
		b.rows = append(b.rows, row)
		if (i+1)%progressEvery == 0 {
			report(progress, i+1, total)
		}
	}
	report(progress, total, total)

	columns := make([]string, 0, len(cfg.Columns)+len(cfg.Aggregations))
	columns = append(columns, cfg.Columns...)
	for _, agg := range cfg.Aggregations {
		columns = append(columns, agg.Name())
	}

	rows := make([][]any, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		row := make([]any, 0, len(columns))
		for _, idx := range groupIdx {
			row = append(row, cellAt(b.firstRow, idx))
		}
		for _, agg := range cfg.Aggregations {
			row = append(row, aggregate(agg, ds.ColumnIndex(agg.Column), b.rows))
		}
		rows = append(rows, row)
	}

	return ds.Derived(columns, rows, "group"), nil
}

// groupKey renders the canonical key tuple for one row. Values that
// are numerically equal share a key regardless of representation.
func groupKey(row []any, groupIdx []int) string {
	parts := make([]string, len(groupIdx))
	for i, idx := range groupIdx {
		parts[i] = dataset.CanonicalKey(cellAt(row, idx))
	}
	return strings.Join(parts, "\x1f")
}

// aggregate computes one aggregation over a group's rows. count counts
// rows; every other function ignores null cells and yields nil when
// the group holds no usable value.
func aggregate(agg Aggregation, colIdx int, rows [][]any) any {
	if agg.Function == AggCount {
		return len(rows)
	}

	var values []any
	for _, row := range rows {
		if v := cellAt(row, colIdx); !dataset.IsNull(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil
	}

	switch agg.Function {
	case AggSum:
		sum, ok := numericSum(values)
		if !ok {
			return nil
		}
		return sum
	case AggAvg:
		sum, count := 0.0, 0
		for _, v := range values {
			if n, ok := dataset.ToNumber(v); ok {
				sum += n
				count++
			}
		}
		if count == 0 {
			return nil
		}
		return sum / float64(count)
	case AggMin:
		return pick(values, func(c int) bool { return c < 0 })
	case AggMax:
		return pick(values, func(c int) bool { return c > 0 })
	case AggFirst:
		return values[0]
	case AggLast:
		return values[len(values)-1]
	default:
		return nil
	}
}

func numericSum(values []any) (float64, bool) {
	sum, any := 0.0, false
	for _, v := range values {
		if n, ok := dataset.ToNumber(v); ok {
			sum += n
			any = true
		}
	}
	return sum, any
}

// pick returns the value winning every pairwise comparison under want.
func pick(values []any, want func(int) bool) any {
	col := newCollator()
	best := values[0]
	for _, v := range values[1:] {
		if want(compareValues(v, best, col)) {
			best = v
		}
	}
	return best
}
