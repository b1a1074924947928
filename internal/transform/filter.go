package transform

import (
	"errors"
	"strings"

	"github.com/vk/gridflow/internal/dataset"
)

// Filter operator tokens.
const (
	OpEquals       = "equals"
	OpNotEquals    = "not_equals"
	OpContains     = "contains"
	OpNotContains  = "not_contains"
	OpStartsWith   = "starts_with"
	OpEndsWith     = "ends_with"
	OpGreaterThan  = "greater_than"
	OpLessThan     = "less_than"
	OpGreaterEqual = "greater_equal"
	OpLessEqual    = "less_equal"
	OpIn           = "in"
	OpNotIn        = "not_in"
	OpIsNull       = "is_null"
	OpIsNotNull    = "is_not_null"
)

// filterOperators is the closed set of supported operator tokens.
var filterOperators = map[string]struct{}{
	OpEquals: {}, OpNotEquals: {}, OpContains: {}, OpNotContains: {},
	OpStartsWith: {}, OpEndsWith: {}, OpGreaterThan: {}, OpLessThan: {},
	OpGreaterEqual: {}, OpLessEqual: {}, OpIn: {}, OpNotIn: {},
	OpIsNull: {}, OpIsNotNull: {},
}

// conditionTypes is the closed set of accepted condition type hints.
var conditionTypes = map[string]struct{}{
	"string": {}, "number": {}, "boolean": {}, "date": {},
}

// Condition is one predicate over a named column.
type Condition struct {
	Column   string
	Operator string
	Value    any
	// Type is an optional hint from the configuration UI; evaluation
	// derives types from the cells themselves.
	Type string
}

// FilterConfig is the parsed form of a filter node configuration.
type FilterConfig struct {
	Conditions      []Condition
	LogicalOperator string
}

// IsOperatorValid reports whether op is a supported filter operator.
func IsOperatorValid(op string) bool {
	_, ok := filterOperators[op]
	return ok
}

// IsConditionTypeValid reports whether a condition type hint is known.
func IsConditionTypeValid(t string) bool {
	_, ok := conditionTypes[t]
	return ok
}

// NeedsValue reports whether an operator requires a comparison value.
func NeedsValue(op string) bool {
	return op != OpIsNull && op != OpIsNotNull
}

// ParseFilterConfig accepts either the legacy single-condition shape
// {column, operator, value} or the multi-condition shape
// {conditions: [...], logicalOperator: and|or}.
func ParseFilterConfig(raw map[string]any) *FilterConfig {
	cfg := &FilterConfig{LogicalOperator: "and"}

	if op, ok := asString(anyKey(raw, "logicalOperator", "logical_operator")); ok && op != "" {
		cfg.LogicalOperator = strings.ToLower(op)
	}

	if list, ok := raw["conditions"].([]any); ok {
		for _, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			cfg.Conditions = append(cfg.Conditions, parseCondition(m))
		}
		return cfg
	}

	// Legacy single condition at the top level.
	if _, ok := raw["column"]; ok {
		cfg.Conditions = append(cfg.Conditions, parseCondition(raw))
	}
	return cfg
}

func parseCondition(m map[string]any) Condition {
	c := Condition{Value: m["value"]}
	c.Column, _ = asString(m["column"])
	if op, ok := asString(m["operator"]); ok {
		c.Operator = strings.ToLower(op)
	}
	c.Type, _ = asString(m["type"])
	return c
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// anyKey returns the first value present under the given spellings.
// Wire payloads carry camelCase keys, pipeline files snake_case.
func anyKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

// Filter returns a new dataset holding the rows that satisfy the
// configured conditions, in their original relative order. An empty
// condition list passes every row. A condition naming a column the
// dataset does not have is vacuously true.
func Filter(ds *dataset.Dataset, cfg *FilterConfig, progress Progress) (*dataset.Dataset, error) {
	if ds == nil {
		return nil, errors.New("No input dataset provided")
	}

	colIndex := make(map[string]int, len(ds.Columns))
	for i, c := range ds.Columns {
		colIndex[c] = i
	}

	disjunctive := cfg.LogicalOperator == "or"
	total := len(ds.Rows)
	var rows [][]any
	for i, row := range ds.Rows {
		if rowMatches(row, colIndex, cfg.Conditions, disjunctive) {
			rows = append(rows, row)
		}
		if (i+1)%progressEvery == 0 {
			report(progress, i+1, total)
		}
	}
	report(progress, total, total)

	return ds.Derived(ds.Columns, rows, "filter"), nil
}

// rowMatches evaluates the condition list over one row. With zero
// conditions every row matches.
func rowMatches(row []any, colIndex map[string]int, conds []Condition, disjunctive bool) bool {
	if len(conds) == 0 {
		return true
	}
	for _, c := range conds {
		ok := conditionMatches(row, colIndex, c)
		if disjunctive && ok {
			return true
		}
		if !disjunctive && !ok {
			return false
		}
	}
	return !disjunctive
}

// conditionMatches evaluates a single condition against one row. A
// column missing from the dataset passes the row.
func conditionMatches(row []any, colIndex map[string]int, c Condition) bool {
	idx, ok := colIndex[c.Column]
	if !ok {
		return true
	}
	var cell any
	if idx < len(row) {
		cell = row[idx]
	}

	switch c.Operator {
	case OpIsNull:
		return dataset.IsNull(cell)
	case OpIsNotNull:
		return !dataset.IsNull(cell)
	case OpEquals:
		return strings.EqualFold(dataset.ToString(cell), dataset.ToString(c.Value))
	case OpNotEquals:
		return !strings.EqualFold(dataset.ToString(cell), dataset.ToString(c.Value))
	case OpContains:
		return containsFold(dataset.ToString(cell), dataset.ToString(c.Value))
	case OpNotContains:
		return !containsFold(dataset.ToString(cell), dataset.ToString(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(lower(cell), lower(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(lower(cell), lower(c.Value))
	case OpGreaterThan:
		return compareNumeric(cell, c.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(cell, c.Value, func(a, b float64) bool { return a < b })
	case OpGreaterEqual:
		return compareNumeric(cell, c.Value, func(a, b float64) bool { return a >= b })
	case OpLessEqual:
		return compareNumeric(cell, c.Value, func(a, b float64) bool { return a <= b })
	case OpIn:
		return inList(cell, c.Value)
	case OpNotIn:
		return !inList(cell, c.Value)
	default:
		return false
	}
}

func lower(v any) string {
	return strings.ToLower(dataset.ToString(v))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// compareNumeric coerces both operands to numbers; a side that does not
// coerce fails the comparison.
func compareNumeric(cell, value any, cmp func(a, b float64) bool) bool {
	a, okA := dataset.ToNumber(cell)
	b, okB := dataset.ToNumber(value)
	if !okA || !okB {
		return false
	}
	return cmp(a, b)
}

// inList splits the configured value on commas and tests membership of
// the cell's string coercion, case-insensitively. Null cells are never
// members.
func inList(cell, value any) bool {
	if dataset.IsNull(cell) {
		return false
	}
	needle := strings.ToLower(dataset.ToString(cell))
	for _, item := range strings.Split(dataset.ToString(value), ",") {
		if strings.ToLower(strings.TrimSpace(item)) == needle {
			return true
		}
	}
	return false
}
