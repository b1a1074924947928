package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/dataset"
)

func peopleDataset() *dataset.Dataset {
	return dataset.New(
		[]string{"name", "age"},
		[][]any{
			{"alice", float64(25)},
			{"bob", float64(30)},
			{"carol", float64(35)},
			{"dave", float64(28)},
			{"erin", float64(32)},
			{"frank", nil},
		},
		nil,
	)
}

func singleCondition(column, operator string, value any) *FilterConfig {
	return &FilterConfig{
		LogicalOperator: "and",
		Conditions:      []Condition{{Column: column, Operator: operator, Value: value}},
	}
}

func TestParseFilterConfig(t *testing.T) {
	t.Parallel()

	t.Run("legacy single condition", func(t *testing.T) {
		cfg := ParseFilterConfig(map[string]any{
			"column":   "age",
			"operator": "GREATER_THAN",
			"value":    float64(30),
		})
		require.Len(t, cfg.Conditions, 1)
		assert.Equal(t, "age", cfg.Conditions[0].Column)
		assert.Equal(t, OpGreaterThan, cfg.Conditions[0].Operator)
		assert.Equal(t, "and", cfg.LogicalOperator)
	})

	t.Run("multi-condition shape", func(t *testing.T) {
		cfg := ParseFilterConfig(map[string]any{
			"logicalOperator": "OR",
			"conditions": []any{
				map[string]any{"column": "age", "operator": "is_null"},
				map[string]any{"column": "name", "operator": "equals", "value": "bob", "type": "string"},
			},
		})
		require.Len(t, cfg.Conditions, 2)
		assert.Equal(t, "or", cfg.LogicalOperator)
		assert.Equal(t, "string", cfg.Conditions[1].Type)
	})

	t.Run("empty map parses to no conditions", func(t *testing.T) {
		cfg := ParseFilterConfig(map[string]any{})
		assert.Empty(t, cfg.Conditions)
	})
}

func TestFilter_GreaterThan(t *testing.T) {
	t.Parallel()

	out, err := Filter(peopleDataset(), singleCondition("age", OpGreaterThan, float64(30)), nil)
	require.NoError(t, err)

	// Null ages never satisfy a numeric comparison; survivors keep
	// their original relative order.
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "carol", out.Rows[0][0])
	assert.Equal(t, "erin", out.Rows[1][0])
}

func TestFilter_Operators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		operator string
		value    any
		want     []string
	}{
		{"equals is case-insensitive", OpEquals, "ALICE", []string{"alice"}},
		{"not_equals", OpNotEquals, "alice", []string{"bob", "carol", "dave", "erin", "frank"}},
		{"contains", OpContains, "AR", []string{"carol"}},
		{"not_contains", OpNotContains, "a", []string{"bob", "erin"}},
		{"starts_with", OpStartsWith, "DA", []string{"dave"}},
		{"ends_with", OpEndsWith, "E", []string{"alice", "dave"}},
		{"in splits on commas", OpIn, "bob, ERIN ,zoe", []string{"bob", "erin"}},
		{"not_in", OpNotIn, "alice,bob,carol,dave", []string{"erin", "frank"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Filter(peopleDataset(), singleCondition("name", tt.operator, tt.value), nil)
			require.NoError(t, err)

			var names []string
			for _, row := range out.Rows {
				names = append(names, row[0].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilter_NumericOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		operator string
		value    any
		want     int
	}{
		{OpGreaterThan, float64(30), 2},  // 35, 32
		{OpGreaterEqual, float64(30), 3}, // 30, 35, 32
		{OpLessThan, "30", 2},            // 25, 28: string value coerces
		{OpLessEqual, float64(30), 3},    // 25, 30, 28
	}

	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			out, err := Filter(peopleDataset(), singleCondition("age", tt.operator, tt.value), nil)
			require.NoError(t, err)
			assert.Len(t, out.Rows, tt.want)
		})
	}
}

func TestFilter_NullOperators(t *testing.T) {
	t.Parallel()

	out, err := Filter(peopleDataset(), singleCondition("age", OpIsNull, nil), nil)
	require.NoError(t, err)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "frank", out.Rows[0][0])

	out, err = Filter(peopleDataset(), singleCondition("age", OpIsNotNull, nil), nil)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 5)
}

func TestFilter_LogicalOperators(t *testing.T) {
	t.Parallel()

	conds := []Condition{
		{Column: "age", Operator: OpGreaterThan, Value: float64(26)},
		{Column: "name", Operator: OpStartsWith, Value: "b"},
	}

	t.Run("and requires every condition", func(t *testing.T) {
		out, err := Filter(peopleDataset(), &FilterConfig{Conditions: conds, LogicalOperator: "and"}, nil)
		require.NoError(t, err)
		require.Len(t, out.Rows, 1)
		assert.Equal(t, "bob", out.Rows[0][0])
	})

	t.Run("or requires any condition", func(t *testing.T) {
		out, err := Filter(peopleDataset(), &FilterConfig{Conditions: conds, LogicalOperator: "or"}, nil)
		require.NoError(t, err)
		// bob, carol, dave, erin by age; bob by name.
		assert.Len(t, out.Rows, 4)
	})
}

func TestFilter_AbsentColumnIsVacuouslyTrue(t *testing.T) {
	t.Parallel()

	out, err := Filter(peopleDataset(), singleCondition("salary", OpGreaterThan, float64(1000)), nil)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 6)
}

func TestFilter_EmptyConditionsPassEveryRow(t *testing.T) {
	t.Parallel()

	out, err := Filter(peopleDataset(), &FilterConfig{LogicalOperator: "and"}, nil)
	require.NoError(t, err)
	assert.Len(t, out.Rows, 6)
}

func TestFilter_NilDataset(t *testing.T) {
	t.Parallel()

	_, err := Filter(nil, singleCondition("age", OpIsNull, nil), nil)
	require.Error(t, err)
	assert.EqualError(t, err, "No input dataset provided")
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	ds := peopleDataset()
	_, err := Filter(ds, singleCondition("age", OpGreaterThan, float64(30)), nil)
	require.NoError(t, err)
	assert.Len(t, ds.Rows, 6)
	assert.Equal(t, "alice", ds.Rows[0][0])
}

func TestFilter_Progress(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 2500)
	for i := range rows {
		rows[i] = []any{float64(i)}
	}
	ds := dataset.New([]string{"n"}, rows, nil)

	var calls [][2]int
	_, err := Filter(ds, singleCondition("n", OpGreaterEqual, float64(0)), func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	require.NoError(t, err)

	// Two interval reports plus the completion report.
	require.Len(t, calls, 3)
	assert.Equal(t, [2]int{1000, 2500}, calls[0])
	assert.Equal(t, [2]int{2000, 2500}, calls[1])
	assert.Equal(t, [2]int{2500, 2500}, calls[2])
}

func TestValidateFilterConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid legacy condition", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"column": "age", "operator": "greater_than", "value": float64(30)})
		assert.True(t, vr.Valid)
	})

	t.Run("null operators need no value", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"column": "age", "operator": "is_null"})
		assert.True(t, vr.Valid)
	})

	t.Run("zero is a legitimate value", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"column": "age", "operator": "equals", "value": float64(0)})
		assert.True(t, vr.Valid)
	})

	t.Run("missing column", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"operator": "equals", "value": "x"})
		require.False(t, vr.Valid)
		assert.Equal(t, "column", vr.Errors[0].Field)
		assert.Equal(t, "REQUIRED_FIELD", vr.Errors[0].Code)
	})

	t.Run("missing value for comparison operator", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"column": "age", "operator": "equals"})
		require.False(t, vr.Valid)
		assert.Equal(t, "value", vr.Errors[0].Field)
	})

	t.Run("unknown operator", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"column": "age", "operator": "resembles", "value": "x"})
		require.False(t, vr.Valid)
		assert.Equal(t, "INVALID_OPERATOR", vr.Errors[0].Code)
	})

	t.Run("empty conditions array", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"conditions": []any{}})
		require.False(t, vr.Valid)
		assert.Equal(t, "EMPTY_CONDITIONS", vr.Errors[0].Code)
	})

	t.Run("condition errors carry indexed fields", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"conditions": []any{
			map[string]any{"column": "age", "operator": "equals", "value": "x"},
			map[string]any{"operator": "equals", "value": "x"},
		}})
		require.False(t, vr.Valid)
		assert.Equal(t, "conditions[1].column", vr.Errors[0].Field)
	})

	t.Run("bad logical operator", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{
			"logicalOperator": "xor",
			"conditions": []any{
				map[string]any{"column": "age", "operator": "is_null"},
			},
		})
		require.False(t, vr.Valid)
		assert.Equal(t, "logicalOperator", vr.Errors[0].Field)
	})

	t.Run("bad type hint", func(t *testing.T) {
		vr := ValidateFilterConfig(map[string]any{"conditions": []any{
			map[string]any{"column": "age", "operator": "is_null", "type": "decimal"},
		}})
		require.False(t, vr.Valid)
		assert.Equal(t, "INVALID_TYPE", vr.Errors[0].Code)
	})
}
