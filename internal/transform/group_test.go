package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/dataset"
)

func salaryDataset() *dataset.Dataset {
	return dataset.New(
		[]string{"age", "salary"},
		[][]any{
			{float64(25), float64(5000)},
			{float64(25), float64(6000)},
			{float64(30), float64(7000)},
		},
		nil,
	)
}

func TestParseGroupConfig(t *testing.T) {
	t.Parallel()

	cfg := ParseGroupConfig(map[string]any{
		"columns": []any{"age", "dept"},
		"aggregations": []any{
			map[string]any{"column": "salary", "function": "SUM", "alias": "total"},
			map[string]any{"column": "salary", "function": "avg"},
		},
	})

	assert.Equal(t, []string{"age", "dept"}, cfg.Columns)
	require.Len(t, cfg.Aggregations, 2)
	assert.Equal(t, Aggregation{Column: "salary", Function: "sum", Alias: "total"}, cfg.Aggregations[0])
	assert.Equal(t, "avg(salary)", cfg.Aggregations[1].Name())
}

func TestGroup_SumByAge(t *testing.T) {
	t.Parallel()

	out, err := Group(salaryDataset(), &GroupConfig{
		Columns:      []string{"age"},
		Aggregations: []Aggregation{{Column: "salary", Function: AggSum}},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "sum(salary)"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, []any{float64(25), float64(11000)}, out.Rows[0])
	assert.Equal(t, []any{float64(30), float64(7000)}, out.Rows[1])
}

func TestGroup_Functions(t *testing.T) {
	t.Parallel()

	ds := dataset.New(
		[]string{"dept", "salary"},
		[][]any{
			{"eng", float64(10)},
			{"eng", nil},
			{"eng", float64(30)},
			{"eng", float64(20)},
		},
		nil,
	)

	out, err := Group(ds, &GroupConfig{
		Columns: []string{"dept"},
		Aggregations: []Aggregation{
			{Column: "salary", Function: AggCount},
			{Column: "salary", Function: AggSum},
			{Column: "salary", Function: AggAvg},
			{Column: "salary", Function: AggMin},
			{Column: "salary", Function: AggMax},
			{Column: "salary", Function: AggFirst},
			{Column: "salary", Function: AggLast},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, "eng", row[0])
	assert.Equal(t, 4, row[1], "count counts rows, nulls included")
	assert.Equal(t, float64(60), row[2])
	assert.Equal(t, float64(20), row[3])
	assert.Equal(t, float64(10), row[4])
	assert.Equal(t, float64(30), row[5])
	assert.Equal(t, float64(10), row[6], "first skips the null")
	assert.Equal(t, float64(20), row[7])
}

func TestGroup_AllNullYieldsNull(t *testing.T) {
	t.Parallel()

	ds := dataset.New(
		[]string{"dept", "bonus"},
		[][]any{
			{"eng", nil},
			{"eng", nil},
		},
		nil,
	)

	out, err := Group(ds, &GroupConfig{
		Columns: []string{"dept"},
		Aggregations: []Aggregation{
			{Column: "bonus", Function: AggSum},
			{Column: "bonus", Function: AggCount},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Rows, 1)
	assert.Nil(t, out.Rows[0][1])
	assert.Equal(t, 2, out.Rows[0][2])
}

func TestGroup_ValueEquality(t *testing.T) {
	t.Parallel()

	// Integer 25 and float 25.0 land in the same group; string "25"
	// does not.
	ds := dataset.New(
		[]string{"age", "salary"},
		[][]any{
			{25, float64(100)},
			{float64(25), float64(200)},
			{"25", float64(400)},
		},
		nil,
	)

	out, err := Group(ds, &GroupConfig{
		Columns:      []string{"age"},
		Aggregations: []Aggregation{{Column: "salary", Function: AggSum}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, float64(300), out.Rows[0][1])
	assert.Equal(t, float64(400), out.Rows[1][1])
}

func TestGroup_FirstSeenOrder(t *testing.T) {
	t.Parallel()

	ds := dataset.New(
		[]string{"dept"},
		[][]any{{"ops"}, {"eng"}, {"ops"}, {"hr"}, {"eng"}},
		nil,
	)

	out, err := Group(ds, &GroupConfig{
		Columns:      []string{"dept"},
		Aggregations: []Aggregation{{Column: "dept", Function: AggCount}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Rows, 3)
	assert.Equal(t, "ops", out.Rows[0][0])
	assert.Equal(t, "eng", out.Rows[1][0])
	assert.Equal(t, "hr", out.Rows[2][0])
}

func TestGroup_NoGroupColumnsAggregatesWholeTable(t *testing.T) {
	t.Parallel()

	out, err := Group(salaryDataset(), &GroupConfig{
		Aggregations: []Aggregation{
			{Column: "salary", Function: AggSum, Alias: "total"},
			{Column: "salary", Function: AggCount, Alias: "rows"},
		},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"total", "rows"}, out.Columns)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, []any{float64(18000), 3}, out.Rows[0])
}

func TestGroup_MultiColumnKey(t *testing.T) {
	t.Parallel()

	ds := dataset.New(
		[]string{"dept", "grade", "salary"},
		[][]any{
			{"eng", "a", float64(10)},
			{"eng", "b", float64(20)},
			{"eng", "a", float64(30)},
		},
		nil,
	)

	out, err := Group(ds, &GroupConfig{
		Columns:      []string{"dept", "grade"},
		Aggregations: []Aggregation{{Column: "salary", Function: AggSum}},
	}, nil)
	require.NoError(t, err)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, []any{"eng", "a", float64(40)}, out.Rows[0])
	assert.Equal(t, []any{"eng", "b", float64(20)}, out.Rows[1])
}

func TestGroup_NilDataset(t *testing.T) {
	t.Parallel()

	_, err := Group(nil, &GroupConfig{Columns: []string{"a"}}, nil)
	assert.EqualError(t, err, "No input dataset provided")
}

func TestValidateGroupConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		vr := ValidateGroupConfig(map[string]any{
			"columns":      []any{"age"},
			"aggregations": []any{map[string]any{"column": "salary", "function": "sum"}},
		})
		assert.True(t, vr.Valid)
	})

	t.Run("missing group columns", func(t *testing.T) {
		vr := ValidateGroupConfig(map[string]any{})
		require.False(t, vr.Valid)
		assert.Equal(t, "columns", vr.Errors[0].Field)
	})

	t.Run("unknown function", func(t *testing.T) {
		vr := ValidateGroupConfig(map[string]any{
			"columns":      []any{"age"},
			"aggregations": []any{map[string]any{"column": "salary", "function": "median"}},
		})
		require.False(t, vr.Valid)
		assert.Equal(t, "INVALID_FUNCTION", vr.Errors[0].Code)
	})
}
