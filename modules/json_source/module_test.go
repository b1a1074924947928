package json_source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/gridflow/internal/dataset"
	"github.com/vk/gridflow/internal/executor"
)

func run(t *testing.T, config map[string]any) *executor.Result {
	t.Helper()
	ec := executor.NewContext("json-1", nil, config)
	return executor.SafeExecute(context.Background(), &Source{}, ec)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()
		vr := (&Source{}).Validate(executor.NewContext("n", nil, nil))
		require.False(t, vr.Valid)
		assert.Equal(t, executor.CodeRequiredField, vr.Errors[0].Code)
	})

	t.Run("malformed inline text", func(t *testing.T) {
		t.Parallel()
		vr := (&Source{}).Validate(executor.NewContext("n", nil, map[string]any{"text": "{not json"}))
		require.False(t, vr.Valid)
		assert.Equal(t, executor.CodeInvalidJSON, vr.Errors[0].Code)
	})

	t.Run("well-formed inline text", func(t *testing.T) {
		t.Parallel()
		vr := (&Source{}).Validate(executor.NewContext("n", nil, map[string]any{"text": `[{"a":1}]`}))
		assert.True(t, vr.Valid)
	})
}

func TestExecuteArray(t *testing.T) {
	t.Parallel()

	res := run(t, map[string]any{"text": `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`})
	require.True(t, res.Success)

	ds := res.Output.(*dataset.Dataset)
	assert.Equal(t, []string{"id", "name"}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 1.0, ds.Rows[0][0])
	assert.Equal(t, "b", ds.Rows[1][1])
}

func TestExecuteEnvelope(t *testing.T) {
	t.Parallel()

	res := run(t, map[string]any{"text": `{"count":2,"items":[{"x":1},{"x":2}]}`})
	require.True(t, res.Success)

	ds := res.Output.(*dataset.Dataset)
	assert.Equal(t, []string{"x"}, ds.Columns)
	assert.Len(t, ds.Rows, 2)
}

func TestExecuteFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"v":"file"}]`), 0o644))

	res := run(t, map[string]any{"path": path})
	require.True(t, res.Success)

	ds := res.Output.(*dataset.Dataset)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "file", ds.Rows[0][0])
	assert.Equal(t, path, ds.Meta.Source.Descriptor)
}

func TestExecuteFailures(t *testing.T) {
	t.Parallel()

	t.Run("scalar document", func(t *testing.T) {
		t.Parallel()
		res := run(t, map[string]any{"text": `42`})
		require.False(t, res.Success)
		assert.Contains(t, res.Err.Message, "must be an array or an object containing an array")
	})

	t.Run("invalid JSON", func(t *testing.T) {
		t.Parallel()
		res := run(t, map[string]any{"text": `{broken`})
		require.False(t, res.Success)
		assert.Equal(t, executor.ErrTypeExecution, res.Err.Type)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		res := run(t, map[string]any{"path": filepath.Join(t.TempDir(), "absent.json")})
		require.False(t, res.Success)
	})
}
