package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, FromContext(context.Background()))
}

func TestWithCarriesAttributes(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	ctx = With(ctx, "pipeline", "demo")

	FromContext(ctx).Info("node scheduled")

	out := buf.String()
	require.Contains(t, out, "node scheduled")
	assert.Contains(t, out, "pipeline=demo")
}
