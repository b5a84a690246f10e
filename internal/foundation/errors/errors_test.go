package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "folio.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "folio.yaml", file)
	})

	t.Run("Wrapped detection", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := fmt.Errorf("write output: %w", FileSystemError("write fragment").WithCause(cause).Build())

		assert.True(t, HasCategory(err, CategoryFileSystem))
		assert.Equal(t, SeverityError, GetSeverity(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Sentinel matching", func(t *testing.T) {
		sentinel := EventStoreError("append failed").Build()
		err := EventStoreError("append failed").WithContext("build_id", "x").Build()
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("WithContext does not mutate original", func(t *testing.T) {
		base := ValidationError("bad").Build()
		derived := base.WithContext("k", "v")
		_, ok := base.Context().Get("k")
		assert.False(t, ok)
		_, ok = derived.Context().Get("k")
		assert.True(t, ok)
	})
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", stderrors.New("x"), 1},
		{"validation", ValidationError("x").Build(), 2},
		{"config", ConfigError("x").Build(), 7},
		{"pipeline", PipelineError("x").Build(), 11},
		{"internal", InternalError("x").Build(), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))

	code := adapter.Report(&out, ConfigError("missing content root").Build())
	assert.Equal(t, 7, code)
	assert.Equal(t, "Error: missing content root\n", out.String())
	assert.Contains(t, logs.String(), "category=config")

	out.Reset()
	adapter.Report(&out, InternalError("boom").Build())
	assert.Contains(t, out.String(), "use -v for details")
}
