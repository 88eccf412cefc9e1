package errors

import (
	"github.com/stretchr/testify/require"
	"log/slog"
	"slices"
	"testing"
)

func TestAnnotatedError(t *testing.T) {
	err := New("test error", slog.String("id", "123"))
	require.Equal(t, "test error", err.Error())

	// Assert that wrapping sentinel errors work as expected.
	sentinel := NewSentinel("test error")
	require.NotErrorIs(t, err, NewSentinel("test error"))
	wrapped := Wrap(sentinel, "lookup case", slog.String("case_id", "INC-1"))
	require.ErrorIs(t, wrapped, sentinel)
	require.Equal(t, "lookup case: test error", wrapped.Error())

	// Ensure log values are coming through.
	var annotated *AnnotatedError
	require.True(t, As(err, &annotated))
	group := annotated.LogValue().Group()
	require.Contains(t, group, slog.String("id", "123"))

	// Assert there's a valid source
	sourceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "source"
	})
	source := group[sourceIdx]
	require.Contains(t, source.Value.String(), "annotatederror_test.go")
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "nothing happened"))
}

func TestSlogError(t *testing.T) {
	sentinel := NewSentinel("storage unavailable")
	err := Wrap(Wrap(sentinel, "write case"), "set finding", slog.String("step_id", "prefetch"))

	attr := SlogError(err)
	require.Equal(t, "error", attr.Key)
	group := attr.Value.Group()
	require.Contains(t, group, slog.String("message", "set finding: write case: storage unavailable"))

	traceIdx := slices.IndexFunc(group, func(attr slog.Attr) bool {
		return attr.Key == "trace"
	})
	require.NotEqual(t, -1, traceIdx)
	require.Len(t, group[traceIdx].Value.Group(), 2)
}
