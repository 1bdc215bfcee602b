package guard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositive(t *testing.T) {
	require.NoError(t, Positive("n", 1))
	err := Positive("memories_length", 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Contains(t, err.Error(), "memories_length")
	require.ErrorIs(t, Positive("f", -0.5), ErrInvalidArgument)
}

func TestNonNegative(t *testing.T) {
	require.NoError(t, NonNegative("n", 0))
	require.ErrorIs(t, NonNegative("n", -1), ErrInvalidArgument)
}

func TestNotEmpty(t *testing.T) {
	require.NoError(t, NotEmpty("prompt", "hi"))
	require.ErrorIs(t, NotEmpty("prompt", "  "), ErrInvalidArgument)
}

func TestOneOf(t *testing.T) {
	require.NoError(t, OneOf("method", "get", "get", "post"))
	err := OneOf("method", "head", "get", "post")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Contains(t, err.Error(), "get, post")
}

func TestExtension(t *testing.T) {
	require.NoError(t, Extension("ends_with", ".png"))
	require.ErrorIs(t, Extension("ends_with", "."), ErrInvalidArgument)
	require.ErrorIs(t, Extension("ends_with", "png"), ErrInvalidArgument)
}

func TestRange(t *testing.T) {
	require.NoError(t, Range("volume", 0.5, 0.0, 1.0))
	require.ErrorIs(t, Range("volume", 1.5, 0.0, 1.0), ErrInvalidArgument)
}
