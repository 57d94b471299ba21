package sandbox

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      EvalError
		expected string
	}{
		{
			name:     "with position",
			err:      EvalError{Message: "undefined: y", Line: 2, Column: 7},
			expected: "undefined: y (line 2, col 7)",
		},
		{
			name:     "without position",
			err:      EvalError{Message: "boom"},
			expected: "boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestEvalError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := fmt.Errorf("wrapped: %w", &EvalError{Message: "bad", Err: cause})

	assert.True(t, errors.Is(err, ErrEvaluation))
	assert.True(t, errors.Is(err, cause))

	var evalErr *EvalError
	require.True(t, errors.As(err, &evalErr))
	assert.Equal(t, "bad", evalErr.Message)
}

func TestNewEvalError_ExtractsPosition(t *testing.T) {
	e := newEvalError(errors.New("_.go:3:14: undefined: y"), 2)
	assert.Equal(t, "undefined: y", e.Message)
	assert.Equal(t, 3, e.Line)
	assert.Equal(t, 14, e.Column)
	assert.Equal(t, 2, e.Segment)

	plain := newEvalError(errors.New("boom"), 0)
	assert.Equal(t, "boom", plain.Message)
	assert.Zero(t, plain.Line)
}

func TestRenderError_HasPrefix(t *testing.T) {
	assert.Equal(t, "Error: boom", RenderError(errors.New("boom")))
}
