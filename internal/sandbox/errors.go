package sandbox

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrorPrefix marks a rendered evaluation failure so it can't be confused
// with a normal value.
const ErrorPrefix = "Error: "

// ErrEvaluation classifies failures raised by evaluated code: syntax errors,
// type errors and panics.
var ErrEvaluation = errors.New("evaluation error")

// EvalError describes a failed evaluation, with the source position when the
// interpreter reports one.
type EvalError struct {
	// Message describes the error.
	Message string

	// Line is the 1-based line within the failing segment; zero when unknown.
	Line int

	// Column is the 1-based column; zero when unknown.
	Column int

	// Segment is the index of the program segment that failed, -1 for the
	// prelude.
	Segment int

	// Err is the underlying interpreter error, if any.
	Err error
}

// Error returns the message, including line and column if available.
func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// Is matches ErrEvaluation.
func (e *EvalError) Is(target error) bool {
	return target == ErrEvaluation
}

// positionPattern matches yaegi's "[file:]line:col: message" error format.
var positionPattern = regexp.MustCompile(`^(?:[^\s:]+:)?(\d+):(\d+): (.*)$`)

// newEvalError wraps an interpreter error, lifting the position out of the
// message when present.
func newEvalError(err error, segment int) *EvalError {
	e := &EvalError{Message: err.Error(), Segment: segment, Err: err}
	if m := positionPattern.FindStringSubmatch(e.Message); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
		e.Column, _ = strconv.Atoi(m[2])
		e.Message = m[3]
	}
	return e
}

// RenderError turns an evaluation failure into cell output.
func RenderError(err error) string {
	return ErrorPrefix + err.Error()
}
