// Package sandbox evaluates notebook programs with the Yaegi Go interpreter.
//
// Every execution builds a brand-new interpreter, injects a per-run Console
// as the "console" package, evaluates the program segment by segment and
// returns the rendered value together with the captured diagnostics.
// Failures in the evaluated code are converted into output text; Execute
// never returns an error and never panics.
//
// There is no isolation: evaluated code has the full standard library,
// including os and net/http, and no time or memory limit.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"nerdbook/internal/logging"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Executor evaluates programs and captures their value and diagnostics.
//
// Contract:
// - Errors: evaluation failures are reported in Result, never returned or panicked.
// - Context: cancellation is best-effort; there is no built-in deadline.
// - State: nothing survives between two Execute calls.
type Executor interface {
	Execute(ctx context.Context, program Program) Result
}

// Result is the outcome of one execution.
type Result struct {
	// Output is the rendered value, or ErrorPrefix followed by the failure.
	Output string `json:"output"`

	// Log holds the diagnostics emitted during execution, one per line.
	Log string `json:"log"`

	// Err is the evaluation failure, if any. It matches ErrEvaluation.
	Err error `json:"-"`

	// Duration is the wall time spent evaluating.
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the evaluation failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// YaegiExecutor executes Go source using the Yaegi interpreter.
type YaegiExecutor struct {
	prelude       []string
	captureStdout bool
}

// Option configures a YaegiExecutor.
type Option func(*YaegiExecutor)

// WithPrelude replaces the packages pre-imported into every execution.
// The console package is always imported.
func WithPrelude(packages ...string) Option {
	return func(ye *YaegiExecutor) {
		ye.prelude = append([]string(nil), packages...)
	}
}

// WithStdoutCapture controls whether writes to stdout (fmt.Println and
// friends) are recorded as diagnostics. Enabled by default.
func WithStdoutCapture(enabled bool) Option {
	return func(ye *YaegiExecutor) {
		ye.captureStdout = enabled
	}
}

// NewYaegiExecutor creates a Yaegi-based executor.
func NewYaegiExecutor(opts ...Option) *YaegiExecutor {
	ye := &YaegiExecutor{
		prelude:       append([]string(nil), DefaultPrelude...),
		captureStdout: true,
	}
	for _, opt := range opts {
		opt(ye)
	}
	return ye
}

// Execute evaluates program in a fresh interpreter.
func (ye *YaegiExecutor) Execute(ctx context.Context, program Program) (res Result) {
	start := time.Now()
	console := NewConsole()

	defer func() {
		if r := recover(); r != nil {
			err := &EvalError{Message: fmt.Sprintf("panic: %v", r), Segment: -1}
			res.Err = err
			res.Output = RenderError(err)
		}
		res.Log = console.String()
		res.Duration = time.Since(start)
		logging.SandboxDebug("executed %d segment(s) in %v (failed=%v)",
			len(program.Segments), res.Duration, res.Err != nil)
	}()

	value, err := ye.eval(ctx, console, program)
	if err != nil {
		res.Err = err
		res.Output = RenderError(err)
		return res
	}
	res.Output = RenderValue(value)
	return res
}

func (ye *YaegiExecutor) eval(ctx context.Context, console *Console, program Program) (reflect.Value, error) {
	var stderr bytes.Buffer
	defer func() {
		if stderr.Len() > 0 {
			logging.SandboxDebug("interpreter stderr: %s", strings.TrimSpace(stderr.String()))
		}
	}()

	opts := interp.Options{Stderr: &stderr}
	if ye.captureStdout {
		opts.Stdout = console
	} else {
		opts.Stdout = &stderr
	}

	i := interp.New(opts)
	if err := i.Use(stdlib.Symbols); err != nil {
		return reflect.Value{}, &EvalError{Message: fmt.Sprintf("failed to load stdlib: %v", err), Segment: -1, Err: err}
	}
	if err := i.Use(console.exports()); err != nil {
		return reflect.Value{}, &EvalError{Message: fmt.Sprintf("failed to load console: %v", err), Segment: -1, Err: err}
	}

	imported := make(map[string]bool)
	if err := importSpecs(ctx, i, preludeSpecs(ye.prelude), imported, -1); err != nil {
		return reflect.Value{}, err
	}

	var last reflect.Value
	for idx, segment := range program.Segments {
		specs, body := splitImports(segment)
		if err := importSpecs(ctx, i, specs, imported, idx); err != nil {
			return reflect.Value{}, err
		}

		last = reflect.Value{}
		for _, c := range splitChunks(body) {
			v, err := i.EvalWithContext(ctx, c.source())
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return reflect.Value{}, &EvalError{Message: ctxErr.Error(), Segment: idx, Err: ctxErr}
				}
				return reflect.Value{}, newEvalError(err, idx)
			}
			last = v
		}
	}
	return last, nil
}

// importSpecs evaluates each import not already seen in this interpreter.
func importSpecs(ctx context.Context, i *interp.Interpreter, specs []string, imported map[string]bool, segment int) error {
	for _, spec := range specs {
		if imported[spec] {
			continue
		}
		if _, err := i.EvalWithContext(ctx, "import "+spec); err != nil {
			return newEvalError(err, segment)
		}
		imported[spec] = true
	}
	return nil
}
