package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYaegiExecutor_CapturesDiagnosticsAndValue(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source(`console.Log("a"); console.Log("b"); 42`))

	require.NoError(t, res.Err)
	assert.Equal(t, "42", res.Output)
	assert.Equal(t, "a\nb", res.Log)
}

func TestYaegiExecutor_PanicIsCaptured(t *testing.T) {
	ye := NewYaegiExecutor()

	var res Result
	require.NotPanics(t, func() {
		res = ye.Execute(context.Background(), Source(`console.Log("before"); panic("boom")`))
	})

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrEvaluation))
	assert.Contains(t, res.Output, "Error")
	assert.Contains(t, res.Output, "boom")
	assert.Equal(t, "before", res.Log)
}

func TestYaegiExecutor_CompileErrorIsCaptured(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source(`undefinedName + 1`))

	require.Error(t, res.Err)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Output, ErrorPrefix)
	assert.Contains(t, res.Output, "undefinedName")
}

func TestYaegiExecutor_SegmentsShareOneInterpreter(t *testing.T) {
	ye := NewYaegiExecutor()
	program := Program{
		Segments:    []string{"x := 5", "console.Log(x)", "x * 2"},
		Accumulated: true,
	}

	res := ye.Execute(context.Background(), program)

	require.NoError(t, res.Err)
	assert.Equal(t, "10", res.Output)
	assert.Equal(t, "5", res.Log)
}

func TestYaegiExecutor_NoStateSurvivesBetweenRuns(t *testing.T) {
	ye := NewYaegiExecutor()

	first := ye.Execute(context.Background(), Source("y := 7\ny"))
	require.NoError(t, first.Err)
	assert.Equal(t, "7", first.Output)

	second := ye.Execute(context.Background(), Source("y"))
	assert.Error(t, second.Err)
}

func TestYaegiExecutor_CapturesStdout(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source(`fmt.Println("hello", 1); console.Log("after")`))

	require.NoError(t, res.Err)
	assert.Equal(t, "hello 1\nafter", res.Log)
}

func TestYaegiExecutor_StdoutCaptureDisabled(t *testing.T) {
	ye := NewYaegiExecutor(WithStdoutCapture(false))

	res := ye.Execute(context.Background(), Source(`fmt.Println("hidden"); console.Log("shown")`))

	require.NoError(t, res.Err)
	assert.Equal(t, "shown", res.Log)
}

func TestYaegiExecutor_HoistsImports(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source("import \"unicode\"\nunicode.IsUpper('A')"))

	require.NoError(t, res.Err)
	assert.Equal(t, "true", res.Output)
}

func TestYaegiExecutor_StructuredValueRendersAsJSON(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source(`map[string]int{"a": 1}`))

	require.NoError(t, res.Err)
	assert.JSONEq(t, `{"a":1}`, res.Output)
}

func TestYaegiExecutor_EmptyProgram(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source(""))

	require.NoError(t, res.Err)
	assert.Equal(t, "", res.Output)
	assert.Equal(t, "", res.Log)
}

func TestProgram_Text(t *testing.T) {
	assert.Equal(t, "a := 1", Source("a := 1").Text())

	p := Program{Segments: []string{"a", "b"}, Accumulated: true}
	assert.Equal(t, "a\nb\n", p.Text())
	assert.False(t, p.Empty())
	assert.True(t, Program{Segments: []string{" ", ""}}.Empty())
}

func TestYaegiExecutor_DeclarationRendersValueNotAddress(t *testing.T) {
	ye := NewYaegiExecutor()

	for _, tt := range []struct {
		src  string
		want string
	}{
		{"var y = 3", "3"},
		{"const c = 4", "4"},
		{"z := 6\n&z", "6"},
	} {
		first := ye.Execute(context.Background(), Source(tt.src))
		second := ye.Execute(context.Background(), Source(tt.src))

		require.NoError(t, first.Err, tt.src)
		assert.Equal(t, tt.want, first.Output, tt.src)
		assert.Equal(t, first.Output, second.Output, tt.src)
	}
}

func TestYaegiExecutor_FunctionValueIsDeterministic(t *testing.T) {
	ye := NewYaegiExecutor()

	first := ye.Execute(context.Background(), Source("strings.ToUpper"))
	second := ye.Execute(context.Background(), Source("strings.ToUpper"))

	require.NoError(t, first.Err)
	assert.NotContains(t, first.Output, "0x")
	assert.Equal(t, first.Output, second.Output)
}

func TestYaegiExecutor_DeclarationsMixWithStatements(t *testing.T) {
	ye := NewYaegiExecutor()

	tests := []struct {
		name    string
		src     string
		wantOut string
		wantLog string
	}{
		{"var then statements", "var x = 5\nconsole.Log(x)\nx * 2", "10", "5"},
		{"var map then mutation", "var m = map[string]int{}\nm[\"a\"] = 1\nm", `{"a":1}`, ""},
		{"func then call", "func double(n int) int {\n\treturn n * 2\n}\ndouble(21)", "42", ""},
		{"statement then type", "n := 2\ntype box struct{ N int }\nbox{N: n}", `{"N":2}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ye.Execute(context.Background(), Source(tt.src))

			require.NoError(t, res.Err)
			assert.JSONEq(t, tt.wantOut, res.Output)
			assert.Equal(t, tt.wantLog, res.Log)
		})
	}
}

func TestYaegiExecutor_CellStructHidesUnexportedFields(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source("type P struct {\n\tName string\n\tage  int\n}\nP{Name: \"a\", age: 2}"))

	require.NoError(t, res.Err)
	assert.JSONEq(t, `{"Name":"a"}`, res.Output)
}

func TestYaegiExecutor_ErrorLineAfterDeclaration(t *testing.T) {
	ye := NewYaegiExecutor()

	res := ye.Execute(context.Background(), Source("var x = 5\nconsole.Log(x)\nundefinedName"))

	var evalErr *EvalError
	require.True(t, errors.As(res.Err, &evalErr))
	assert.Equal(t, 3, evalErr.Line)
}
