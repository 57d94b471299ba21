package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []chunk
	}{
		{
			name: "statements only",
			body: "x := 1\nx",
			want: []chunk{{0, "x := 1\nx"}},
		},
		{
			name: "var then statement",
			body: "var x = 5\nconsole.Log(x)",
			want: []chunk{{0, "var x = 5"}, {1, "console.Log(x)"}},
		},
		{
			name: "grouped var",
			body: "var (\n\ta = 1\n\tb = 2\n)\na + b",
			want: []chunk{{0, "var (\n\ta = 1\n\tb = 2\n)"}, {4, "a + b"}},
		},
		{
			name: "func declaration then call",
			body: "func f() int {\n\treturn 1\n}\n\nf()",
			want: []chunk{{0, "func f() int {\n\treturn 1\n}"}, {3, "\nf()"}},
		},
		{
			name: "declaration between statements",
			body: "x := 1\ntype T struct{ A int }\nT{A: x}",
			want: []chunk{{0, "x := 1"}, {1, "type T struct{ A int }"}, {2, "T{A: x}"}},
		},
		{
			name: "trailing operator continues declaration",
			body: "var s = \"a\" +\n\t\"b\"\ns",
			want: []chunk{{0, "var s = \"a\" +\n\t\"b\""}, {2, "s"}},
		},
		{
			name: "brackets in strings and comments ignored",
			body: "var s = \"{\" // }\ns",
			want: []chunk{{0, `var s = "{" // }`}, {1, "s"}},
		},
		{
			name: "raw string spans lines",
			body: "var s = `\nfunc x\n`\ns",
			want: []chunk{{0, "var s = `\nfunc x\n`"}, {3, "s"}},
		},
		{
			name: "comment-only chunk dropped",
			body: "var y = 3\n// done",
			want: []chunk{{0, "var y = 3"}},
		},
		{
			name: "keyword prefixes in identifiers",
			body: "variable := 1\nfuncs := 2\nvariable + funcs",
			want: []chunk{{0, "variable := 1\nfuncs := 2\nvariable + funcs"}},
		},
		{
			name: "anonymous func call stays whole",
			body: "func() {\n\tconsole.Log(1)\n}()",
			want: []chunk{{0, "func() {\n\tconsole.Log(1)\n}()"}},
		},
		{
			name: "empty",
			body: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitChunks(tt.body))
		})
	}
}

func TestChunkSource_KeepsLineNumbers(t *testing.T) {
	assert.Equal(t, "\n\nx", chunk{line: 2, text: "x"}.source())
	assert.Equal(t, "x", chunk{text: "x"}.source())
}
